package oncalendar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

// assertDefaults checks that the named fields still hold their
// defaults; fields is a subset of "wymdHMS".
func assertDefaults(t *testing.T, spec *Spec, fields string) {
	t.Helper()
	for _, f := range fields {
		switch f {
		case 'w':
			assert.Equal(t, seq(0, 6), spec.Weekdays.Values(), "weekdays")
		case 'y':
			assert.Equal(t, seq(1970, 2199), spec.Years.Values(), "years")
		case 'm':
			assert.Equal(t, seq(1, 12), spec.Months.Values(), "months")
		case 'd':
			assert.Equal(t, seq(1, 31), spec.Days.Values(), "days")
		case 'H':
			assert.Equal(t, []int{0}, spec.Hours.Values(), "hours")
		case 'M':
			assert.Equal(t, []int{0}, spec.Minutes.Values(), "minutes")
		case 'S':
			assert.Equal(t, []int{0}, spec.Seconds.Values(), "seconds")
		}
	}
}

func mustParse(t *testing.T, expr string) *Spec {
	t.Helper()
	spec, err := Parse(expr)
	require.NoError(t, err)
	return spec
}

func TestParseStars(t *testing.T) {
	spec := mustParse(t, "*-*-* *:*:*")
	assertDefaults(t, spec, "wymd")
	assert.Equal(t, seq(0, 23), spec.Hours.Values())
	assert.Equal(t, seq(0, 59), spec.Minutes.Values())
	assert.Equal(t, seq(0, 59), spec.Seconds.Values())
}

func TestParseWeekday(t *testing.T) {
	for _, sample := range []string{"Mon", "MON", "Monday", "MONDAY"} {
		spec := mustParse(t, sample)
		assertDefaults(t, spec, "ymdHMS")
		assert.Equal(t, []int{0}, spec.Weekdays.Values(), sample)
	}
}

func TestParseWeekdayWithTrailingComma(t *testing.T) {
	spec := mustParse(t, "Mon, 12:34")
	assertDefaults(t, spec, "ymdS")
	assert.Equal(t, []int{0}, spec.Weekdays.Values())
	assert.Equal(t, []int{12}, spec.Hours.Values())
	assert.Equal(t, []int{34}, spec.Minutes.Values())
}

func TestParseWeekdayInterval(t *testing.T) {
	for _, sample := range []string{"Mon..Tue", "Mon,Tue", "Mon-Tue"} {
		spec := mustParse(t, sample)
		assertDefaults(t, spec, "ymdHMS")
		assert.Equal(t, []int{0, 1}, spec.Weekdays.Values(), sample)
	}
}

func TestParseDate(t *testing.T) {
	spec := mustParse(t, "2023-11-30")
	assertDefaults(t, spec, "wHMS")
	assert.Equal(t, []int{2023}, spec.Years.Values())
	assert.Equal(t, []int{11}, spec.Months.Values())
	assert.Equal(t, []int{30}, spec.Days.Values())
}

func TestParseOmittedYear(t *testing.T) {
	spec := mustParse(t, "11-30")
	assertDefaults(t, spec, "wyHMS")
	assert.Equal(t, []int{11}, spec.Months.Values())
	assert.Equal(t, []int{30}, spec.Days.Values())
}

func TestParseTwoDigitYear(t *testing.T) {
	spec := mustParse(t, "69-*-*")
	assertDefaults(t, spec, "wmdHMS")
	assert.Equal(t, []int{2069}, spec.Years.Values())
}

func TestParsePrevCenturyTwoDigitYear(t *testing.T) {
	spec := mustParse(t, "70-*-*")
	assertDefaults(t, spec, "wmdHMS")
	assert.Equal(t, []int{1970}, spec.Years.Values())
}

func TestParseTime(t *testing.T) {
	spec := mustParse(t, "11:22:33")
	assertDefaults(t, spec, "wymd")
	assert.Equal(t, []int{11}, spec.Hours.Values())
	assert.Equal(t, []int{22}, spec.Minutes.Values())
	assert.Equal(t, []int{33}, spec.Seconds.Values())
}

func TestParseOmittedSeconds(t *testing.T) {
	spec := mustParse(t, "11:22")
	assertDefaults(t, spec, "wymdS")
	assert.Equal(t, []int{11}, spec.Hours.Values())
	assert.Equal(t, []int{22}, spec.Minutes.Values())
}

func TestParseList(t *testing.T) {
	spec := mustParse(t, "*:1,2,3")
	assert.Equal(t, []int{1, 2, 3}, spec.Minutes.Values())
}

func TestParseInterval(t *testing.T) {
	spec := mustParse(t, "*:1..3")
	assert.Equal(t, []int{1, 2, 3}, spec.Minutes.Values())
}

func TestParseTwoIntervals(t *testing.T) {
	spec := mustParse(t, "*:1..3,7..9:*")
	assert.Equal(t, []int{1, 2, 3, 7, 8, 9}, spec.Minutes.Values())
}

func TestParseStep(t *testing.T) {
	spec := mustParse(t, "*:0/15")
	assert.Equal(t, []int{0, 15, 30, 45}, spec.Minutes.Values())
}

func TestParseIntervalWithStep(t *testing.T) {
	spec := mustParse(t, "*:0..10/2")
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10}, spec.Minutes.Values())
}

func TestParseStartWithStep(t *testing.T) {
	spec := mustParse(t, "*:5/15")
	assert.Equal(t, []int{5, 20, 35, 50}, spec.Minutes.Values())
}

func TestParseNegativeDay(t *testing.T) {
	spec := mustParse(t, "*-*~1")
	assert.Equal(t, []int{-1}, spec.Days.Values())
}

func TestParseNegativeDaySansYear(t *testing.T) {
	spec := mustParse(t, "*~1")
	assert.Equal(t, []int{-1}, spec.Days.Values())
}

func TestParseNegativeDayList(t *testing.T) {
	spec := mustParse(t, "*-*~1,8")
	assert.Equal(t, []int{-8, -1}, spec.Days.Values())
}

func TestParseNegativeDayInterval(t *testing.T) {
	spec := mustParse(t, "*-*~1..3")
	assert.Equal(t, []int{-3, -2, -1}, spec.Days.Values())
}

func TestParseTwoNegativeDayIntervals(t *testing.T) {
	spec := mustParse(t, "*-*~1..2,4..5")
	assert.Equal(t, []int{-5, -4, -2, -1}, spec.Days.Values())
}

func TestParseNegativeDayIntervalWithStep(t *testing.T) {
	spec := mustParse(t, "*-*~1..5/2")
	assert.Equal(t, []int{-5, -3, -1}, spec.Days.Values())
}

func TestParseNegativeDayStartWithStep(t *testing.T) {
	spec := mustParse(t, "*-*~3/2")
	assert.Equal(t, []int{-3, -1}, spec.Days.Values())
}

func TestParseShorthand(t *testing.T) {
	for _, sample := range []string{"minutely", "Minutely", "MINUTELY", "MiNuTeLY"} {
		spec := mustParse(t, sample)
		assertDefaults(t, spec, "wymd")
		assert.Equal(t, seq(0, 23), spec.Hours.Values(), sample)
		assert.Equal(t, seq(0, 59), spec.Minutes.Values(), sample)
		assert.Equal(t, []int{0}, spec.Seconds.Values(), sample)
	}

	spec := mustParse(t, "quarterly")
	assert.Equal(t, []int{1, 4, 7, 10}, spec.Months.Values())
	assert.Equal(t, []int{1}, spec.Days.Values())
}

func TestParseIsDeterministic(t *testing.T) {
	for _, expr := range []string{"*-*-* *:*:*", "Sun *~7/1", "Mon..Fri 2019-01-01 8..9:0/5"} {
		first := mustParse(t, expr)
		second := mustParse(t, expr)
		assert.Equal(t, first, second, expr)
	}
}

func TestParseRejectsEmptyString(t *testing.T) {
	_, err := Parse("")
	assert.ErrorContains(t, err, "Wrong number of fields")
}

func TestParseRejectsFourComponents(t *testing.T) {
	_, err := Parse("Mon *-*-* *:*:* surprise")
	assert.ErrorContains(t, err, "Wrong number of fields")
}

func TestParseRejectsBadValues(t *testing.T) {
	patterns := []string{
		"%s *-*-* *:*:*",
		"%s-*-*",
		"*-%s-*",
		"*-*-%s",
		"*-*~%s",
		"%s:*:*",
		"*:%s:*",
		"*:*:%s",
	}
	badValues := []string{"-1", "1000", "ABC", "1-1", "1:1", "Mon/1", "~1", "*/1", "*,1", "1..*"}

	for _, pattern := range patterns {
		for _, value := range badValues {
			expr := fmt.Sprintf(pattern, value)
			_, err := Parse(expr)
			assert.Error(t, err, "expected %q to be rejected", expr)
			if err != nil {
				var parseErr *Error
				assert.ErrorAs(t, err, &parseErr, expr)
			}
		}
	}
}

func TestParseRejectsLopsidedRange(t *testing.T) {
	_, err := Parse("*-*-5..1")
	assert.ErrorContains(t, err, "Bad day-of-month")
}

func TestParseRejectsUnderscores(t *testing.T) {
	_, err := Parse("*:1..1_0")
	assert.ErrorContains(t, err, "Bad minute")
}

func TestParseRejectsZeroStep(t *testing.T) {
	_, err := Parse("*:*/0")
	assert.ErrorContains(t, err, "Bad minute")
}

func TestParseChecksDayOfMonthRange(t *testing.T) {
	_, err := Parse("1-32")
	assert.ErrorContains(t, err, "Bad day-of-month")
}

func TestParseRejectsWeekdayStar(t *testing.T) {
	_, err := Parse("* 1-1")
	assert.ErrorContains(t, err, "Bad day-of-week")
}

func TestParseRejectsReverseDayAbove28(t *testing.T) {
	_, err := Parse("1~29")
	assert.ErrorContains(t, err, "Bad day-of-month")
}

func TestParseRejectsDuplicateRoles(t *testing.T) {
	for _, expr := range []string{"Mon Tue", "1-1 2-2", "1:1 2:2"} {
		_, err := Parse(expr)
		assert.ErrorContains(t, err, "Wrong number of fields", expr)
	}
}
