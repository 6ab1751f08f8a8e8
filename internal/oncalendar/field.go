package oncalendar

import (
	"math/bits"
	"strconv"
	"strings"
)

// FieldSet is a fixed-size bitset over one schedule field's domain.
// anchor pins bit 0 to the domain minimum (-28 for day-of-month,
// 1970 for years, 0 or 1 elsewhere). 256 bits cover the widest
// domain, the 230 permitted years.
type FieldSet struct {
	anchor int
	words  [4]uint64
}

func (s *FieldSet) add(v int) {
	i := v - s.anchor
	s.words[i>>6] |= 1 << uint(i&63)
}

// Contains reports whether v is a member of the set.
func (s FieldSet) Contains(v int) bool {
	i := v - s.anchor
	if i < 0 || i >= len(s.words)*64 {
		return false
	}
	return s.words[i>>6]&(1<<uint(i&63)) != 0
}

// MaxLE returns the greatest member less than or equal to v. The
// backward search leans on this for every field probe.
func (s FieldSet) MaxLE(v int) (int, bool) {
	i := v - s.anchor
	if i < 0 {
		return 0, false
	}
	if top := len(s.words)*64 - 1; i > top {
		i = top
	}
	mask := ^uint64(0) >> uint(63-i&63)
	for w := i >> 6; w >= 0; w-- {
		if b := s.words[w] & mask; b != 0 {
			return s.anchor + w<<6 + bits.Len64(b) - 1, true
		}
		mask = ^uint64(0)
	}
	return 0, false
}

// Values returns the members in ascending order.
func (s FieldSet) Values() []int {
	var out []int
	for w, word := range s.words {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, s.anchor+w*64+b)
			word &^= 1 << uint(b)
		}
	}
	return out
}

type fieldKind int

const (
	fieldWeekday fieldKind = iota
	fieldYear
	fieldMonth
	fieldDay
	fieldHour
	fieldMinute
	fieldSecond
)

// reverseDayMax bounds count-from-end day magnitudes: not every month
// reaches day 29, so 29..31 can never resolve in all months.
const reverseDayMax = 28

// fieldTable holds per-field names (used in error messages), bitset
// anchors, and the numeric bounds for plain values. Day-of-month is
// anchored at -28 so count-from-end values share the bitset with
// plain ones.
var fieldTable = [...]struct {
	name   string
	anchor int
	lo, hi int
}{
	fieldWeekday: {"day-of-week", 0, 0, 6},
	fieldYear:    {"year", 1970, 1970, 2199},
	fieldMonth:   {"month", 1, 1, 12},
	fieldDay:     {"day-of-month", -28, 1, 31},
	fieldHour:    {"hour", 0, 0, 23},
	fieldMinute:  {"minute", 0, 0, 59},
	fieldSecond:  {"second", 0, 0, 59},
}

var weekdayNames = map[string]int{
	"mon": 0, "monday": 0,
	"tue": 1, "tuesday": 1,
	"wed": 2, "wednesday": 2,
	"thu": 3, "thursday": 3,
	"fri": 4, "friday": 4,
	"sat": 5, "saturday": 5,
	"sun": 6, "sunday": 6,
}

// atoiStrict accepts plain decimal digits only. strconv.Atoi alone
// would let signs through, and the grammar forbids "+1", "-1" and
// separator junk like "1_0".
func atoiStrict(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// parseNumericField parses a comma-separated list of *, value, a..b,
// a/step and a..b/step items into a validated set. A wildcard must be
// the whole token: it may not carry a step or sit beside other items.
func parseNumericField(kind fieldKind, token string) (FieldSet, error) {
	def := fieldTable[kind]
	set := FieldSet{anchor: def.anchor}
	items := strings.Split(token, ",")
	for _, item := range items {
		if item == "*" {
			if len(items) > 1 {
				return set, badField(kind, token)
			}
			for v := def.lo; v <= def.hi; v++ {
				set.add(v)
			}
			return set, nil
		}
		body, stepStr, hasStep := strings.Cut(item, "/")
		step := 1
		if hasStep {
			n, err := atoiStrict(stepStr)
			if err != nil || n < 1 {
				return set, badField(kind, item)
			}
			step = n
		}
		loStr, hiStr, isRange := strings.Cut(body, "..")
		start, err := atoiStrict(loStr)
		if err != nil || start < def.lo || start > def.hi {
			return set, badField(kind, item)
		}
		if !isRange && !hasStep {
			set.add(start)
			continue
		}
		end := def.hi
		if isRange {
			end, err = atoiStrict(hiStr)
			if err != nil || end > def.hi || start > end {
				return set, badField(kind, item)
			}
		}
		for v := start; v <= end; v += step {
			set.add(v)
		}
	}
	return set, nil
}

// parseReverseDays parses a day-of-month list in count-from-end mode.
// Values are stored negated; the magnitude domain is [1,28]. In the
// truncated a/step form the implicit end of range is the last day of
// the month, so generation runs from the start magnitude down toward 1.
func parseReverseDays(token string) (FieldSet, error) {
	set := FieldSet{anchor: fieldTable[fieldDay].anchor}
	items := strings.Split(token, ",")
	for _, item := range items {
		if item == "*" {
			if len(items) > 1 {
				return set, badField(fieldDay, token)
			}
			for v := 1; v <= reverseDayMax; v++ {
				set.add(-v)
			}
			return set, nil
		}
		body, stepStr, hasStep := strings.Cut(item, "/")
		step := 1
		if hasStep {
			n, err := atoiStrict(stepStr)
			if err != nil || n < 1 {
				return set, badField(fieldDay, item)
			}
			step = n
		}
		loStr, hiStr, isRange := strings.Cut(body, "..")
		start, err := atoiStrict(loStr)
		if err != nil || start < 1 || start > reverseDayMax {
			return set, badField(fieldDay, item)
		}
		switch {
		case isRange:
			end, err := atoiStrict(hiStr)
			if err != nil || end > reverseDayMax || start > end {
				return set, badField(fieldDay, item)
			}
			for v := start; v <= end; v += step {
				set.add(-v)
			}
		case hasStep:
			for v := start; v >= 1; v -= step {
				set.add(-v)
			}
		default:
			set.add(-start)
		}
	}
	return set, nil
}

// parseWeekdays parses a weekday list. Items are case-insensitive
// names (three-letter or full), single or ranged with ".." or "-";
// wildcards, steps and numeric values are rejected. Omitting the
// component, not "*", is how "any weekday" is spelled.
func parseWeekdays(token string) (FieldSet, error) {
	var set FieldSet
	for _, item := range strings.Split(token, ",") {
		if strings.Contains(item, "/") {
			return set, badField(fieldWeekday, item)
		}
		first, second, isRange := strings.Cut(item, "..")
		if !isRange {
			first, second, isRange = strings.Cut(item, "-")
		}
		start, ok := weekdayNames[strings.ToLower(first)]
		if !ok {
			return set, badField(fieldWeekday, item)
		}
		end := start
		if isRange {
			if end, ok = weekdayNames[strings.ToLower(second)]; !ok || start > end {
				return set, badField(fieldWeekday, item)
			}
		}
		for v := start; v <= end; v++ {
			set.add(v)
		}
	}
	return set, nil
}
