package oncalendar

import "strings"

// shorthands are the named schedules accepted in place of a full
// expression, matched case-insensitively.
var shorthands = map[string]string{
	"minutely":     "*-*-* *:*:00",
	"hourly":       "*-*-* *:00:00",
	"daily":        "*-*-* 00:00:00",
	"weekly":       "Mon *-*-* 00:00:00",
	"monthly":      "*-*-01 00:00:00",
	"quarterly":    "*-01,04,07,10-01 00:00:00",
	"semiannually": "*-01,07-01 00:00:00",
	"annually":     "*-01-01 00:00:00",
	"yearly":       "*-01-01 00:00:00",
}

// Spec is a parsed calendar expression, one validated value set per
// field. A Spec is immutable after Parse and may back any number of
// iterators concurrently.
type Spec struct {
	Weekdays FieldSet
	Years    FieldSet
	Months   FieldSet
	Days     FieldSet
	Hours    FieldSet
	Minutes  FieldSet
	Seconds  FieldSet
}

type componentKind int

const (
	componentWeekday componentKind = iota
	componentDate
	componentTime
	componentOther
)

// classify assigns a whitespace-separated component its role by shape
// alone. A letter can only start a weekday name; a colon marks a
// time; a dash or tilde marks a date. Bare leftovers ("*", "5") fall
// to componentOther and are handed to the weekday parser, the one
// field with no other claim on them.
func classify(component string) componentKind {
	for i := 0; i < len(component); i++ {
		if c := component[i]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return componentWeekday
		}
	}
	if strings.ContainsRune(component, ':') {
		return componentTime
	}
	if strings.ContainsAny(component, "-~") {
		return componentDate
	}
	return componentOther
}

// Parse validates an OnCalendar-style expression eagerly and returns
// the composite specification. Omitted components keep their
// defaults: every weekday, every date, midnight.
func Parse(expr string) (*Spec, error) {
	value := strings.TrimSpace(expr)
	if expanded, ok := shorthands[strings.ToLower(value)]; ok {
		value = expanded
	}
	components := strings.Fields(value)
	if len(components) == 0 || len(components) > 3 {
		return nil, wrongFieldCount(expr)
	}

	spec := &Spec{
		Weekdays: fullSet(fieldWeekday),
		Years:    fullSet(fieldYear),
		Months:   fullSet(fieldMonth),
		Days:     fullSet(fieldDay),
		Hours:    singleton(fieldHour, 0),
		Minutes:  singleton(fieldMinute, 0),
		Seconds:  singleton(fieldSecond, 0),
	}

	var haveWeekday, haveDate, haveTime bool
	for _, component := range components {
		switch classify(component) {
		case componentTime:
			if haveTime {
				return nil, wrongFieldCount(expr)
			}
			haveTime = true
			if err := spec.parseTime(component); err != nil {
				return nil, err
			}
		case componentDate:
			if haveDate {
				return nil, wrongFieldCount(expr)
			}
			haveDate = true
			if err := spec.parseDate(component); err != nil {
				return nil, err
			}
		default:
			if haveWeekday {
				return nil, wrongFieldCount(expr)
			}
			haveWeekday = true
			// A weekday list may trail a comma before the next
			// component, e.g. "Mon, 12:34".
			set, err := parseWeekdays(strings.TrimSuffix(component, ","))
			if err != nil {
				return nil, err
			}
			spec.Weekdays = set
		}
	}
	return spec, nil
}

// parseDate fills years, months and days from a date component of the
// form [year-]month-day or [year-]month~day. The tilde switches the
// day field into count-from-end mode.
func (s *Spec) parseDate(component string) error {
	var yearTok, monthTok, dayTok string
	var hasYear bool

	head, tail, reverse := strings.Cut(component, "~")
	if reverse {
		dayTok = tail
		switch parts := strings.Split(head, "-"); len(parts) {
		case 1:
			monthTok = parts[0]
		case 2:
			hasYear, yearTok, monthTok = true, parts[0], parts[1]
		default:
			return badField(fieldDay, component)
		}
	} else {
		switch parts := strings.Split(component, "-"); len(parts) {
		case 2:
			monthTok, dayTok = parts[0], parts[1]
		case 3:
			hasYear, yearTok, monthTok, dayTok = true, parts[0], parts[1], parts[2]
		default:
			return badField(fieldDay, component)
		}
	}

	var err error
	if hasYear {
		if s.Years, err = parseYears(yearTok); err != nil {
			return err
		}
	}
	if s.Months, err = parseNumericField(fieldMonth, monthTok); err != nil {
		return err
	}
	if reverse {
		s.Days, err = parseReverseDays(dayTok)
	} else {
		s.Days, err = parseNumericField(fieldDay, dayTok)
	}
	return err
}

// parseYears applies the century pivot to bare one- and two-digit
// literals (69 means 2069, 70 means 1970) and defers everything else
// to the regular field parser.
func parseYears(token string) (FieldSet, error) {
	if len(token) <= 2 {
		if v, err := atoiStrict(token); err == nil {
			set := FieldSet{anchor: fieldTable[fieldYear].anchor}
			if v < 70 {
				set.add(2000 + v)
			} else {
				set.add(1900 + v)
			}
			return set, nil
		}
	}
	return parseNumericField(fieldYear, token)
}

// parseTime fills hours, minutes and seconds from hour:minute[:second].
// A missing seconds part keeps the default {0}.
func (s *Spec) parseTime(component string) error {
	parts := strings.Split(component, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return badField(fieldSecond, component)
	}
	var err error
	if s.Hours, err = parseNumericField(fieldHour, parts[0]); err != nil {
		return err
	}
	if s.Minutes, err = parseNumericField(fieldMinute, parts[1]); err != nil {
		return err
	}
	if len(parts) == 3 {
		if s.Seconds, err = parseNumericField(fieldSecond, parts[2]); err != nil {
			return err
		}
	}
	return nil
}

func fullSet(kind fieldKind) FieldSet {
	def := fieldTable[kind]
	set := FieldSet{anchor: def.anchor}
	for v := def.lo; v <= def.hi; v++ {
		set.add(v)
	}
	return set
}

func singleton(kind fieldKind, v int) FieldSet {
	set := FieldSet{anchor: fieldTable[kind].anchor}
	set.add(v)
	return set
}
