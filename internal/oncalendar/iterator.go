package oncalendar

import (
	"math/bits"
	"time"
)

// Iterator produces the timestamps matching a Spec, strictly backward
// in time from a start instant. Next mutates the cursor, so a single
// Iterator must not be driven from multiple goroutines; the Spec
// behind it is read-only and freely shared.
type Iterator struct {
	spec *Spec
	loc  *time.Location

	year, month, day     int
	hour, minute, second int
	exhausted            bool
}

// New parses expr and returns an iterator anchored at start. A
// malformed expression fails here, never on first advance.
func New(expr string, start time.Time) (*Iterator, error) {
	spec, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return spec.Iterator(start), nil
}

// Iterator returns a backward iterator anchored at start. Results are
// produced in start's location, with the UTC offset resolved per
// emitted date, so consecutive results may straddle a DST change.
func (s *Spec) Iterator(start time.Time) *Iterator {
	return &Iterator{
		spec:   s,
		loc:    start.Location(),
		year:   start.Year(),
		month:  int(start.Month()),
		day:    start.Day(),
		hour:   start.Hour(),
		minute: start.Minute(),
		second: start.Second(),
	}
}

// Next returns the most recent matching timestamp earlier than the
// previous result (earlier than the start instant on the first call).
// ok is false once no match with year >= 1970 remains, and stays
// false on every later call.
//
// The search decrements the cursor one second, then repairs fields
// from the largest down: any field with no eligible value at or below
// the cursor's value borrows one from the next larger field and resets the
// smaller ones to their maxima. Weekday has no field of its own to
// move, so a weekday miss steps the date back a day and retries.
func (it *Iterator) Next() (time.Time, bool) {
	if it.exhausted {
		return time.Time{}, false
	}
	it.second--
	for {
		if !it.spec.Years.Contains(it.year) {
			y, ok := it.spec.Years.MaxLE(it.year)
			if !ok {
				it.exhausted = true
				return time.Time{}, false
			}
			it.year, it.month, it.day = y, 12, 31
			it.resetTime()
		}
		if !it.spec.Months.Contains(it.month) {
			m, ok := it.spec.Months.MaxLE(it.month)
			if !ok {
				it.year--
				it.month, it.day = 12, 31
				it.resetTime()
				continue
			}
			it.month, it.day = m, 31
			it.resetTime()
		}
		switch d, ok := maskMaxLE(it.spec.dayMask(it.year, it.month), it.day); {
		case !ok:
			it.month--
			it.day = 31
			it.resetTime()
			continue
		case d != it.day:
			it.day = d
			it.resetTime()
		}
		if h, ok := it.spec.Hours.MaxLE(it.hour); !ok {
			it.day--
			it.resetTime()
			continue
		} else if h != it.hour {
			it.hour, it.minute, it.second = h, 59, 59
		}
		if m, ok := it.spec.Minutes.MaxLE(it.minute); !ok {
			it.hour--
			it.minute, it.second = 59, 59
			continue
		} else if m != it.minute {
			it.minute, it.second = m, 59
		}
		if sec, ok := it.spec.Seconds.MaxLE(it.second); !ok {
			it.minute--
			it.second = 59
			continue
		} else {
			it.second = sec
		}
		if !it.spec.Weekdays.Contains(weekdayOf(it.year, it.month, it.day)) {
			it.day--
			it.resetTime()
			continue
		}
		t, ok := it.localize()
		if !ok {
			// The wall-clock time does not exist in this zone (DST
			// spring-forward gap); step past it and keep searching.
			it.second--
			continue
		}
		return t, true
	}
}

func (it *Iterator) resetTime() {
	it.hour, it.minute, it.second = 23, 59, 59
}

// localize turns the cursor's wall-clock fields into an instant in the
// iterator's zone. A time erased by a spring-forward gap reports
// ok false. A time repeated across a fall-back resolves to the
// earlier of its two instants, found by probing one hour back for the
// same wall-clock reading.
func (it *Iterator) localize() (time.Time, bool) {
	t := time.Date(it.year, time.Month(it.month), it.day, it.hour, it.minute, it.second, 0, it.loc)
	if t.Day() != it.day || t.Hour() != it.hour || t.Minute() != it.minute || t.Second() != it.second {
		return time.Time{}, false
	}
	if alt := t.Add(-time.Hour); alt.Day() == it.day && alt.Hour() == it.hour &&
		alt.Minute() == it.minute && alt.Second() == it.second {
		t = alt
	}
	return t, true
}

// dayMask resolves the day field against a concrete month: plain
// members capped at the month's length, count-from-end members mapped
// from it. Bit d set means day d matches. February lengths follow the
// proleptic Gregorian leap rule via the time package.
func (s *Spec) dayMask(year, month int) uint64 {
	length := daysInMonth(year, month)
	var mask uint64
	for d := 1; d <= length; d++ {
		if s.Days.Contains(d) {
			mask |= 1 << uint(d)
		}
	}
	for n := 1; n <= reverseDayMax; n++ {
		if s.Days.Contains(-n) {
			mask |= 1 << uint(length+1-n)
		}
	}
	return mask
}

func maskMaxLE(mask uint64, v int) (int, bool) {
	if v < 1 {
		return 0, false
	}
	if v > 31 {
		v = 31
	}
	if m := mask & (1<<uint(v+1) - 1); m != 0 {
		return bits.Len64(m) - 1, true
	}
	return 0, false
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekdayOf maps a concrete date to the weekday field's numbering,
// Monday = 0.
func weekdayOf(year, month, day int) int {
	wd := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}
