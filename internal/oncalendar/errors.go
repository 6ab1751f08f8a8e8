package oncalendar

import "fmt"

// Error is returned when a calendar expression cannot be parsed. All
// validation happens at construction; iteration itself has no error
// path, it only runs out of matches.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func badField(kind fieldKind, token string) error {
	return &Error{msg: fmt.Sprintf("Bad %s: %s", fieldTable[kind].name, token)}
}

func wrongFieldCount(expr string) error {
	return &Error{msg: fmt.Sprintf("Wrong number of fields: %s", expr)}
}
