package cerr

import (
	"errors"
	"fmt"
	"runtime"
)

// Error carries a transport-mappable code alongside the message returned to
// the caller and the underlying error kept for logs.
type Error struct {
	Code  Code
	Msg   string // message returned to the caller together with the code
	Err   error  // underlying error, logged but never sent to the caller
	Stack string // stack trace, captured for server-side failures only
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.HTTPCode() >= 500 {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err wraps a *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}
