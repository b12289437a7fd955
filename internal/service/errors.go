package service

import "fmt"

// Kind classifies a service failure so the HTTP layer can map it to a
// status code in one place.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindInsufficientStock
	KindUnauthorized
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying failure as unexpected; the caller-facing message
// stays short and the cause travels on Err for logging.
func Wrap(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}
