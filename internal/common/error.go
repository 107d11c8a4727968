package common

import (
	"context"
	"errors"
	"strings"
)

// Kind tells callers what class of failure an error belongs to. It is set
// where the failure is first observed, so nothing downstream has to inspect
// error messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified error.
//
// Op names the operation that failed ("posts.create", "tx.commit"), Msg is a
// human-readable message safe to show to clients, and Err is the underlying
// cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error

	retryable bool
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether re-issuing the failed operation may succeed.
// Transient errors are always retryable; conflicts only when marked so
// (deadlocks, serialization failures), never for duplicates.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient || e.retryable
}

// Message returns the client-facing message.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func NotFound(op string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: "not found", Err: ErrorNotFound}
}

// Conflict builds a conflict error. retryable marks conflicts that a fresh
// attempt can resolve, such as a deadlock victim.
func Conflict(op, msg string, err error, retryable bool) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg, Err: err, retryable: retryable}
}

func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Msg: "temporarily unavailable", Err: err}
}

func Unknown(op string, err error) *Error {
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost classified error in err's chain.
// ErrorNotFound and context errors are recognised even when unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}
	return KindUnknown
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return KindOf(err) == KindTransient
}

// MessageOf returns a client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}
