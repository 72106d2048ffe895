package ideas

import (
	"errors"
	"net/http"
)

// Kind classifies protocol failures for callers deciding whether to retry.
type Kind string

const (
	// KindInvalidRequest is bad caller input. Not retried.
	KindInvalidRequest Kind = "InvalidRequest"
	// KindUpstreamUnavailable means the model call failed or timed out. The
	// whole phase is safe to retry.
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	// KindDecodeError means the model answered with non-JSON or
	// schema-violating output. Safe to retry with the same input.
	KindDecodeError Kind = "DecodeError"
	// KindPersistenceError means the store rejected a write.
	KindPersistenceError Kind = "PersistenceError"
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUpstreamUnavailable, KindDecodeError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrDecode              = &Error{Kind: KindDecodeError}
	ErrPersistence         = &Error{Kind: KindPersistenceError}
)

// ErrPendingNotFound is returned by stores for unknown pending tokens.
var ErrPendingNotFound = errors.New("pending decomposition not found")

func invalid(msg string) error {
	return &Error{Kind: KindInvalidRequest, Msg: msg}
}

func wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of err, treating unknown errors as persistence
// failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceError
}
