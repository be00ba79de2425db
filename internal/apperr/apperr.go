// Package apperr defines the error taxonomy shared by the store, the dashboard
// aggregator and the HTTP layer. Each error carries a Kind that maps onto one
// HTTP status; everything unclassified is treated as an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and presentation.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindNotFound
	KindUnavailable
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindUnsupported:
		return "unsupported"
	default:
		return "infrastructure"
	}
}

// Error is a classified error. Msg is what the caller sees; Err is the cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInfrastructure = &Error{Kind: KindInfrastructure}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
	ErrUnsupported    = &Error{Kind: KindUnsupported}
)

// Validation reports user-fixable input problems.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// NotFound reports a missing entity, e.g. NotFound("server").
func NotFound(resource string) error {
	msg := "not found"
	if resource != "" {
		msg = resource + " not found"
	}
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Infrastructure wraps a persistence or transport failure. The cause's text is
// passed through to the caller unchanged.
func Infrastructure(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInfrastructure, Err: err}
}

// Unavailable reports that a remote collaborator (for example an SSH target)
// could not be reached.
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// Unsupported reports that the requested feature is not configured.
func Unsupported(msg string) error {
	return &Error{Kind: KindUnsupported, Msg: msg}
}

// KindOf returns the kind of err; unclassified errors are infrastructure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInfrastructure
}

// HTTPStatus maps err onto the status code the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusBadGateway
	case KindUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
