package ankiconnect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Kind classifies an AnkiConnect failure.
type Kind int

const (
	// KindUnexpected is anything not matching another kind.
	KindUnexpected Kind = iota
	// KindRemote means AnkiConnect answered with a non-null error.
	KindRemote
	// KindPermission means the endpoint answered 403.
	KindPermission
	// KindHTTP means a non-2xx status other than 403.
	KindHTTP
	// KindConnection means nothing answered.
	KindConnection
	// KindTimeout means the request outlived its per-attempt timeout.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindPermission:
		return "permission"
	case KindHTTP:
		return "http"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

const (
	msgPermission = "Permission denied. Please check AnkiConnect configuration and API key."
	msgConnection = "Cannot connect to Anki. Please ensure Anki is running and AnkiConnect plugin is installed."
)

// Error is the single error type the client returns.
type Error struct {
	Kind Kind
	// Message is what tools show to the caller.
	Message string
	// Action is the AnkiConnect action in flight.
	Action string
	// Cause is the error string reported by AnkiConnect itself, if any.
	Cause string
	// StatusCode is the final HTTP status, when there was one.
	StatusCode int
	// Err is the underlying transport or decoding error.
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns a remote-kind error as AnkiConnect would report it. Test
// doubles use it to script failures.
func NewError(action, cause string) *Error {
	return &Error{
		Kind:    KindRemote,
		Message: "AnkiConnect error: " + cause,
		Action:  action,
		Cause:   cause,
	}
}

// ActionOf returns the action recorded on a classified error, or "".
func ActionOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Action
	}
	return ""
}

// IsKind reports whether err is a classified error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func statusError(action string, code int) *Error {
	if code == http.StatusForbidden {
		return &Error{Kind: KindPermission, Message: msgPermission, Action: action, StatusCode: code}
	}
	return &Error{
		Kind:       KindHTTP,
		Message:    fmt.Sprintf("HTTP error %d: %s", code, http.StatusText(code)),
		Action:     action,
		StatusCode: code,
	}
}

// classify normalizes err into an *Error. Errors that are already
// classified come back unchanged.
func classify(action string, err error, timeout time.Duration) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnexpected, Message: "Unexpected error: request canceled", Action: action, Err: err}
	case isTimeout(err):
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("Request to AnkiConnect timed out after %dms. Anki may be busy or showing a dialog.", timeout.Milliseconds()),
			Action:  action,
			Err:     err,
		}
	case isConnection(err):
		return &Error{Kind: KindConnection, Message: msgConnection, Action: action, Err: err}
	}

	return &Error{Kind: KindUnexpected, Message: "Unexpected error: " + err.Error(), Action: action, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnection(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}
