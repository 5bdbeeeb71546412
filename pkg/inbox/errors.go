package inbox

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vedran77/fixly/pkg/api"
)

var (
	ErrEmptyText   = errors.New("message text is empty")
	ErrMissingID   = errors.New("message id is missing")
	ErrInvalidID   = errors.New("message id is malformed")
	ErrNoPeer      = errors.New("no conversation partner")
	ErrSuperseded  = errors.New("thread changed while the request was in flight")
	ErrBadEnvelope = errors.New("unexpected response shape")
)

// ErrorKind classifies a failed operation.
type ErrorKind int

const (
	// Validation failures are rejected before any request is made.
	Validation ErrorKind = iota
	// Transport failures never got a response.
	Transport
	// Rejected failures got a non-success response.
	Rejected
	// Contract failures got a success response the client cannot use.
	Contract
)

func (k ErrorKind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Transport:
		return "transport"
	case Rejected:
		return "rejected"
	case Contract:
		return "contract"
	default:
		return "unknown"
	}
}

const genericFailure = "Something went wrong. Please try again."

// Error is returned by every store operation that fails. Message is safe
// to show to the user.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("inbox: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("inbox: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return genericFailure
}

// KindOf returns the kind of an inbox error, and false for anything else.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func invalid(op string, err error, message string) *Error {
	return &Error{Kind: Validation, Op: op, Message: message, Err: err}
}

// failed wraps a request error with a fixed user message.
func failed(op string, err error, message string) *Error {
	kind := Rejected
	if api.IsTransport(err) {
		kind = Transport
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// failedWithReason prefers the reason the server gave over fallback.
func failedWithReason(op string, err error, fallback string) *Error {
	e := failed(op, err, fallback)
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 && apiErr.Message != "" {
		e.Message = apiErr.Message
	}
	return e
}

// editFailed distinguishes a message that is gone from one the user may
// not touch from a plain failure.
func editFailed(err error) *Error {
	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return failed("edit", err, "This message no longer exists.")
	case http.StatusForbidden:
		return failed("edit", err, "You are not authorized to edit this message.")
	case http.StatusBadRequest:
		return failedWithReason("edit", err, "The edit was rejected.")
	default:
		return failed("edit", err, "Could not edit the message. Please try again.")
	}
}
