package factura

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUpstreamResponse marks SaludPlus answers that cannot be used: a non-success
// status or an undecodable envelope.
// Archive providers wrap it so callers can tell a bad answer from a network
// failure.
var ErrUpstreamResponse = errors.New("unusable upstream response")

// Kind classifies failures of the invoice PDF flow.
type Kind int

const (
	// KindValidation is a missing or malformed request parameter.
	KindValidation Kind = iota + 1
	// KindNotFound means no invoice matched the given keys.
	KindNotFound
	// KindUpstream is a SaludPlus answer that cannot be used (bad envelope, missing archive, no PDF).
	KindUpstream
	// KindTransport is a network or IO failure talking to SaludPlus or reading the archive.
	KindTransport
	// KindInternal is a missing dependency or an unexpected failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindTransport:
		return "transport"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind to the status code returned to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure returned by the resolution and retrieval services.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError builds a KindValidation error listing the offending fields.
func ValidationError(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// UpstreamError builds a KindUpstream error.
func UpstreamError(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// TransportError builds a KindTransport error.
func TransportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// InternalError builds a KindInternal error.
func InternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
