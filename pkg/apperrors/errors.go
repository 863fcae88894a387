package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so handlers can map it to an HTTP
// status without string matching.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"          // entity id does not exist
	KindForbidden        Kind = "FORBIDDEN"          // entity exists but belongs to another principal
	KindInvalidReference Kind = "INVALID_REFERENCE"  // linked customer/company/product failed the ownership guard
	KindImmutableState   Kind = "IMMUTABLE_STATE"    // mutation attempted on a locked invoice
	KindValidation       Kind = "VALIDATION"         // field constraint violated
	KindConflict         Kind = "CONFLICT"           // uniqueness or state conflict
	KindInternal         Kind = "INTERNAL"           // anything unexpected
)

// Error carries a kind code plus a caller-facing message.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an application error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an application error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) *Error         { return New(KindNotFound, message) }
func Forbidden(message string) *Error        { return New(KindForbidden, message) }
func InvalidReference(message string) *Error { return New(KindInvalidReference, message) }
func ImmutableState(message string) *Error   { return New(KindImmutableState, message) }
func Validation(message string) *Error       { return New(KindValidation, message) }
func Conflict(message string) *Error         { return New(KindConflict, message) }

// KindOf extracts the kind from err, unwrapping as needed. Unclassified
// errors report KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to a response status code. Ownership
// violations get a distinct 403, locked-invoice mutations a 409; plain
// input problems stay 400.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindImmutableState, KindConflict:
		return http.StatusConflict
	case KindInvalidReference, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
