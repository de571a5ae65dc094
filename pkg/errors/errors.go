package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeDuplicate        Code = "DUPLICATE_RESOURCE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidReference Code = "INVALID_REFERENCE"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeTransient        Code = "TRANSIENT"
	CodeIdempotency      Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit        Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeDependency       Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced at the HTTP boundary.
// PublicMessageOnly codes never echo the error's own message to clients.
type Metadata struct {
	HTTPStatus        int
	Retryable         bool
	PublicMessage     string
	PublicMessageOnly bool
	DetailsAllowed    bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeDuplicate: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "resource already exists",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	// The missing resource was named in the request body or query, not the path.
	CodeInvalidReference: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "referenced resource not found",
	},
	CodeUnauthenticated: {
		HTTPStatus:        http.StatusUnauthorized,
		PublicMessage:     "authentication required",
		PublicMessageOnly: true,
	},
	CodeForbidden: {
		HTTPStatus:        http.StatusForbidden,
		PublicMessage:     "access denied",
		PublicMessageOnly: true,
	},
	CodeTransient: {
		HTTPStatus:        http.StatusServiceUnavailable,
		Retryable:         true,
		PublicMessage:     "temporarily unavailable, retry the request",
		PublicMessageOnly: true,
	},
	CodeIdempotency: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "idempotency key reused",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:        http.StatusInternalServerError,
		Retryable:         true,
		PublicMessage:     "internal server error",
		PublicMessageOnly: true,
	},
	CodeDependency: {
		HTTPStatus:        http.StatusServiceUnavailable,
		Retryable:         true,
		PublicMessage:     "dependency unavailable",
		PublicMessageOnly: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details map[string]string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns the per-field messages attached to the error.
func (e *Error) Details() map[string]string {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails returns a copy carrying details, so shared sentinels stay untouched.
func (e *Error) WithDetails(details map[string]string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.details = details
	return &clone
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches typed errors by code and message so sentinels compare by value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code && e.message == t.message
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries a typed error with the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
