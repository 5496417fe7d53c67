// Package errors carries a Code on every domain error so transports can map it
// to a status and a message that is safe to show a shopper.
package errors

import (
	stderrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeOutOfStock    Code = "OUT_OF_STOCK"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage is shown when the error has no message of its own or its
	// message must stay private.
	PublicMessage  string
	DetailsAllowed bool
}

var metadata = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "Please check the form and try again.", true},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "Please log in to continue.", false},
	CodeForbidden:     {http.StatusForbidden, false, "You do not have access to that page.", false},
	CodeNotFound:      {http.StatusNotFound, false, "We could not find what you were looking for.", false},
	CodeConflict:      {http.StatusConflict, false, "That record already exists.", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "That action is no longer possible.", true},
	CodeOutOfStock:    {http.StatusConflict, false, "Sorry, that product is out of stock.", true},
	CodeRateLimit:     {http.StatusTooManyRequests, true, "Too many attempts. Please wait a moment and try again.", false},
	CodeInternal:      {http.StatusInternalServerError, true, "Something went wrong. Please try again.", false},
	CodeDependency:    {http.StatusServiceUnavailable, true, "The store is temporarily unavailable. Please try again shortly.", true},
}

// MetadataFor returns the mapping for code; unknown codes map like CodeInternal.
func MetadataFor(code Code) Metadata {
	if m, ok := metadata[code]; ok {
		return m
	}
	return metadata[CodeInternal]
}

// private codes never expose their own message
func (c Code) private() bool {
	return c == CodeInternal || c == CodeDependency
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
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

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.code) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stderrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// PublicMessage returns text safe for a shopper. Untyped, internal and
// dependency errors collapse to the generic message for their code.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return metadata[CodeInternal].PublicMessage
	}
	if typed.code.private() || typed.message == "" {
		return MetadataFor(typed.code).PublicMessage
	}
	return typed.message
}
