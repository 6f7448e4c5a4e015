package errorutil

import (
	"errors"
	"fmt"
)

// Error codes understood by transport adapters.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeValidation   = "VALIDATION_FAILED"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, details)
}

// NewNotFound reports a missing resource identified by key.
func NewNotFound(resource string, key any) error {
	return NewDomainError(CodeNotFound,
		fmt.Sprintf("%s with id '%v' was not found", resource, key),
		map[string]any{"resource": resource, "key": fmt.Sprint(key)})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, nil)
}

// NewForbidden reports a policy denial for action on resource.
func NewForbidden(action, resource string) error {
	return NewDomainError(CodeForbidden,
		fmt.Sprintf("you do not have permission to %s this %s", action, resource),
		map[string]any{"action": action, "resource": resource})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf returns the domain code carried by err, or CodeInternal.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

func IsNotFound(err error) bool     { return err != nil && CodeOf(err) == CodeNotFound }
func IsForbidden(err error) bool    { return err != nil && CodeOf(err) == CodeForbidden }
func IsValidation(err error) bool   { return err != nil && CodeOf(err) == CodeValidation }
func IsConflict(err error) bool     { return err != nil && CodeOf(err) == CodeConflict }
func IsUnauthorized(err error) bool { return err != nil && CodeOf(err) == CodeUnauthorized }
