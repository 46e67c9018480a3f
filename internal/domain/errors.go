package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message.
// Message is safe to show to the person filling in the form.
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on code so wrapped copies compare equal to the sentinels below
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

var (
	// Credential errors
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid login credentials",
	}
	ErrUserAlreadyExists = &DomainError{
		Code:    "USER_ALREADY_EXISTS",
		Message: "User already registered",
	}

	// Session errors
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "session not found",
	}
	ErrSessionExpired = &DomainError{
		Code:    "SESSION_EXPIRED",
		Message: "session expired",
	}

	// Provider errors
	ErrProviderRejected = &DomainError{
		Code:    "PROVIDER_REJECTED",
		Message: "request rejected by auth provider",
	}
	ErrProviderRequest = &DomainError{
		Code:    "PROVIDER_REQUEST_FAILED",
		Message: "auth provider request failed",
	}

	// Infrastructure errors
	ErrDatabaseOperation = &DomainError{
		Code:    "DATABASE_OPERATION_FAILED",
		Message: "database operation failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// WrapProviderRejected wraps a provider's own message as a rejection
func WrapProviderRejected(message string, cause error) error {
	if message == "" {
		message = ErrProviderRejected.Message
	}
	return &DomainError{
		Code:    ErrProviderRejected.Code,
		Message: message,
		Cause:   cause,
	}
}

// WrapProviderRequest wraps a transport failure talking to the provider
func WrapProviderRequest(operation string, cause error) error {
	return &DomainError{
		Code:    ErrProviderRequest.Code,
		Message: ErrProviderRequest.Message,
		Cause:   fmt.Errorf("%s: %w", operation, cause),
	}
}

// WrapDatabaseOperation wraps an error as a database operation failure
func WrapDatabaseOperation(operation string, cause error) error {
	return &DomainError{
		Code:    ErrDatabaseOperation.Code,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Cause:   cause,
	}
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// UserMessage returns the message to display for err: the domain message when
// there is one, the raw error text otherwise.
func UserMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

// IsSessionError checks if an error means the caller has no usable session
func IsSessionError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrProviderRejected)
}

// IsInfrastructureError checks if an error is an infrastructure error
func IsInfrastructureError(err error) bool {
	return errors.Is(err, ErrDatabaseOperation) || errors.Is(err, ErrProviderRequest)
}
