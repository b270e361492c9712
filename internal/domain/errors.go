package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeKnowledgeUnloaded   = "KNOWLEDGE_UNAVAILABLE"
	ErrCodeProviderQuota       = "PROVIDER_QUOTA_EXHAUSTED"
	ErrCodeProviderRateLimit   = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery   = NewDomainError(ErrCodeValidation, "query must not be empty")
	ErrQueryTooLong = NewDomainError(ErrCodeValidation, "query exceeds the maximum length")
)

// Not found errors
var (
	ErrItemNotFound    = NewDomainError(ErrCodeNotFound, "knowledge item not found")
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
)

// Knowledge store errors
var (
	ErrNotLoaded = NewDomainError(ErrCodeKnowledgeUnloaded, "knowledge base is not loaded")
)

// Provider errors. Quota exhaustion, rate limiting, and generic outage are
// distinct so the transport layer can map them to different responses; the
// engine never retries on its own.
var (
	ErrQuotaExhausted      = NewDomainError(ErrCodeProviderQuota, "provider quota exhausted")
	ErrRateLimited         = NewDomainError(ErrCodeProviderRateLimit, "provider rate limit exceeded")
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "provider unavailable")
)

// IsProviderError reports whether err is any of the typed provider failures
func IsProviderError(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case ErrCodeProviderQuota, ErrCodeProviderRateLimit, ErrCodeProviderUnavailable:
		return true
	}
	return false
}

// IsRateLimited reports whether err is the rate-limited provider failure
func IsRateLimited(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeProviderRateLimit
}

// IsQuotaExhausted reports whether err is the quota-exhausted provider failure
func IsQuotaExhausted(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeProviderQuota
}
