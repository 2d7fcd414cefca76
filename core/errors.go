package core

import "errors"

// DomainError is the unified error type of the recommendation core.
// Code distinguishes caller-visible failure classes; Module names the
// layer that produced it.
type DomainError struct {
	Code    string // e.g. "NOT_FOUND", "TIMEOUT"
	Message string
	Module  string // e.g. "engine", "store", "profile"
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError unwraps a DomainError, or returns nil.
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// Error codes.
const (
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInvalidInput  = "INVALID_INPUT"
	ErrorCodeTimeout       = "TIMEOUT"
	ErrorCodeUnavailable   = "UNAVAILABLE"
	ErrorCodeInternalError = "INTERNAL_ERROR"
)

// Module names.
const (
	ModuleEngine  = "engine"
	ModuleStore   = "store"
	ModuleProfile = "profile"
	ModuleRecall  = "recall"
	ModuleRank    = "rank"
	ModuleFilter  = "filter"
)

// ErrStoreNotFound is the sentinel for a missing key in a Catalog backend.
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound checks for NOT_FOUND.
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInvalidInput checks for INVALID_INPUT.
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsTimeout checks for TIMEOUT.
func IsTimeout(err error) bool { return hasCode(err, ErrorCodeTimeout) }

// IsRetryable reports whether the caller may retry the request: timeouts
// and transient unavailability, never input or not-found failures.
func IsRetryable(err error) bool {
	return hasCode(err, ErrorCodeTimeout) || hasCode(err, ErrorCodeUnavailable)
}
