package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common domain error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeUnknownCoverageKey  = "UNKNOWN_COVERAGE_KEY"
	ErrCodeNoPrimaryRule       = "NO_PRIMARY_RULE"
	ErrCodeFormulaEvalFailed   = "FORMULA_EVALUATION_FAILED"
	ErrCodePrimaryLinkConflict = "PRIMARY_LINK_CONFLICT"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(message, details string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: fmt.Sprintf("ID: %s", id),
	}
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
		Details: fmt.Sprintf("ID: %s", id),
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message, details string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: message,
		Details: details,
	}
}

// NewUnknownCoverageKeyError reports a selected coverage absent from the product.
func NewUnknownCoverageKeyError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownCoverageKey,
		Message: "selected coverage does not exist on product",
		Details: fmt.Sprintf("key: %s", key),
	}
}

// NewNoPrimaryRuleError reports a product with no primary rule linked.
func NewNoPrimaryRuleError(productID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNoPrimaryRule,
		Message: "no primary calculation rule linked to product",
		Details: fmt.Sprintf("product: %s", productID),
	}
}

// NewFormulaEvalError wraps a formula evaluation failure.
func NewFormulaEvalError(formulaCode string, cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeFormulaEvalFailed,
		Message: fmt.Sprintf("formula %q failed to evaluate", formulaCode),
		Details: cause.Error(),
	}
}

// NewPrimaryLinkConflictError reports a lost primary-swap race after retries.
func NewPrimaryLinkConflictError(productID string) *DomainError {
	return &DomainError{
		Code:    ErrCodePrimaryLinkConflict,
		Message: "concurrent primary rule change, please retry",
		Details: fmt.Sprintf("product: %s", productID),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}
