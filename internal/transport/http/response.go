package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtier-app/premiumservice/internal/domain"
)

// APIError is the wire shape of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor maps a domain error code to an HTTP status. Unmapped codes
// fall through to 500 so new domain failures are never silently
// reported as client errors.
func statusFor(code string) int {
	switch code {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeAlreadyExists, domain.ErrCodePrimaryLinkConflict:
		return http.StatusConflict
	case domain.ErrCodeInvalidInput,
		domain.ErrCodeInvalidState,
		domain.ErrCodeUnknownCoverageKey,
		domain.ErrCodeNoPrimaryRule,
		domain.ErrCodeFormulaEvalFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		c.JSON(statusFor(de.Code), ErrorEnvelope{Error: APIError{
			Code:    de.Code,
			Message: de.Message,
			Details: de.Details,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{Error: APIError{
		Code:    domain.ErrCodeInternal,
		Message: "internal error",
	}})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{
		Code:    domain.ErrCodeInvalidInput,
		Message: msg,
	}})
}
