package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondDomainError maps the error taxonomy onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	code := types.CodeOf(err)
	RespondError(c, statusForCode(code), string(code), err)
}

func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.CodeValidation,
		types.CodeInvalidFloor,
		types.CodeInsufficientQuantity,
		types.CodeQualityOverflow,
		types.CodeInvalidTargetFloor:
		return http.StatusBadRequest
	case types.CodeConfiguration:
		return http.StatusUnprocessableEntity
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeConflict, types.CodeCorruptionDetected:
		return http.StatusConflict
	case types.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
