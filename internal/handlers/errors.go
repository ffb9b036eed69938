package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/services"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const internalErrorMessage = "잠시 후 다시 시도해 주세요"

var statusByCode = map[string]int{
	errors.ErrCodeValidation:        http.StatusBadRequest,
	errors.ErrCodeNotFound:          http.StatusNotFound,
	errors.ErrCodeUnauthorized:      http.StatusUnauthorized,
	errors.ErrCodeForbidden:         http.StatusForbidden,
	errors.ErrCodeAlreadyExists:     http.StatusConflict,
	errors.ErrCodeConflict:          http.StatusConflict,
	errors.ErrCodeAlreadyTaken:      http.StatusConflict,
	errors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// renderError writes {"error": code, "message": ...} and aborts.
func renderError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := StatusFor(code)

	message := internalErrorMessage
	var appErr *errors.AppError
	if status != http.StatusInternalServerError && stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternalError
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}

	body := gin.H{"error": code, "message": message}
	if code == errors.ErrCodeAlreadyTaken {
		body["refresh"] = true
	}
	var draft *services.DraftError
	if stderrors.As(err, &draft) {
		body["draft"] = draft.Draft
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	renderError(c, errors.New(errors.ErrCodeValidation, message))
}
