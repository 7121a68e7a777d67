package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

// StatusFromError maps the service sentinel errors to HTTP statuses. Anything
// unrecognised is a 500.
func StatusFromError(err error) int {
	return statusOr(err, http.StatusInternalServerError)
}

func statusOr(err error, fallback int) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrAlreadyReviewed):
		return http.StatusConflict
	case errors.Is(err, models.ErrRefundIneligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	}
	return fallback
}

// fail writes the error envelope. Internal errors keep their detail out of the
// response and go to the log through c.Error instead.
func fail(c *gin.Context, err error, message string) {
	failWith(c, err, message, http.StatusInternalServerError)
}

func failWith(c *gin.Context, err error, message string, fallback int) {
	status := statusOr(err, fallback)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		helpers.ErrorResponse(c, status, message, nil)
		return
	}
	helpers.ErrorResponse(c, status, message, err)
}
