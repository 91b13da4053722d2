package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/sketchbox/internal/client"
	"github.com/GriffinCanCode/sketchbox/internal/history"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
	"github.com/GriffinCanCode/sketchbox/internal/studio"
)

// statusFor maps an error to the HTTP status the API answers with.
func statusFor(err error) int {
	var verr *utils.ValidationError
	var gaveUp *studio.GaveUpError
	var failure *client.RequestFailure

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &gaveUp):
		return http.StatusUnprocessableEntity
	case errors.Is(err, studio.ErrFeedEmpty), errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests),
		errors.Is(err, preview.ErrBusy), errors.Is(err, preview.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &failure):
		switch {
		case failure.Status == http.StatusNotFound, failure.Status == http.StatusUnauthorized:
			return failure.Status
		case failure.Status >= 400 && failure.Status < 500:
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": message}.
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var gaveUp *studio.GaveUpError
	if errors.As(err, &gaveUp) {
		body["attempts"] = gaveUp.Attempts
		body["last_error"] = gaveUp.LastError
	}
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}

	c.JSON(statusFor(err), body)
}
