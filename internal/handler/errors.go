package handler

import (
	"errors"
	"net/http"

	"curve-desk/internal/curve"
	"curve-desk/internal/domain"
	"curve-desk/internal/scenario"
	"curve-desk/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// statusFor maps service errors to HTTP status codes. Malformed requests are
// 400, well-formed input the curve math cannot use is 422 and data source
// failures are 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, curve.ErrUnknownMethod),
		errors.Is(err, scenario.ErrUnknownMode),
		errors.Is(err, domain.ErrUnknownMaturity),
		errors.Is(err, domain.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrShapeMismatch),
		errors.Is(err, domain.ErrMissingMaturity),
		errors.Is(err, domain.ErrFitConvergence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
