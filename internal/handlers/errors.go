package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/quote-service/internal/pricing"
	"github.com/kosarica/quote-service/internal/submission"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string          `json:"error"`
	Code   string          `json:"code,omitempty"`
	Field  string          `json:"field,omitempty"`
	Issues []pricing.Issue `json:"issues,omitempty"`
}

// respondError maps pipeline errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *pricing.ValidationError
	var rerr submission.ErrInvalidRequest
	var terr *submission.InvalidTransitionError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "validation_failed", Issues: verr.Issues})
	case errors.As(err, &rerr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid_request", Field: rerr.Field})
	case errors.Is(err, submission.ErrCouponInvalid):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "coupon_invalid", Field: "coupon_code"})
	case errors.Is(err, submission.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.As(err, &terr), errors.Is(err, submission.ErrEditNotAllowed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, submission.ErrDuplicateService),
		errors.Is(err, submission.ErrUnknownPackage),
		errors.Is(err, submission.ErrPackageNotSelected):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
}
