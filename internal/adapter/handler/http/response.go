package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error" example:"Bike not found"`
}

type messageResponse struct {
	Message string `json:"message" example:"Bike deleted successfully"`
}

type partialFailureResponse struct {
	Error           string    `json:"error"`
	SettlementID    uuid.UUID `json:"settlementId"`
	OrphanBikeID    int64     `json:"orphanBikeId"`
	OrphanRefNumber string    `json:"orphanRefNumber"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Error: message})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		c.AbortWithStatusJSON(http.StatusConflict, partialFailureResponse{
			Error:           "Sale partially applied, settlement needs reconciliation",
			SettlementID:    partial.SettlementID,
			OrphanBikeID:    partial.OrphanBikeID,
			OrphanRefNumber: partial.OrphanRefNumber,
		})
		return
	}

	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	newErrorResponse(c, status, message)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		newErrorResponse(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
