package handler

import (
	"errors"
	"net/http"

	"invoicehub/internal/billing"
	"invoicehub/internal/logger"
	"invoicehub/internal/middleware"
	"invoicehub/internal/service"
	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError maps service and engine errors onto the response envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case billing.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.ValidationError(http.StatusBadRequest, "Validation failed", billing.Fields(err)))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotEditable),
		errors.Is(err, billing.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		_ = c.Error(err)
		log := logger.WithComponent("http")
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// bindJSON decodes the body, writing a 400 on malformed JSON.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// owner returns the authenticated owner, writing a 401 when missing.
func owner(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.OwnerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return uuid.Nil, false
	}
	return id, true
}
