package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehail/backend/internal/logutil"
	"github.com/ridehail/backend/internal/model"
	"github.com/ridehail/backend/internal/service"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUnauthorized       = "Unauthorized"
	msgUnavailable        = "Service unavailable"
	msgServerError        = "Internal server error"
	msgInvalidInput       = "Invalid input"
)

// writeAuthError is the only place service errors become HTTP responses.
// Internal detail is logged, never returned.
func writeAuthError(c *gin.Context, role model.Role, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, model.MessageResponse{Message: msgInvalidInput})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, model.MessageResponse{Message: role.Title() + " already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, model.MessageResponse{Message: msgInvalidCredentials})
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, model.MessageResponse{Message: msgUnauthorized})
	case errors.Is(err, service.ErrUnavailable):
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Err(err).Str("role", string(role)).Msg("auth backend unavailable")
		c.JSON(http.StatusServiceUnavailable, model.MessageResponse{Message: msgUnavailable})
	default:
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Err(err).Str("role", string(role)).Msg("unexpected auth error")
		c.JSON(http.StatusInternalServerError, model.MessageResponse{Message: msgServerError})
	}
}
