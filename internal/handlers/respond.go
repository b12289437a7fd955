// Package handlers maps HTTP requests onto the service layer and service
// failures back onto status codes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jame-iro/agrolink-backend/internal/service"
)

func statusOf(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidState, service.KindInsufficientStock:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for a service failure. Unexpected causes
// stay out of the body; only the short message crosses the boundary.
func fail(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		c.JSON(statusOf(se.Kind), gin.H{"error": se.Msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
}
