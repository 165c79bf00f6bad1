package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-api/internal/domain"
)

// statusFor maps a domain error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": err.Error()})
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
