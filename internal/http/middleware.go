package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
)

const currentUserKey = "currentUser"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger emits one entry per request once the handler chain is done.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last().Err)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return h.requireRole(domain.RoleAdmin)
}

func (h *Handler) requireEditor() gin.HandlerFunc {
	return h.requireRole(domain.RoleEditor, domain.RoleAdmin)
}

// requireUser only authenticates; any role passes.
func (h *Handler) requireUser() gin.HandlerFunc {
	return h.requireRole()
}

func (h *Handler) requireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithMessage(c, http.StatusBadRequest, "Authorization Header Missing")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithMessage(c, http.StatusBadRequest, "Invalid jwtToken")
			return
		}

		claims, err := h.tokens.VerifyToken(strings.TrimSpace(token), auth.PurposeSession)
		if err != nil {
			abortWithMessage(c, http.StatusBadRequest, "Invalid jwtToken")
			return
		}

		user, err := h.accounts.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				abortWithMessage(c, http.StatusBadRequest, "Invalid jwtToken")
				return
			}
			writeError(c, err)
			return
		}

		if len(allowed) > 0 && !hasRole(user, allowed) {
			abortWithMessage(c, http.StatusForbidden, "Access Denied")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func hasRole(user *domain.User, allowed []domain.Role) bool {
	for _, r := range allowed {
		if user.Role == r {
			return true
		}
	}
	return false
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
