package middleware

import (
	"errors"
	"net/http"

	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// AdminOnly gates a route group to accounts flagged as admins. It must
// run after the session middleware.
func AdminOnly(us service.UserServiceI) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		session, ok := auth.SessionFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := us.GetUserByID(c.Request.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
				return
			}
			log.Error("failed to resolve account for admin check", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}
