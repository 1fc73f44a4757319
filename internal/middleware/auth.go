package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/auth"
	"github.com/lalith-99/minicrm/internal/observ"
	"go.uber.org/zap"
)

// Context keys for the claims stored in gin.Context.
const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
)

// LoginPath is where clients are sent when a request has no identity.
const LoginPath = "/login"

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    msg,
		"redirect": LoginPath,
	})
}

// AuthMiddleware validates the Bearer access token and stores its claims
// in the request context. Any failure aborts with 401.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		// "Bearer eyJhbG..."
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, "invalid authorization format, expected: Bearer <token>")
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)

		ctx := c.Request.Context()
		logger := observ.LoggerFrom(ctx, zap.NewNop()).With(zap.String("user_id", claims.UserID.String()))
		c.Request = c.Request.WithContext(observ.WithLogger(ctx, logger))

		c.Next()
	}
}

// GetUserID returns uuid.Nil when the request is unauthenticated.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetEmail(c *gin.Context) string {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}
