package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/models"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// SessionTokenKey holds the bearer token of the current request
const SessionTokenKey = "session_token"

// UserContext represents the authenticated admin's information
type UserContext struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) (string, *apperr.Error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperr.Unauthorized("MISSING_AUTH_HEADER", "Authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperr.Unauthorized("INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperr.Unauthorized("INVALID_AUTH_FORMAT", "Token cannot be empty")
	}
	return token, nil
}

// VerifyAdmin creates a middleware that only lets requests with a live admin session through
func VerifyAdmin(auth Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, appErr := bearerToken(c)
		if appErr != nil {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
				"code": appErr.Code,
			}).Warn("Admin auth failed")
			abortWithError(c, http.StatusUnauthorized, appErr.Code, appErr.Message)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindUnauthorized {
				logger.WithFields(logrus.Fields{
					"path": c.Request.URL.Path,
					"ip":   c.ClientIP(),
					"code": appErr.Code,
				}).Warn("Admin auth failed")
				abortWithError(c, http.StatusUnauthorized, appErr.Code, appErr.Message)
				return
			}
			logger.WithError(err).Error("Session lookup failed")
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.FullName(),
		})
		c.Set(SessionTokenKey, token)
		c.Set("user_id", user.ID.String())

		c.Next()
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics (use only after VerifyAdmin)
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - ensure VerifyAdmin is applied")
	}
	return userCtx
}

// GetSessionToken returns the bearer token VerifyAdmin accepted
func GetSessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
