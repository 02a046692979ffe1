package middleware

import (
	"strings"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/services"
	"drawboard/pkg/errors"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// bearerToken returns the token from the Authorization header, falling
// back to the token query parameter that browsers use for websocket
// upgrades.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWith(c, errors.NewUnauthorizedError("bearer token required"))
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			abortWith(c, errors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// SessionMiddleware ties a validated token to the signed-in profile. A
// token stops working once its user logs out or someone else logs in, even
// before it expires. It must run after AuthMiddleware.
func SessionMiddleware(profiles ports.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abortWith(c, errors.NewUnauthorizedError("bearer token required"))
			return
		}

		profile, err := profiles.Load(c.Request.Context())
		if err != nil {
			abortWith(c, ToAppError(err))
			return
		}
		if profile == nil || profile.ID != string(userID) {
			abortWith(c, errors.NewUnauthorizedError("session has ended"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (domain.UserID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(domain.UserID)
	return id, ok
}

func abortWith(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"error":   string(appErr.Code),
		"message": appErr.Message,
	})
}

