package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/services"
	"drawboard/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func authRouter(auth services.AuthService, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", mw, func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, string(id))
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("secret", time.Hour)
	token, err := auth.GenerateToken(domain.UserID("42"), "Dana")
	require.NoError(t, err)
	router := authRouter(auth, AuthMiddleware(auth))

	w := get(router, "/me", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = get(router, "/me?token="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, h := range []http.Header{
		nil,
		{"Authorization": {"Basic abc"}},
		{"Authorization": {"Bearer nope"}},
	} {
		w = get(router, "/me", h)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	}
}

func TestSessionMiddleware(t *testing.T) {
	ctx := context.Background()
	auth := services.NewAuthService("secret", time.Hour)
	profiles := services.NewProfileService(memory.NewMemoryKeyValueStore(), auth, services.ProfileConfig{}, zaptest.NewLogger(t).Sugar())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", AuthMiddleware(auth), SessionMiddleware(profiles), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	profile, token, err := profiles.Login(ctx, ports.LoginRequest{Name: "Dana", Email: "dana@example.com"})
	require.NoError(t, err)
	bearer := http.Header{"Authorization": {"Bearer " + token}}

	w := get(router, "/me", bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	// a token for someone other than the stored user
	other, err := auth.GenerateToken(domain.UserID(profile.ID+"0"), "Eve")
	require.NoError(t, err)
	w = get(router, "/me", http.Header{"Authorization": {"Bearer " + other}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, profiles.Logout(ctx))
	w = get(router, "/me", bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session has ended")
}
