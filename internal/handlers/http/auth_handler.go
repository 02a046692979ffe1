package http

import (
	"net/http"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	profiles ports.ProfileService
}

func NewAuthHandler(profiles ports.ProfileService) *AuthHandler {
	return &AuthHandler{profiles: profiles}
}

// SetupRoutes registers the public auth routes on api and the profile
// routes on the authenticated group.
func (h *AuthHandler) SetupRoutes(api, authed *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}

	profile := authed.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PATCH("", h.UpdateProfile)
		profile.PUT("/settings", h.UpdateSettings)
	}
}

type LoginResponse struct {
	Profile *domain.Profile `json:"profile"`
	Token   string          `json:"token"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req ports.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	profile, token, err := h.profiles.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Profile: profile, Token: token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.profiles.Logout(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports whether someone is signed in on this board.
func (h *AuthHandler) Session(c *gin.Context) {
	profile, err := h.profiles.Load(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "profile": profile})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Load(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if profile == nil {
		c.Error(domain.ErrProfileNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var update domain.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), update)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type SettingsRequest struct {
	Settings domain.ProfileSettings `json:"settings"`
	Color    string                 `json:"color"`
}

func (h *AuthHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	profile, err := h.profiles.UpdateSettings(c.Request.Context(), req.Settings, req.Color)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
