package http

import (
	"net/http"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CollaborationHandler struct {
	collab    ports.CollaborationService
	publicURL string
}

// NewCollaborationHandler builds the collaboration routes. publicURL is the
// share link base used when the caller does not pass one.
func NewCollaborationHandler(collab ports.CollaborationService, publicURL string) *CollaborationHandler {
	return &CollaborationHandler{collab: collab, publicURL: publicURL}
}

func (h *CollaborationHandler) SetupRoutes(authed *gin.RouterGroup) {
	collab := authed.Group("/collaboration")
	{
		collab.POST("/invite", h.Invite)
		collab.DELETE("/collaborators/:id", h.Remove)
		collab.GET("/share-link", h.ShareLink)
		collab.POST("/toggle", h.Toggle)
		collab.PUT("/mode", h.SetMode)
		collab.POST("/lock", h.ToggleLock)
	}
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,max=254"`
}

func (h *CollaborationHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("email is required"))
		return
	}

	collaborator, err := h.collab.Invite(c.Request.Context(), req.Email)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, collaborator)
}

func (h *CollaborationHandler) Remove(c *gin.Context) {
	if err := h.collab.Remove(c.Request.Context(), domain.UserID(c.Param("id"))); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CollaborationHandler) ShareLink(c *gin.Context) {
	base := c.DefaultQuery("base", h.publicURL)
	link, err := h.collab.ShareLink(c.Request.Context(), base)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *CollaborationHandler) Toggle(c *gin.Context) {
	if err := h.collab.Toggle(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ModeRequest struct {
	Mode domain.CollaborationMode `json:"mode" binding:"required"`
}

func (h *CollaborationHandler) SetMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("mode is required"))
		return
	}
	if err := h.collab.SetMode(c.Request.Context(), req.Mode); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CollaborationHandler) ToggleLock(c *gin.Context) {
	if err := h.collab.ToggleLock(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
