package http

import (
	"net/http"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/session"
	"drawboard/pkg/errors"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	board     ports.BoardService
	snapshots ports.SnapshotService
}

// NewBoardHandler builds the board routes. snapshots may be nil when
// snapshots are disabled.
func NewBoardHandler(board ports.BoardService, snapshots ports.SnapshotService) *BoardHandler {
	return &BoardHandler{board: board, snapshots: snapshots}
}

func (h *BoardHandler) SetupRoutes(authed *gin.RouterGroup) {
	board := authed.Group("/board")
	{
		board.GET("/state", h.GetState)
		board.GET("/status", h.GetStatus)
		board.POST("/actions", h.Dispatch)

		board.POST("/pointer/down", h.PointerDown)
		board.POST("/pointer/move", h.PointerMove)
		board.POST("/pointer/up", h.PointerUp)

		board.GET("/canvas.png", h.CanvasPNG)
		board.GET("/canvas.pdf", h.CanvasPDF)

		if h.snapshots != nil {
			board.GET("/snapshots", h.ListSnapshots)
			board.POST("/snapshots", h.SaveSnapshot)
			board.POST("/snapshots/:name/restore", h.RestoreSnapshot)
		}
	}
}

func (h *BoardHandler) GetState(c *gin.Context) {
	state, err := h.board.State(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *BoardHandler) GetStatus(c *gin.Context) {
	status, err := h.board.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Dispatch accepts a wire action such as {"type":"SET_TOOL","payload":"erase"}.
func (h *BoardHandler) Dispatch(c *gin.Context) {
	var env session.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	action, err := session.Decode(env)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.board.Dispatch(c.Request.Context(), action); err != nil {
		c.Error(err)
		return
	}

	status, err := h.board.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *BoardHandler) PointerDown(c *gin.Context) {
	var p domain.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.Error(errors.NewInvalidInputError("invalid point"))
		return
	}
	if err := h.board.PointerDown(c.Request.Context(), p); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) PointerMove(c *gin.Context) {
	var p domain.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.Error(errors.NewInvalidInputError("invalid point"))
		return
	}
	if err := h.board.PointerMove(c.Request.Context(), p); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) PointerUp(c *gin.Context) {
	if err := h.board.PointerUp(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) CanvasPNG(c *gin.Context) {
	c.Header("Content-Type", "image/png")
	if err := h.board.RenderPNG(c.Request.Context(), c.Writer); err != nil {
		c.Error(err)
	}
}

func (h *BoardHandler) CanvasPDF(c *gin.Context) {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="drawing.pdf"`)
	if err := h.board.ExportPDF(c.Request.Context(), c.Writer); err != nil {
		c.Error(err)
	}
}

func (h *BoardHandler) ListSnapshots(c *gin.Context) {
	names, err := h.snapshots.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": names})
}

func (h *BoardHandler) SaveSnapshot(c *gin.Context) {
	name, err := h.snapshots.Save(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name})
}

func (h *BoardHandler) RestoreSnapshot(c *gin.Context) {
	if err := h.snapshots.Restore(c.Request.Context(), c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	status, err := h.board.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}
