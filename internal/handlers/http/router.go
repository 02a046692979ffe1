package http

import (
	"net/http"
	"time"

	"drawboard/internal/core/ports"
	"drawboard/internal/core/services"
	"drawboard/internal/infrastructure/middleware"
	"drawboard/internal/infrastructure/monitoring"
	"drawboard/internal/infrastructure/signal"
	"drawboard/pkg/config"
	"drawboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config        *config.Config
	Auth          services.AuthService
	Profiles      ports.ProfileService
	Board         ports.BoardService
	Collaboration ports.CollaborationService
	Snapshots     ports.SnapshotService     // nil when snapshots are disabled
	Hub           *signal.WebSocketServer   // nil disables /ws
	Health        *monitoring.HealthChecker // nil skips readiness checks
	Logger        *zap.Logger
}

// NewRouter wires middleware and every route under /api/v1 plus the ops
// endpoints at the root.
func NewRouter(deps RouterDeps) *gin.Engine {
	sugar := deps.Logger.Sugar()

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(sugar),
		middleware.TracingMiddleware(),
		middleware.RequestLogger(logger.NewContextLogger(deps.Logger)),
		middleware.ErrorHandlerMiddleware(sugar),
		middleware.NewHTTPRateLimitMiddleware(deps.Config),
	)

	api := router.Group("/api/v1")
	requireSession := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.Auth),
		middleware.SessionMiddleware(deps.Profiles),
	}
	authed := api.Group("", requireSession...)

	NewAuthHandler(deps.Profiles).SetupRoutes(api, authed)
	NewBoardHandler(deps.Board, deps.Snapshots).SetupRoutes(authed)
	NewCollaborationHandler(deps.Collaboration, deps.Config.Server.PublicURL).SetupRoutes(authed)

	if deps.Hub != nil {
		hub := deps.Hub
		handlers := append(requireSession, func(c *gin.Context) {
			userID, _ := middleware.UserID(c)
			hub.HandleWebSocket(c.Writer, c.Request, string(userID))
		})
		router.GET("/ws", handlers...)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
	})
	router.GET("/ready", func(c *gin.Context) {
		if deps.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
			return
		}
		status := deps.Health.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if deps.Config.Monitoring.PrometheusEnabled {
		router.GET(deps.Config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	return router
}
