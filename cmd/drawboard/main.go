package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drawboard/internal/core/ports"
	"drawboard/internal/core/presence"
	"drawboard/internal/core/render"
	"drawboard/internal/core/services"
	"drawboard/internal/core/session"
	httphandlers "drawboard/internal/handlers/http"
	backupsched "drawboard/internal/infrastructure/backup"
	"drawboard/internal/infrastructure/monitoring"
	"drawboard/internal/infrastructure/repositories"
	wssignal "drawboard/internal/infrastructure/signal"
	"drawboard/pkg/backup"
	"drawboard/pkg/config"
	"drawboard/pkg/logger"
	"drawboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// the logger depends on config, so this one goes to stderr
		os.Stderr.WriteString("drawboard: " + err.Error() + "\n")
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		os.Stderr.WriteString("drawboard: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "drawboard",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	repoFactory, err := repositories.NewRepositoryFactory(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	log.Infow("profile storage ready", "backend", repoFactory.Backend())

	var collector *monitoring.PrometheusCollector
	storeOpts := []session.Option{session.WithLogger(log.Named("session"))}
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)
		storeOpts = append(storeOpts, session.WithObserver(collector))
	}
	store := session.NewStore(storeOpts...)
	if collector != nil {
		if _, err := store.Subscribe(collector.ObserveEvent); err != nil {
			log.Fatalw("failed to subscribe metrics", "error", err)
		}
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	profileService := services.NewProfileService(repoFactory.KeyValueStore(), authService, services.ProfileConfig{
		Key:        cfg.Storage.ProfileKey,
		LoginDelay: cfg.Session.LoginDelay,
	}, log.Named("profile"))

	replayer := render.NewReplayer(cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Background)
	var renderObserver services.RenderObserver
	if collector != nil {
		renderObserver = collector
	}
	boardService := services.NewBoardService(store, replayer, renderObserver)
	collabService := services.NewCollaborationService(store, services.CollaborationConfig{
		InviteDelay: cfg.Session.InviteDelay,
	}, log.Named("collaboration"))

	var (
		snapshotService ports.SnapshotService
		scheduler       *backupsched.Scheduler
	)
	if cfg.Snapshots.Enabled {
		storage, err := backup.NewFileStorage(cfg.Snapshots.Directory)
		if err != nil {
			log.Fatalw("failed to open snapshot directory", "error", err)
		}
		snapshotService = services.NewSnapshotService(store, storage, version, log.Named("snapshots"))
		scheduler = backupsched.NewScheduler(snapshotService, profileService, store, backupsched.Config{
			Interval:  cfg.Snapshots.Interval,
			Retention: cfg.Snapshots.Retention,
		}, log.Named("autosave"))
		go scheduler.Start(ctx)
	}

	var simulator *presence.Simulator
	if cfg.Presence.Enabled {
		opts := []presence.Option{}
		if collector != nil {
			opts = append(opts, presence.WithObserver(collector))
		}
		simulator = presence.NewSimulator(store, presence.Config{
			Interval:          cfg.Presence.Interval,
			StrokeProbability: cfg.Presence.StrokeProbability,
		}, log.Named("presence"), opts...)
		go simulator.Start(ctx)
	}

	var connObserver wssignal.ConnObserver
	if collector != nil {
		connObserver = collector
	}
	hub := wssignal.NewWebSocketServer(store, boardService, wssignal.Options{
		PingInterval:      cfg.Signal.PingInterval,
		PongTimeout:       cfg.Signal.PongTimeout,
		WriteTimeout:      cfg.Signal.WriteTimeout,
		MaxMessageSize:    cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
		MessagesPerSecond: wsRate(cfg),
		Burst:             cfg.RateLimiting.WebSocket.Burst,
		AllowedOrigins:    cfg.Auth.AllowedOrigins,
	}, connObserver, log.Named("ws"))
	if err := hub.Start(); err != nil {
		log.Fatalw("failed to start websocket hub", "error", err)
	}

	health := monitoring.NewHealthChecker()
	health.AddPingCheck("storage", repoFactory, 30*time.Second, 2*time.Second)
	health.StartBackgroundChecks(ctx, log.Named("health"))

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httphandlers.NewRouter(httphandlers.RouterDeps{
		Config:        cfg,
		Auth:          authService,
		Profiles:      profileService,
		Board:         boardService,
		Collaboration: collabService,
		Snapshots:     snapshotService,
		Hub:           hub,
		Health:        health,
		Logger:        zapLogger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting drawboard server", "address", cfg.Server.Address, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if simulator != nil {
		simulator.Stop()
	}
	if scheduler != nil {
		scheduler.Stop()
		if _, err := scheduler.RunOnce(shutdownCtx); err != nil {
			log.Warnw("final autosave failed", "error", err)
		}
	}
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}
	store.Close()

	if err := repoFactory.Close(); err != nil {
		log.Errorw("error closing repository factory", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warnw("error flushing traces", "error", err)
	}
	log.Info("drawboard server stopped")
}

func wsRate(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}
