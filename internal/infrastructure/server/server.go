// Package server wires the desktop backend together and runs the HTTP
// surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/agencyrpg/backend/internal/api/http"
	"github.com/agencyrpg/backend/internal/api/middleware"
	"github.com/agencyrpg/backend/internal/api/ws"
	"github.com/agencyrpg/backend/internal/domain/chat"
	"github.com/agencyrpg/backend/internal/domain/conduct"
	"github.com/agencyrpg/backend/internal/domain/ending"
	"github.com/agencyrpg/backend/internal/domain/ledger"
	"github.com/agencyrpg/backend/internal/domain/mail"
	"github.com/agencyrpg/backend/internal/domain/notify"
	"github.com/agencyrpg/backend/internal/domain/window"
	"github.com/agencyrpg/backend/internal/infrastructure/config"
	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/narrative/schedule"
	"github.com/agencyrpg/backend/internal/providers/ai"
	"github.com/agencyrpg/backend/internal/providers/catalog"
)

// Server wraps the HTTP server and all desktop subsystems.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	hub        *ws.Hub
	schedulers []*schedule.Scheduler
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	done       chan struct{}
	stopRate   func()
}

// New creates a server instance with every subsystem wired.
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing agency desktop backend",
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Data.Dir),
	)

	metrics := monitoring.NewMetrics()

	var store persist.Store
	diskStore, err := persist.NewDiskStore(cfg.Data.Dir, logger)
	if err != nil {
		logger.Warn("data dir unavailable, state will not survive restarts", zap.Error(err))
		store = persist.NewMemoryStore()
	} else {
		store = diskStore
	}

	appCatalog, err := catalog.Load("")
	if err != nil {
		return nil, fmt.Errorf("failed to load app catalog: %w", err)
	}

	hub := ws.NewHub(logger).WithMetrics(metrics)

	// One scheduler per subsystem that owns timed narrative beats, so
	// each can be drained independently.
	chatSched := schedule.New()
	mailSched := schedule.New()
	conductSched := schedule.New()

	funds := ledger.New(store, hub, logger)
	chatSvc := chat.NewService(store, chatSched, hub)
	mailSvc := mail.NewService(store, mailSched, hub)
	windows := window.NewManager(appCatalog, store, hub, logger).WithMetrics(metrics)
	toasts := notify.NewQueue(store, hub).WithMetrics(metrics)
	endings := ending.NewOrchestrator(store, hub, logger).WithMetrics(metrics)
	conductMachine := conduct.NewMachine(
		chatSvc, mailSvc, windows, funds, endings,
		conductSched, store, hub, logger,
	).WithMetrics(metrics)

	aiProxy := ai.NewProxy(cfg.AI, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(nil))
	router.Use(monitoring.Middleware(metrics))
	var stopRateLimit func()
	if cfg.RateLimit.Enabled {
		limiter, stop := middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		router.Use(limiter)
		stopRateLimit = stop
	}

	handlers := apihttp.NewHandlers(
		windows, toasts, conductMachine, endings,
		chatSvc, mailSvc, funds, aiProxy, appCatalog, store,
	)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", hub.HandleConnection)

	// Window manager
	router.GET("/windows", handlers.ListWindows)
	router.POST("/windows", handlers.OpenWindow)
	router.POST("/windows/focus-or-open", handlers.FocusOrOpenWindow)
	router.POST("/windows/:id/focus", handlers.FocusWindow)
	router.POST("/windows/:id/minimize", handlers.MinimizeWindow)
	router.POST("/windows/:id/maximize", handlers.MaximizeWindow)
	router.POST("/windows/:id/restore", handlers.RestoreWindow)
	router.PUT("/windows/:id/position", handlers.UpdateWindowPosition)
	router.PUT("/windows/:id/size", handlers.UpdateWindowSize)
	router.DELETE("/windows/:id", handlers.CloseWindow)
	router.GET("/apps", handlers.ListApps)

	// Notifications
	router.GET("/notifications", handlers.ListNotifications)
	router.POST("/notifications", handlers.PushNotification)
	router.DELETE("/notifications/:id", handlers.RemoveNotification)

	// Conduct
	router.GET("/conduct", handlers.GetConduct)
	router.POST("/conduct/incidents", handlers.ReportIncident)
	router.POST("/conduct/positive", handlers.ReportPositive)
	router.POST("/conduct/lawsuit", handlers.ResolveLawsuit)
	router.POST("/conduct/training/complete", handlers.CompleteTraining)

	// Ending
	router.GET("/ending", handlers.GetEnding)
	router.POST("/ending/start", handlers.StartEnding)
	router.POST("/ending/advance", handlers.AdvanceEnding)
	router.POST("/ending/acquisition", handlers.AdvanceAcquisition)

	// Narrative content
	router.GET("/chat/messages", handlers.GetTranscript)
	router.GET("/inbox", handlers.GetInbox)
	router.POST("/inbox/:id/read", handlers.MarkEmailRead)
	router.GET("/funds", handlers.GetFunds)

	// Game lifecycle
	router.POST("/game/reset", handlers.ResetGame)

	// AI proxies
	router.POST("/ai/sentiment", handlers.AnalyzeSentiment)
	router.POST("/ai/meme", handlers.GenerateMeme)

	srv := &Server{
		router:     router,
		hub:        hub,
		schedulers: []*schedule.Scheduler{chatSched, mailSched, conductSched},
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		done:       make(chan struct{}),
		stopRate:   stopRateLimit,
	}
	go srv.collectGauges()
	return srv, nil
}

// collectGauges refreshes the slow-moving gauges every few seconds.
func (s *Server) collectGauges() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.metrics.UpdateUptime()
			pending := 0
			for _, sched := range s.schedulers {
				pending += sched.Pending()
			}
			s.metrics.TasksPending.Set(float64(pending))
		}
	}
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("Server listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the server down gracefully: stop accepting requests,
// drain pending narrative timers, drop WebSocket clients.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	close(s.done)

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	for _, sched := range s.schedulers {
		sched.Stop()
	}
	if s.stopRate != nil {
		s.stopRate()
	}
	s.hub.Close()
	s.logger.Sync()
	return err
}
