package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/db"
	"github.com/aryanprajapat98/REMS/internal/handlers"
	"github.com/aryanprajapat98/REMS/internal/logger"
	"github.com/aryanprajapat98/REMS/internal/metrics"
	"github.com/aryanprajapat98/REMS/internal/mq"
	"github.com/aryanprajapat98/REMS/internal/notify"
	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/storage"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles the use-case layer the router dispatches to.
type Services struct {
	Auth      *services.AuthService
	Listings  *services.ListingService
	Leads     *services.LeadService
	Messages  *services.MessageService
	Dashboard *services.DashboardService
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	log        *zap.Logger
}

// New wires storage, the broker and the services, and constructs a Server.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	images, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if broker != nil {
		notifier = notify.NewMQNotifier(broker)
	}

	var imageStore services.ImageStore
	if images != nil {
		imageStore = images
		log.Info("listing images enabled", zap.String("backend", cfg.Storage.Backend), zap.String("bucket", images.Bucket()))
	}

	userRepo := store.NewUserRepository(dbConn)
	resetRepo := store.NewPasswordResetRepository(dbConn)
	listingRepo := store.NewListingRepository(dbConn)
	leadRepo := store.NewLeadRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)
	statsRepo := store.NewStatsRepository(dbConn)

	svc := Services{
		Auth:      services.NewAuthService(userRepo, resetRepo, notifier, log),
		Listings:  services.NewListingService(listingRepo, imageStore, cfg.Listings.AutoApprove, log),
		Leads:     services.NewLeadService(leadRepo, listingRepo, notifier, log),
		Messages:  services.NewMessageService(messageRepo, listingRepo, log),
		Dashboard: services.NewDashboardService(statsRepo, userRepo, listingRepo, log),
	}

	router := NewRouter(cfg.Auth, svc, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         broker,
		log:        log,
	}, nil
}

// NewRouter builds the HTTP routes over svc.
func NewRouter(authCfg config.AuthConfig, svc Services, log *zap.Logger) *chi.Mux {
	optionalAuth := handlers.OptionalAuth(authCfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(svc.Auth, authCfg.JWTSecret, authCfg.TokenTTL, log)
	listingHandler := handlers.NewListingHandler(svc.Listings, log)
	messageHandler := handlers.NewMessageHandler(svc.Messages, log)
	leadHandler := handlers.NewLeadHandler(svc.Leads, log)
	adminHandler := handlers.NewAdminHandler(svc.Dashboard, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.Middleware(log),
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Use(handlers.RateLimitPerIP(authCfg.RateLimitRPS, authCfg.RateLimitBurst))
		handlers.AuthRouter(r, authHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Route("/listings", func(r chi.Router) {
			handlers.ListingRouter(r, listingHandler, messageHandler)
		})
		r.Route("/leads", func(r chi.Router) {
			handlers.LeadRouter(r, leadHandler)
		})
		r.Get("/messages/unread-count", messageHandler.UnreadCount)
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, adminHandler)
		})
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the database and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			s.log.Warn("failed to close message queue", zap.Error(closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
