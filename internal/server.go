package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/config"
	"inventory-dashboard/internal/handlers"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/logging"
)

type Server struct {
	Config  *config.Config
	Router  *chi.Mux
	Backend inventory.Backend
	Store   auth.Store
	Guard   *auth.Guard
	Metrics *Metrics
	Logger  *zap.Logger

	now func() time.Time
}

// NewBackend selects the live products API or the in-memory mock
func NewBackend(cfg *config.Config, metrics *Metrics, logger *zap.Logger) (inventory.Backend, error) {
	switch cfg.DataSource {
	case config.DataSourceMock:
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
		if err := jwtManager.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("JWT configuration validation failed: %w", err)
		}
		mock, err := inventory.NewMockSource(jwtManager)
		if err != nil {
			return nil, err
		}
		return mock, nil
	case config.DataSourceLive:
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 16
		transport.IdleConnTimeout = 90 * time.Second
		opts := []client.Option{
			client.WithHTTPClient(&http.Client{Transport: transport}),
			client.WithTimeout(cfg.HTTPTimeout),
			client.WithLogger(logger),
		}
		if metrics != nil {
			opts = append(opts, client.WithObserver(metrics.ObserveUpstream))
		}
		return inventory.Live(client.New(cfg.APIBaseURL, opts...)), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// NewServer wires the dashboard routes over the configured data source
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics()
	backend, err := NewBackend(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	store := auth.NewCookieStore(cfg.SessionKey, cfg.IsProduction())
	s := &Server{
		Config:  cfg,
		Router:  chi.NewRouter(),
		Backend: backend,
		Store:   store,
		Guard:   auth.NewGuard(store, logger),
		Metrics: metrics,
		Logger:  logger,
		now:     time.Now,
	}
	s.routes()

	logger.Info("dashboard configured",
		zap.String("data_source", cfg.DataSource),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Bool("metrics", cfg.EnableMetrics),
	)
	return s, nil
}

func (s *Server) routes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(logging.Middleware(s.Logger))
	if s.Config.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
	}

	// Public routes
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get(auth.LoginPath, s.loginStatus)
	s.Router.Post(auth.LoginPath, s.loginUser)
	s.Router.Post("/logout", s.logoutUser)
	if s.Config.EnableMetrics {
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Group(func(r chi.Router) {
		r.Use(s.Guard.Middleware)
		s.mountProtectedRoutes(r)
	})
}

// mountProtectedRoutes mounts all routes that require a session
func (s *Server) mountProtectedRoutes(r chi.Router) {
	r.Get("/", s.dashboard)
	r.Get("/auth/profile", s.getUserProfile)

	r.Get("/api/items", s.listItems)
	r.Get("/api/items/departments", s.listDepartments)
	r.Get("/api/items/{id}", s.getItem)
	r.Post("/api/items", s.createItem)
	r.Put("/api/items/{id}", s.updateItem)
	r.Delete("/api/items/{id}", s.deleteItem)

	r.Get("/api/dashboard", s.dashboard)
	r.Get("/api/reports", s.reports)

	r.Get("/export/csv", s.exportCSV)
	r.Get("/export/xlsx", s.exportXLSX)
	r.Get("/export/pdf", s.exportPDF)

	importsHandler := handlers.NewImportsHandler(s.source, s.Guard.Unauthorized, s.Config.ImportMapping, s.Logger)
	r.Post("/imports/excel", importsHandler.UploadExcel)
}

// source is the collection bound to the requesting user's session
func (s *Server) source(r *http.Request) inventory.Source {
	return s.Backend.ForSession(auth.SessionFromContext(r.Context()))
}

// controller returns a controller for this request whose auth failures
// end the session
func (s *Server) controller(w http.ResponseWriter, r *http.Request) *inventory.Controller {
	c := inventory.NewController(s.source(r), s.Logger)
	c.OnUnauthorized = func() { s.Guard.Unauthorized(w, r) }
	return c
}

// loaded returns a controller holding the full collection, or writes the
// error and returns false
func (s *Server) loaded(w http.ResponseWriter, r *http.Request) (*inventory.Controller, bool) {
	c := s.controller(w, r)
	if err := c.Load(r.Context()); err != nil {
		sendError(w, err, nil)
		return nil, false
	}
	return c, true
}

// ListenAndServe runs the dashboard until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.ListenAddr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", s.Config.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
