// Package server provides the EventDP HTTP API: event listing and
// creation, flyer upload and thumbnails, DP render/export and share QR
// codes.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xob0t/eventdp/pkg/compose"
	"github.com/xob0t/eventdp/pkg/store"
)

// Deps are the collaborators a Server works with.
type Deps struct {
	Events    store.EventRepository
	Flyers    *store.FlyerStore
	Artifacts store.ArtifactStore // nil: save=true is rejected
	Fonts     *compose.FontManager
	Verify    TokenVerifier // nil: organizer routes answer 503
	Logger    *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg       Config
	events    store.EventRepository
	flyers    *store.FlyerStore
	artifacts store.ArtifactStore
	fonts     *compose.FontManager
	verify    TokenVerifier
	log       *slog.Logger
	metrics   *metrics
	limiter   *rateLimiter
}

// NewServer wires a server from explicit dependencies.
func NewServer(cfg Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	fonts := deps.Fonts
	if fonts == nil {
		fonts = compose.NewFontManager(cfg.FontDir)
	}
	return &Server{
		cfg:       cfg,
		events:    deps.Events,
		flyers:    deps.Flyers,
		artifacts: deps.Artifacts,
		fonts:     fonts,
		verify:    deps.Verify,
		log:       log,
		metrics:   newMetrics(),
		limiter:   newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// New builds the production dependencies described by cfg.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Server, error) {
	deps := Deps{Logger: log, Fonts: compose.NewFontManager(cfg.FontDir)}

	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := store.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		deps.Events = repo
		log.Info("connected to PostgreSQL")
	} else {
		deps.Events = store.NewMemoryRepository()
		log.Warn("DATABASE_URL not set, events are kept in memory")
	}

	flyers, err := store.NewFlyerStore(cfg.FlyerDir, cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	deps.Flyers = flyers

	if cfg.DriveFolderID != "" && cfg.GoogleCredentials != "" {
		drive, err := store.NewDriveArtifactStore(ctx, cfg.GoogleCredentials, cfg.DriveFolderID)
		if err != nil {
			return nil, err
		}
		deps.Artifacts = drive
		log.Info("exports are saved to Google Drive", "folder", cfg.DriveFolderID)
	} else {
		local, err := store.NewLocalArtifactStore(cfg.ArtifactDir)
		if err != nil {
			return nil, err
		}
		deps.Artifacts = local
	}

	if cfg.ClerkSecretKey != "" {
		clerk.SetKey(cfg.ClerkSecretKey)
		deps.Verify = ClerkVerifier
	} else {
		log.Warn("CLERK_SECRET_KEY not set, organizer routes are disabled")
	}

	return NewServer(cfg, deps), nil
}

// Router returns the full handler chain.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.limiter.middleware)
	r.Use(s.monitor)

	if s.cfg.MetricsUser != "" {
		r.Handle("/metrics", s.basicAuth(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))).Methods("GET")
	}
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/events", s.handleListEvents).Methods("GET")
	api.Handle("/events", s.requireOrganizer(s.handleCreateEvent)).Methods("POST")
	api.HandleFunc("/events/{id}", s.handleGetEvent).Methods("GET")
	api.HandleFunc("/events/{id}/flyer", s.handleGetFlyer).Methods("GET")
	api.Handle("/events/{id}/flyer", s.requireOrganizer(s.handleUploadFlyer)).Methods("PUT")
	api.HandleFunc("/events/{id}/qr", s.handleQR).Methods("GET")
	api.HandleFunc("/events/{id}/render", s.handleRender).Methods("POST")
	api.HandleFunc("/events/{id}/export", s.handleExport).Methods("POST")
	api.HandleFunc("/artifacts/{id}", s.handleGetArtifact).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
	)
	return corsHandler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.events.Close()

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.limiter.cleanup(cleanupCtx)

	server := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("EventDP API listening", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// RunServe starts the API server with configuration from the environment.
// --port overrides PORT.
func RunServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", "", "listen port (default $PORT or 8080)")
	fs.StringVar(port, "p", "", "listen port (shorthand)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	compose.SetLogger(log)
	store.SetLogger(log)

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s, err := New(initCtx, cfg, log)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
