// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/config"
	"github.com/varchas/website/internal/ratelimit"
	"github.com/varchas/website/internal/scheduler"
	"github.com/varchas/website/internal/teamreg"
)

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// deps is everything the router needs that outlives a single request.
type deps struct {
	config   *config.Config
	catalog  *catalog.Catalog
	backend  *backend.Client
	sessions *auth.SessionStore
	limiter  *ratelimit.Limiter
	forms    *teamreg.Store
}

func buildDeps(cfg *config.Config) (*deps, error) {
	cat, err := loadCatalog(cfg.Registration.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	sessions, err := auth.NewSessionStore(auth.SessionOptions{
		SecretKey: cfg.App.SecretKey,
		Secure:    cfg.Session.Secure,
		TTL:       cfg.Session.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		MaxAttempts:  cfg.RateLimit.MaxAttempts,
		Lockout:      cfg.RateLimit.Lockout,
		MaxIPPerHour: cfg.RateLimit.MaxIPPerHour,
		TrustProxy:   cfg.RateLimit.TrustProxy,
	})

	forms := teamreg.NewStore(cat, client, teamreg.Options{
		AutoCloseDelay: cfg.Registration.AutoCloseDelay,
		TTL:            cfg.Registration.FormTTL,
	})

	return &deps{
		config:   cfg,
		catalog:  cat,
		backend:  client,
		sessions: sessions,
		limiter:  limiter,
		forms:    forms,
	}, nil
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	d, err := buildDeps(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get scheduler instance")
	}
	if _, err := svc.AddSweepJob(cfg.Registration.SweepSchedule, nil, scheduler.SweepTargets{
		Forms:    d.forms,
		Sessions: d.sessions,
		Logins:   d.limiter,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sweep job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Create server instance
	server := newServer(d)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().
			Int("port", cfg.App.Port).
			Str("backend", cfg.Backend.URL).
			Int("sports", len(d.catalog.Sports)).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
