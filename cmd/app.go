package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/cache"
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/config"
	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/events"
	"github.com/abhisek/pylearn/internal/metrics"
	"github.com/abhisek/pylearn/internal/store"
)

// connectTimeout bounds the Redis handshake at startup.
const connectTimeout = 5 * time.Second

// app holds the wired runtime shared by the commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	catalog  *catalog.Catalog
	store    store.Store
	cache    *cache.Leaderboard
	registry *prometheus.Registry
	engine   *engine.Engine

	closers []func() error
}

// openOptions selects the optional collaborators a command needs.
type openOptions struct {
	// services connects the Redis leaderboard cache and the RabbitMQ
	// publisher when configured. Read-only commands skip them.
	services bool
}

func openApp(cmd *cobra.Command, opts openOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cfg.Store.Backend, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		catalog:  cat,
		store:    s,
		registry: prometheus.NewRegistry(),
	}
	a.closers = append(a.closers, s.Close)
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eopts := engine.Options{
		Catalog: cat,
		Store:   s,
		Metrics: metrics.New(a.registry),
		Logger:  log,
	}

	if opts.services {
		if cfg.Redis.URL != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
			lb, err := cache.Connect(ctx, cfg.Redis.URL)
			cancel()
			if err != nil {
				log.Warn("leaderboard cache unavailable, reading from store", "err", err)
			} else {
				a.cache = lb
				a.closers = append(a.closers, lb.Close)
				eopts.Leaderboard = lb
			}
		}

		pub, err := events.NewRabbitPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Warn("event publishing disabled", "err", err)
		} else {
			a.closers = append(a.closers, pub.Close)
			eopts.Publisher = pub
		}
	}

	eng, err := engine.New(eopts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = eng
	return a, nil
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
