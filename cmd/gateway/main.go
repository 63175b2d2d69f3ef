// Command gateway runs the hustleboard API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/hustleboard/hustleboard/internal/app"
	"github.com/hustleboard/hustleboard/internal/app/metrics"
	"github.com/hustleboard/hustleboard/internal/app/services/watcher"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/app/storage/postgres"
	"github.com/hustleboard/hustleboard/internal/app/storage/rediscache"
	supastore "github.com/hustleboard/hustleboard/internal/app/storage/supabase"
	"github.com/hustleboard/hustleboard/internal/app/system"
	"github.com/hustleboard/hustleboard/internal/config"
	"github.com/hustleboard/hustleboard/internal/logging"
	"github.com/hustleboard/hustleboard/internal/supabase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logging.New("gateway", logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	application, cleanup, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	if err := application.Start(ctx, errCh); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("http server failed")
	}

	return application.Stop(context.Background())
}

func build(cfg *config.Config, log *logging.Logger) (*app.Application, func(), error) {
	cleanup := func() {}
	var stores app.Stores
	var opts app.Options

	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")

	case "postgres":
		store, err := postgres.Open(cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { store.Close() }
		stores = app.Stores{Users: store, Projects: store, Sessions: store, Ledger: store}

	case "supabase":
		client, err := supabase.New(supabase.Config{
			URL:    cfg.Storage.Supabase.URL,
			APIKey: cfg.Storage.Supabase.APIKey,
			HTTPClient: supabase.NewResilientDoer(nil, supabase.DefaultRetryConfig(),
				supabase.NewCircuitBreaker(supabase.DefaultCircuitBreakerConfig())),
		})
		if err != nil {
			return nil, nil, err
		}
		store := supastore.New(client)
		stores = app.Stores{Users: store, Projects: store, Sessions: store, Ledger: store}
	}

	if cfg.Redis.Enabled {
		if stores.Users == nil {
			stores.Users = memory.NewUserStore()
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		stores.Users = rediscache.NewUserStore(stores.Users, rdb, log.WithField("service", "rediscache"))
		prev := cleanup
		cleanup = func() {
			rdb.Close()
			prev()
		}
	}

	if cfg.Storage.Backend == "supabase" && cfg.Storage.Supabase.Realtime {
		rt := supabase.NewRealtimeClient(cfg.Storage.Supabase.URL, cfg.Storage.Supabase.APIKey)
		opts.SessionWatcher = func(m *metrics.Registry) system.Service {
			return watcher.New(rt, m, log.WithField("service", "watcher"))
		}
	}

	return app.New(cfg, stores, opts, log), cleanup, nil
}
