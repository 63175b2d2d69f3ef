// Package app wires stores, services, and the HTTP surface into one
// runnable application.
package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hustleboard/hustleboard/internal/app/httpapi"
	"github.com/hustleboard/hustleboard/internal/app/metrics"
	"github.com/hustleboard/hustleboard/internal/app/services/aggregates"
	"github.com/hustleboard/hustleboard/internal/app/services/finance"
	"github.com/hustleboard/hustleboard/internal/app/services/identity"
	"github.com/hustleboard/hustleboard/internal/app/services/projects"
	"github.com/hustleboard/hustleboard/internal/app/services/streaks"
	"github.com/hustleboard/hustleboard/internal/app/services/tracker"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/app/storage/memory"
	"github.com/hustleboard/hustleboard/internal/app/system"
	"github.com/hustleboard/hustleboard/internal/config"
	"github.com/hustleboard/hustleboard/internal/logging"
	"github.com/hustleboard/hustleboard/internal/middleware"
)

// Stores bundles the persistence backends. Nil fields default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Projects storage.ProjectStore
	Sessions storage.SessionStore
	Ledger   storage.LedgerStore
}

func (s *Stores) fillDefaults() {
	if s.Users == nil {
		s.Users = memory.NewUserStore()
	}
	if s.Projects == nil {
		s.Projects = memory.NewProjectStore()
	}
	if s.Sessions == nil {
		s.Sessions = memory.NewSessionStore()
	}
	if s.Ledger == nil {
		s.Ledger = memory.NewLedgerStore()
	}
}

// Application is the assembled gateway.
type Application struct {
	Identity *identity.Service
	Projects *projects.Service
	Tracker  *tracker.Service
	Finance  *finance.Service
	Metrics  *metrics.Registry
	Router   *mux.Router

	manager *system.Manager
	server  *http.Server
	cfg     *config.Config
	log     *logging.Logger
}

// Options customize assembly beyond configuration.
type Options struct {
	// Verifier replaces the signature verifier; nil keeps the
	// permissive development verifier.
	Verifier identity.Verifier
	// Clock replaces the session clock; nil uses the wall clock.
	Clock tracker.Clock
	// SessionWatcher builds the realtime watcher once the metrics
	// registry exists; nil disables it.
	SessionWatcher func(*metrics.Registry) system.Service
}

// New assembles the application.
func New(cfg *config.Config, stores Stores, opts Options, log *logging.Logger) *Application {
	stores.fillDefaults()

	m := metrics.New()
	recorder := aggregates.NewRecorder(stores.Projects, log)
	sessionHook := tracker.Hooks(recorder, metrics.NewSessionHook(m))

	idSvc := identity.NewService(stores.Users, opts.Verifier, identity.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, log.WithField("service", "identity"))
	projSvc := projects.NewService(stores.Projects, stores.Sessions, stores.Ledger, stores.Users, log.WithField("service", "projects"))
	trkSvc := tracker.NewService(stores.Sessions, stores.Projects, opts.Clock, sessionHook, log.WithField("service", "tracker"))
	finSvc := finance.NewService(stores.Ledger, stores.Projects, recorder, log.WithField("service", "finance"))

	manager := system.NewManager(log)
	manager.Register(streaks.NewRefresher(stores.Users, stores.Sessions, cfg.Streaks.Schedule, log.WithField("service", "streaks")))
	if opts.SessionWatcher != nil {
		manager.Register(opts.SessionWatcher(m))
	}

	router := mux.NewRouter()
	router.Use(middleware.Tracing(log))
	router.Use(middleware.CORS(cfg.Server.CORSOrigin))
	// Metrics sits outside Auth and the limiter so 401s and 429s
	// show up in the request counters.
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Auth(idSvc, "/v1/auth/", "/healthz", "/metrics"))
	router.Use(middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst).Middleware)

	handler := httpapi.New(idSvc, projSvc, trkSvc, finSvc, log.WithField("service", "httpapi"))
	handler.Routes(router)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Routes above match exact methods, and mux runs Use middleware
	// only on matched routes. Preflights need their own matcher or
	// they land on the 405 handler with no CORS headers.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	return &Application{
		Identity: idSvc,
		Projects: projSvc,
		Tracker:  trkSvc,
		Finance:  finSvc,
		Metrics:  m,
		Router:   router,
		manager:  manager,
		cfg:      cfg,
		log:      log,
	}
}

// Start launches the background services and the HTTP server. It
// returns once the listener is up; ListenAndServe errors surface on
// errCh.
func (a *Application) Start(ctx context.Context, errCh chan<- error) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	a.server = &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	go func() {
		a.log.WithField("addr", a.cfg.Server.Addr).Info("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return nil
}

// Stop drains the HTTP server and stops background services.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
	}
	if err := a.manager.Stop(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
