// Package http serves the mission control REST API, health endpoints and metrics.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

// ReadinessCheck returns nil when a dependency is ready to serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// Option configures the handler.
type Option func(*routerConfig)

type routerConfig struct {
	checks       map[string]ReadinessCheck
	archives     ArchiveLinker
	linkExpiry   time.Duration
	maxBodyBytes int64
	clock        clock.PassiveClock
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(c *routerConfig) { c.checks[name] = check }
}

// WithArchiveLinks enables GET /api/v1/missions/{id}/archive.
func WithArchiveLinks(l ArchiveLinker) Option {
	return func(c *routerConfig) { c.archives = l }
}

// WithArchiveLinkExpiry sets how long issued archive links stay valid.
func WithArchiveLinkExpiry(d time.Duration) Option {
	return func(c *routerConfig) {
		if d > 0 {
			c.linkExpiry = d
		}
	}
}

// WithClock sets the clock used to compute archive link expiry.
func WithClock(c clock.PassiveClock) Option {
	return func(cfg *routerConfig) { cfg.clock = c }
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *routerConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

func NewServer(opts *options.HttpOptions, orch *orchestrator.Orchestrator, extra ...Option) *Server {
	handlerOpts := append([]Option{
		WithMaxBodyBytes(opts.MaxBodyBytes),
		WithArchiveLinkExpiry(opts.ArchiveLinkExpiry),
	}, extra...)

	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      NewHandler(orch, handlerOpts...),
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		options: opts,
	}
}

// NewHandler builds the router.
func NewHandler(orch *orchestrator.Orchestrator, extra ...Option) http.Handler {
	cfg := &routerConfig{
		checks:       map[string]ReadinessCheck{},
		linkExpiry:   defaultLinkExpiry,
		maxBodyBytes: defaultMaxBodyBytes,
		clock:        clock.RealClock{},
	}
	for _, o := range extra {
		o(cfg)
	}
	h := &handler{
		orch:         orch,
		archives:     cfg.archives,
		linkExpiry:   cfg.linkExpiry,
		maxBodyBytes: cfg.maxBodyBytes,
		clock:        cfg.clock,
	}

	r := mux.NewRouter()
	r.Use(instrument(log.WithName("http")))
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyz(cfg.checks)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Subrouters do not fall back to the parent's error handlers.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.HandleFunc("/missions", h.createMission).Methods(http.MethodPost)
	api.HandleFunc("/missions", h.listMissions).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}", h.missionStatus).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}/{event:start|abort|complete|fail}", h.transition).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/commands", h.sendCommand).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/commands/{cid}/execute", h.executeCommand).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/telemetry", h.addTelemetry).Methods(http.MethodPost)
	api.HandleFunc("/active-mission", h.activeMission).Methods(http.MethodGet)
	api.HandleFunc("/command-types", h.commandTypes).Methods(http.MethodGet)
	if cfg.archives != nil {
		api.HandleFunc("/missions/{id}/archive", h.archiveLink).Methods(http.MethodGet)
	}

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method " + r.Method + " not allowed"})
}

func readyz(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := map[string]string{}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, failed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve handles requests on lis until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log.Info("Starting HTTP Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.options.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
