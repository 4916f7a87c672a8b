// Package server serves rendered templates over HTTP.
//
// Routes:
//
//	GET /healthz          liveness probe
//	GET /templates        identifiers known to the source, when it can list them
//	GET /render/{name}    render name; query parameters are key=value assignments
//	GET /events           server-sent events naming templates that changed
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// Config holds configuration for the server.
type Config struct {
	Engine *template.Engine
	Data   core.Context // base context for every render
	Addr   string
	Watch  bool   // invalidate cached templates when files under WatchDir change
	Dir    string // templates directory to watch
	Ext    string
	Logger *slog.Logger
}

// Server renders templates for HTTP clients.
type Server struct {
	engine   *template.Engine
	data     core.Context
	addr     string
	watch    bool
	dir      string
	ext      string
	logger   *slog.Logger
	notifier *notifier
}

// New creates a server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data := cfg.Data
	if data == nil {
		data = core.Context{}
	}
	return &Server{
		engine:   cfg.Engine,
		data:     data,
		addr:     cfg.Addr,
		watch:    cfg.Watch,
		dir:      cfg.Dir,
		ext:      cfg.Ext,
		logger:   logger,
		notifier: newNotifier(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/templates", s.handleTemplates)
	r.Get("/render/*", s.handleRender)
	r.Get("/events", s.handleEvents)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		w := &Watcher{Dir: s.dir, Ext: s.ext, Logger: s.logger}
		eg.Go(func() error {
			return w.Run(egctx, s.Changed)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Changed invalidates name and its dependents and notifies event listeners.
func (s *Server) Changed(name string) {
	n := s.engine.Invalidate(name)
	s.logger.Info("template changed", "name", name, "evicted", n)
	s.notifier.broadcast(name)
}

// logRequests logs each request at Info once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
