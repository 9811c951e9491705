// Package server exposes a read-only JSON API over a dependency graph.
//
// All routes live under /api and answer GET requests:
//
//	/api/search?q=            name search
//	/api/package/{name}       record, direct deps and dependents
//	/api/graph/{name}         dependency neighbourhood (depth, type)
//	/api/rdeps-graph/{name}   dependent neighbourhood (depth, type)
//	/api/tree/{name}          dependency tree (depth, type)
//	/api/path/{from}/{to}     shortest dependency chain
//	/api/cycles               elementary cycles (limit)
//	/api/stats                graph statistics
//	/api/most-depended        ranking by dependents (n)
//	/api/analyze/{name}       package analysis
//
// Errors are {"error": message, "code": code} with the status derived from
// the code. The graph is never modified, so handlers share it without
// locking.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depmap/pkg/analyzer"
	"github.com/matzehuels/depmap/pkg/depgraph"
)

// Options configures a Server.
type Options struct {
	Logger   *log.Logger
	Analysis analyzer.Options
}

// Server serves the API for one graph.
type Server struct {
	graph    *depgraph.Graph
	analyzer *analyzer.Analyzer
	logger   *log.Logger
	opts     Options
	router   chi.Router
}

// New builds the router for g.
func New(g *depgraph.Graph, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Server{
		graph:    g,
		analyzer: analyzer.New(g, opts.Analysis),
		logger:   opts.Logger,
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/package/{name}", s.handlePackage)
		r.Get("/graph/{name}", s.handleGraph(false))
		r.Get("/rdeps-graph/{name}", s.handleGraph(true))
		r.Get("/tree/{name}", s.handleTree)
		r.Get("/path/{from}/{to}", s.handlePath)
		r.Get("/cycles", s.handleCycles)
		r.Get("/stats", s.handleStats)
		r.Get("/most-depended", s.handleMostDepended)
		r.Get("/analyze/{name}", s.handleAnalyze)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving API", "addr", ln.Addr().String(), "packages", s.graph.NodeCount())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs one line per request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
