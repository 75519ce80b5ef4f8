// Package server exposes recommendations over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/metrics"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/pkg/recommend"
)

// Options configures the HTTP server.
type Options struct {
	Port        int
	RateLimit   int // requests per minute per IP, 0 disables
	CORSOrigins []string
}

// Server provides the HTTP API.
type Server struct {
	svc   *recommend.Service
	store store.Store
	opts  Options
	http  *http.Server
}

// New creates a new HTTP server.
func New(svc *recommend.Service, s store.Store, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	srv := &Server{svc: svc, store: s, opts: opts}
	srv.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return srv
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Use(recordMetrics)

		r.Get("/destinations", s.handleListDestinations)
		r.Post("/destinations", s.handleUpsertDestination)
		r.Get("/destinations/{name}", s.handleGetDestination)

		r.Post("/profiles", s.handleCreateProfile)
		r.Get("/profiles/{id}", s.handleGetProfile)
		r.Put("/profiles/{id}", s.handleUpdateProfile)
		r.Get("/profiles/{id}/recommendations", s.handleRecommendations)
		r.Get("/profiles/{id}/places", s.handlePlaces)

		r.Post("/score/catalog", s.handleScoreCatalog)
		r.Post("/score/external", s.handleScoreExternal)
	})

	return r
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info().Str("addr", s.http.Addr).Msg("tripradar server listening")
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, status, time.Since(start))
	})
}
