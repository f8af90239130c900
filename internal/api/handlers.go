package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"reelgen/backend/internal/generation"
	"reelgen/backend/internal/middleware"
	"reelgen/backend/internal/storage"
)

// Generator is what the endpoints need from the generation client.
type Generator interface {
	GenerateImages(ctx context.Context, prompt string, count int, aspectRatio string, imagePaths []string) ([]generation.File, error)
	GenerateVideo(ctx context.Context, imagePath, aspectRatio string) (generation.File, error)
}

type Defaults struct {
	Prompt      string
	ImageCount  int
	AspectRatio string
}

type Server struct {
	Store    *storage.Store
	Gen      Generator
	Defaults Defaults
	Log      zerolog.Logger

	rateLimitPerMin int
	maxImageBody    int64
	validate        *validator.Validate
	metrics         *middleware.Metrics
	generations     *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewServer builds the API server.
func NewServer(store *storage.Store, gen Generator, defaults Defaults, logger zerolog.Logger, rateLimitPerMin int) *Server {
	if defaults.AspectRatio == "" {
		defaults.AspectRatio = "16:9"
	}
	if defaults.ImageCount < 1 {
		defaults.ImageCount = 4
	}
	s := &Server{
		Store: store, Gen: gen, Defaults: defaults, Log: logger,
		rateLimitPerMin: rateLimitPerMin,
		maxImageBody:    maxImageRequestBody,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		metrics:         middleware.NewMetrics(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelgen",
			Name:      "generation_requests_total",
			Help:      "Generation requests by media kind and outcome.",
		}, []string{"kind", "outcome"}),
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.generations,
	)
	s.registry.MustRegister(s.metrics.Collectors()...)
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, middleware.Logger(s.Log), chimw.Recoverer, s.metrics.Handler)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// The web client calls /api/...; the bare paths are kept for direct callers.
	limit := middleware.RateLimitByIP(s.rateLimitPerMin)
	generationRoutes := func(r chi.Router) {
		r.Use(limit)
		r.Post("/generate-image", s.generateImage)
		r.Post("/generate-video", s.generateVideo)
	}
	r.Group(generationRoutes)
	r.Route("/api", generationRoutes)

	static := http.StripPrefix(storage.StaticPrefix+"/", http.FileServer(http.Dir(s.Store.Root())))
	r.Handle(storage.StaticPrefix+"/*", noDirListing(static))
	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError uses the {"detail": ...} body the web client reads.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
