package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/metrics"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/pricing"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type ChartService interface {
	WeekChart(ctx context.Context, uniqueID string) (*pricing.WeeklyChart, error)
	DayChart(ctx context.Context, uniqueID string, day time.Time) (*pricing.HourlyChart, error)
	TodayChart(ctx context.Context, uniqueID string) (*pricing.HourlyChart, error)
	Today(ctx context.Context, uniqueID, location string) ([]models.Observation, error)
}

type ItemStore interface {
	Search(ctx context.Context, term string, offset, limit int) ([]models.Item, error)
}

type ObservationLister interface {
	Latest(ctx context.Context, uniqueID, location string, limit int) ([]models.Observation, error)
}

type TrackingStore interface {
	TrackedItems(ctx context.Context, userID string) ([]models.Item, error)
}

// PingFunc reports whether a backing service is reachable.
type PingFunc func(ctx context.Context) error

type Deps struct {
	Charts       ChartService
	Items        ItemStore
	Observations ObservationLister
	Tracking     TrackingStore
	DBPing       PingFunc
	// CachePing is nil when no cache is configured.
	CachePing PingFunc
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
	// Location is the chart timezone used to interpret date parameters.
	Location *time.Location
}

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string
}

type Server struct {
	charts       ChartService
	items        ItemStore
	observations ObservationLister
	tracking     TrackingStore
	dbPing       PingFunc
	cachePing    PingFunc
	metrics      *metrics.Metrics
	log          zerolog.Logger
	loc          *time.Location
	validate     *validator.Validate
	handler      http.Handler
	httpServer   *http.Server
	apiKey       string
}

func NewServer(deps Deps, opts Options) *Server {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	s := &Server{
		charts:       deps.Charts,
		items:        deps.Items,
		observations: deps.Observations,
		tracking:     deps.Tracking,
		dbPing:       deps.DBPing,
		cachePing:    deps.CachePing,
		metrics:      deps.Metrics,
		log:          deps.Log,
		loc:          deps.Location,
		validate:     validator.New(),
		apiKey:       opts.APIKey,
	}

	r := chi.NewRouter()
	r.Use(
		s.recoverer,
		s.requestID,
		s.observe,
		func(next http.Handler) http.Handler { return corsMiddleware(next, opts.CORSOrigin) },
		s.authMiddleware,
		func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) },
	)

	// Health and metrics (no auth required)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/items", s.handleSearchItems)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Get("/observations", s.handleObservations)
			r.Get("/today", s.handleToday)
			r.Get("/chart/today", s.handleChartToday)
			r.Get("/chart/day/{date}", s.handleChartDay)
			r.Get("/chart/week", s.handleChartWeek)
		})
		r.Get("/users/{userID}/tracking", s.handleTracking)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.handler = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Bool("auth", s.apiKey != "").
		Msg("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
