package api

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"energy_dashboard/internal/chart"
	"energy_dashboard/internal/dashboard"
)

// HTTPRecorder observes served requests.
type HTTPRecorder interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// Options holds the dependencies of the HTTP API. WS, Metrics and Recorder
// are optional.
type Options struct {
	Dashboard   *dashboard.Dashboard
	Charts      chart.Source
	WS          http.Handler
	Metrics     http.Handler
	Recorder    HTTPRecorder
	FrontendDir string
	StaleAfter  time.Duration
	Logger      *zap.Logger
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	dash       *dashboard.Dashboard
	charts     chart.Source
	staleAfter time.Duration
	log        *zap.Logger
}

// NewRouter creates the chi router serving the dashboard API.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	charts := opts.Charts
	if charts == nil {
		charts = chart.Synthetic{}
	}
	h := &Handlers{
		dash:       opts.Dashboard,
		charts:     charts,
		staleAfter: opts.StaleAfter,
		log:        log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// WebSocket connections are long-lived; they bypass compression and
	// request metrics.
	if opts.WS != nil {
		r.Handle("/ws", opts.WS)
	}

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(log))
		if opts.Recorder != nil {
			r.Use(instrument(opts.Recorder))
		}

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok\n"))
		})
		if opts.Metrics != nil {
			r.Handle("/metrics", opts.Metrics)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Compress(5))

			r.Get("/display", h.apiDisplay)
			r.Get("/status", h.apiStatus)
			r.Get("/chart/{family}", h.apiChart)
			r.Get("/details/{group}", h.apiDetails)
			r.Get("/thd", h.apiTHD)
			r.Post("/peak/reset", h.apiResetPeak)
		})
	})

	if opts.FrontendDir != "" {
		if _, err := os.Stat(opts.FrontendDir); err == nil {
			log.Info("serving frontend", zap.String("dir", opts.FrontendDir))
			r.Handle("/*", http.FileServer(http.Dir(opts.FrontendDir)))
		} else {
			log.Warn("frontend directory not found", zap.String("dir", opts.FrontendDir))
		}
	}

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// instrument records every request under its route pattern so path
// parameters do not explode label cardinality.
func instrument(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}
