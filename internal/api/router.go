// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/assistant"
	"outlet-insights-go/internal/dashboard"
	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/types"
)

// Dashboard is the service behind the handlers. *dashboard.Service
// satisfies it.
type Dashboard interface {
	Outlets(ctx context.Context) ([]types.Outlet, error)
	Build(ctx context.Context, scope aggregator.Scope, w aggregator.Window) (dashboard.View, error)
	Actions(ctx context.Context, scope aggregator.Scope, w aggregator.Window, status aggregator.StatusFilter) (aggregator.ActionView, error)
	CaptureNote(ctx context.Context, scope aggregator.Scope, note string) ([]types.ActionRecord, error)
	ToggleAction(ctx context.Context, id string, completed bool, at time.Time) error
	Chat(ctx context.Context, scope aggregator.Scope, message string) (assistant.Reply, error)
}

type Handler struct {
	svc Dashboard
	loc *time.Location
	now func() time.Time
	log *logger.Logger
}

type Option func(*Handler)

// WithClock fixes the request clock (tests).
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(svc Dashboard, loc *time.Location, opts ...Option) *Handler {
	h := &Handler{svc: svc, loc: loc, now: time.Now, log: logger.New()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Router mounts every route. timeout bounds each request; zero disables it.
func (h *Handler) Router(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/outlets", h.listOutlets)
		r.Route("/outlets/{outlet}", func(r chi.Router) {
			r.Get("/dashboard", h.dashboard)
			r.Get("/actions", h.actions)
			r.Post("/notes", h.captureNote)
			r.Post("/chat", h.chat)
		})
		r.Patch("/actions/{id}", h.toggleAction)
	})
	return r
}

// requestLogger stamps a request id and logs one line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := h.log.WithRequest(r).
			WithField("status", ww.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds())
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request served")
	})
}
