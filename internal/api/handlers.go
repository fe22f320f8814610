package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/dashboard"
	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/store"
	"outlet-insights-go/internal/types"
)

const maxBodyBytes = 1 << 20

type noteRequest struct {
	Note string `json:"note" validate:"required,max=4000"`
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type toggleRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listOutlets(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.svc.Outlets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outlets)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	win, err := aggregator.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.svc.Build(r.Context(), scope, win)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) actions(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	win, err := aggregator.ParseWindow(q.Get("window"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status, err := aggregator.ParseStatus(q.Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.svc.Actions(r.Context(), scope, win, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) captureNote(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !h.decode(w, r, &req) {
		return
	}
	records, err := h.svc.CaptureNote(r.Context(), scope, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}
	reply, err := h.svc.Chat(r.Context(), scope, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) toggleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req toggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.ToggleAction(r.Context(), id, *req.Completed, h.now()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scope builds the aggregation scope from the {outlet} path segment.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (aggregator.Scope, bool) {
	outlet, err := url.PathUnescape(chi.URLParam(r, "outlet"))
	if err != nil || outlet == "" {
		h.respondError(w, r, http.StatusBadRequest, "invalid outlet")
		return aggregator.Scope{}, false
	}
	return aggregator.NewScope(outlet, h.now(), h.loc), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "unreadable body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := types.Validate(dst); err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

// fail maps service errors to status codes. Unexpected errors are logged
// and never echoed to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, aggregator.ErrUnknownWindow),
		errors.Is(err, aggregator.ErrUnknownStatus),
		errors.Is(err, dashboard.ErrEmptyNote):
		h.respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, r, http.StatusNotFound, err.Error())
	default:
		h.log.WithRequest(r).WithField("error", err.Error()).Error("request failed")
		h.respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: r.Header.Get(logger.RequestIDHeader)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
