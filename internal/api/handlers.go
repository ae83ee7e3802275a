package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"energy_dashboard/internal/chart"
	"energy_dashboard/internal/dashboard"
	"energy_dashboard/internal/model"
)

const actionTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeStatusJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) apiDisplay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.dash.Display())
}

type statusResponse struct {
	dashboard.Status
	Stale []model.Slot `json:"stale,omitempty"`
}

func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: h.dash.Status()}
	if h.staleAfter > 0 {
		resp.Stale = h.dash.Stale(h.staleAfter)
	}
	writeJSON(w, resp)
}

func (h *Handlers) apiChart(w http.ResponseWriter, r *http.Request) {
	family, err := chart.ParseFamily(chi.URLParam(r, "family"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	samples := 0
	if s := r.URL.Query().Get("samples"); s != "" {
		samples, err = strconv.Atoi(s)
		if err != nil || samples < 0 {
			writeError(w, http.StatusBadRequest, "invalid samples")
			return
		}
	}

	c, err := h.charts.History(family, samples)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, c)
}

func (h *Handlers) apiDetails(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	items, err := h.dash.Details(dashboard.Group(group))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, map[string]any{"group": group, "items": items})
}

func (h *Handlers) apiTHD(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.dash.AnalyzeTHD())
}

func (h *Handlers) apiResetPeak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	var prompt string
	ok, err := h.dash.ResetPeak(ctx, func(p string) bool {
		prompt = p
		return req.Confirmed
	})
	switch {
	case errors.Is(err, dashboard.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, dashboard.ErrActionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.log.Warn("peak reset failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case !ok:
		writeStatusJSON(w, http.StatusConflict, map[string]string{"prompt": prompt})
	default:
		writeJSON(w, map[string]bool{"reset": true})
	}
}
