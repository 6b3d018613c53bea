package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drowse/internal/api"
	"drowse/pkg/logging"
)

type handlers struct {
	controller api.Controller
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case api.IsNotFound(err):
		return http.StatusNotFound
	case api.IsTimeout(err):
		return http.StatusGatewayTimeout
	case api.IsNotInitialized(err), api.IsCancelled(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("HTTP", "Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), api.ErrorResponse{Error: err.Error(), Code: api.ErrorCode(err)})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	report := h.controller.HealthCheck(r.Context())
	status := http.StatusOK
	if report.Status != api.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.controller.ListServices()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *handlers) getService(w http.ResponseWriter, r *http.Request) {
	st, err := h.controller.GetStatus(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type lifecycleFunc func(ctx context.Context, name string) (api.ServiceStatus, error)

func (h *handlers) lifecycle(op lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// a client that hangs up must not abort a transition halfway
		ctx := context.WithoutCancel(r.Context())
		st, err := op(ctx, chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (h *handlers) wakeRequest(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.controller.RequestWake(chi.URLParam(r, "name"), api.WakeSourceAPI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, api.WakeRequestAccepted{Status: "queued", WakeTicket: ticket})
}

func (h *handlers) recordAccess(w http.ResponseWriter, r *http.Request) {
	st, err := h.controller.RecordAccess(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) serviceMetrics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.controller.GetPerformanceMetrics(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handlers) prediction(w http.ResponseWriter, r *http.Request) {
	p, err := h.controller.PredictWakeNeed(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) performanceMetrics(w http.ResponseWriter, r *http.Request) {
	all, err := h.controller.AllPerformanceMetrics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handlers) systemMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.controller.GetSystemMetrics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
