package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"photark/internal/scan"
	"photark/internal/scheduler"
)

type handler struct {
	mgr     *scan.Manager
	sched   *scheduler.Scheduler
	version string
}

type statusResponse struct {
	Version    string          `json:"version"`
	ActiveScan *activeScanInfo `json:"active_scan"`
	Schedule   scheduleInfo    `json:"schedule"`
}

type activeScanInfo struct {
	SessionID   string       `json:"session_id"`
	StartedAt   time.Time    `json:"started_at"`
	TriggeredBy string       `json:"triggered_by"`
	Targets     int          `json:"targets"`
	Progress    scan.Summary `json:"progress"`
}

type scheduleInfo struct {
	Cron      string     `json:"cron"`
	NextRunAt *time.Time `json:"next_run_at"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Version: h.version,
		Schedule: scheduleInfo{
			Cron:      h.sched.CronExpr(),
			NextRunAt: h.sched.NextRunAt(),
		},
	}
	if active := h.mgr.Active(); active != nil {
		resp.ActiveScan = &activeScanInfo{
			SessionID:   active.Session.ID,
			StartedAt:   active.Session.StartedAt,
			TriggeredBy: active.TriggeredBy,
			Targets:     active.Targets,
			Progress:    active.Stats.Snapshot(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) startScan(w http.ResponseWriter, _ *http.Request) {
	// The scan must outlive this request; it runs under the manager's base
	// context and is cancelled via DELETE /api/scans/current or shutdown.
	active, err := h.mgr.Start("api")
	if errors.Is(err, scan.ErrAlreadyRunning) {
		writeError(w, http.StatusConflict, "scan_running", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan_start_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": active.Session.ID})
}

func (h *handler) cancelScan(w http.ResponseWriter, _ *http.Request) {
	active, err := h.mgr.Cancel()
	if errors.Is(err, scan.ErrNoActiveScan) {
		writeError(w, http.StatusConflict, "no_active_scan", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan_cancel_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": active.Session.ID})
}

// errorBody is the standard error envelope.
type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serialises v as JSON with status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON encode", "error", err)
	}
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: message}})
}
