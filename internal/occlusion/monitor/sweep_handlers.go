package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tilevista/wallmask/internal/httputil"
	"github.com/tilevista/wallmask/internal/occlusion/sweep"
)

// SweepRunner is the part of the sweep engine the HTTP layer drives. An
// interface so webserver tests can substitute a stub for the real runner.
type SweepRunner interface {
	Start(ctx context.Context, req sweep.SweepRequest) error
	State() sweep.SweepState
	Stop()
}

// handleSweepStart launches a parameter sweep.
func (ws *WebServer) handleSweepStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.sweep == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "sweep runner not configured")
		return
	}

	var req sweep.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("decode sweep request: %v", err))
		return
	}

	// The sweep outlives this request, so it must not inherit the request
	// context; Stop or completion ends it.
	if err := ws.sweep.Start(context.Background(), req); err != nil {
		if strings.Contains(err.Error(), "already in progress") {
			httputil.Conflict(w, err.Error())
		} else {
			httputil.BadRequest(w, err.Error())
		}
		return
	}

	httputil.WriteJSONOK(w, map[string]string{"status": "started"})
}

// handleSweepState returns a snapshot of sweep progress and results.
func (ws *WebServer) handleSweepState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.sweep == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "sweep runner not configured")
		return
	}

	httputil.WriteJSONOK(w, ws.sweep.State())
}

// handleSweepStop cancels a running sweep.
func (ws *WebServer) handleSweepStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.sweep == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "sweep runner not configured")
		return
	}

	ws.sweep.Stop()
	httputil.WriteJSONOK(w, map[string]string{"status": "stopped"})
}
