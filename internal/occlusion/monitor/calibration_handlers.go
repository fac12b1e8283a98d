package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tilevista/wallmask/internal/httputil"
	"github.com/tilevista/wallmask/internal/monitoring"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
)

// handleCalibrations lists stored calibration runs or records a new one.
// GET query params:
//
//	corpus (optional) - restrict to one corpus, returns its full history
//	limit (optional, default 20, max 500) - cap for the unrestricted listing
func (ws *WebServer) handleCalibrations(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "calibration store not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if corpus := r.URL.Query().Get("corpus"); corpus != "" {
			runs, err := ws.store.ListByCorpus(corpus)
			if err != nil {
				httputil.InternalServerError(w, fmt.Sprintf("list calibration runs: %v", err))
				return
			}
			httputil.WriteJSONOK(w, runs)
			return
		}

		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
				limit = v
			}
		}
		runs, err := ws.store.List(limit)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("list calibration runs: %v", err))
			return
		}
		httputil.WriteJSONOK(w, runs)

	case http.MethodPost:
		var run storesqlite.CalibrationRun
		if err := json.NewDecoder(r.Body).Decode(&run); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("decode calibration run: %v", err))
			return
		}
		if run.Corpus == "" {
			httputil.BadRequest(w, "missing 'corpus' field")
			return
		}
		if err := ws.store.Insert(&run); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("insert calibration run: %v", err))
			return
		}
		monitoring.Logf("[Monitor] recorded calibration run %s for corpus %s", run.RunID, run.Corpus)
		httputil.WriteJSON(w, http.StatusCreated, run)

	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleCalibrationBest returns the highest scoring run for a corpus.
func (ws *WebServer) handleCalibrationBest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "calibration store not configured")
		return
	}

	corpus := r.URL.Query().Get("corpus")
	if corpus == "" {
		httputil.BadRequest(w, "missing 'corpus' parameter")
		return
	}

	run, err := ws.store.Best(corpus)
	if err != nil {
		if strings.Contains(err.Error(), "no calibration runs") {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("best calibration run: %v", err))
		}
		return
	}
	httputil.WriteJSONOK(w, run)
}
