package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tilevista/wallmask/internal/httputil"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
	"github.com/tilevista/wallmask/internal/occlusion/sweep"
)

// viridisRamp is the color scale for visual maps, low to high.
var viridisRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// handleChartsDashboard renders a small page with iframes onto the debug
// charts. The iframes hit the chart endpoints directly so the page needs no
// client-side code.
func (ws *WebServer) handleChartsDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

// handleSweepChart renders the current sweep results as a scatter of F1
// against foreground ratio, colored by objective score. Combinations that
// mask everything cluster top-right; the useful ones sit high-F1, low-ratio.
func (ws *WebServer) handleSweepChart(w http.ResponseWriter, r *http.Request) {
	if ws.sweep == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "sweep runner not configured")
		return
	}

	state := ws.sweep.State()
	if len(state.Results) == 0 {
		httputil.NotFound(w, "no sweep results available")
		return
	}

	weights := sweep.DefaultObjectiveWeights()
	if state.Request != nil && state.Request.Weights != nil {
		weights = *state.Request.Weights
	}
	ranked := sweep.RankResults(state.Results, weights)

	data := make([]opts.ScatterData, 0, len(ranked))
	minScore := ranked[0].Score
	maxScore := ranked[0].Score
	for _, res := range ranked {
		if res.Score < minScore {
			minScore = res.Score
		}
		if res.Score > maxScore {
			maxScore = res.Score
		}
		data = append(data, opts.ScatterData{Value: []interface{}{res.F1Mean, res.ForegroundRatioMean, res.Score}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sweep Results", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sweep Results", Subtitle: fmt.Sprintf("status=%s combinations=%d", state.Status, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "F1", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Foreground ratio", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minScore),
			Max:        float32(maxScore),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisRamp},
		}),
	)
	scatter.AddSeries("combinations", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render sweep chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleCalibrationChart renders calibration score and F1 history as lines,
// oldest run first.
// Query params:
//
//	corpus (optional) - restrict to one corpus
//	limit (optional, default 50, max 500)
func (ws *WebServer) handleCalibrationChart(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "calibration store not configured")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	var runs []*storesqlite.CalibrationRun
	var err error
	if corpus := r.URL.Query().Get("corpus"); corpus != "" {
		runs, err = ws.store.ListByCorpus(corpus)
	} else {
		runs, err = ws.store.List(limit)
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list calibration runs: %v", err))
		return
	}
	if len(runs) == 0 {
		httputil.NotFound(w, "no calibration runs recorded")
		return
	}

	// Listings come newest first; plot oldest to newest.
	labels := make([]string, 0, len(runs))
	scores := make([]opts.LineData, 0, len(runs))
	f1s := make([]opts.LineData, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		labels = append(labels, time.Unix(0, run.CreatedAt).Format("01-02 15:04"))
		scores = append(scores, opts.LineData{Value: run.Score})
		f1s = append(f1s, opts.LineData{Value: run.F1})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Calibration History", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Calibration History", Subtitle: fmt.Sprintf("runs=%d", len(runs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels).
		AddSeries("score", scores).
		AddSeries("f1", f1s)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render calibration chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
