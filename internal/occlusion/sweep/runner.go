// Package sweep searches pipeline parameter combinations against a labeled
// corpus and ranks the outcomes by a weighted objective. One sweep runs at a
// time; progress is observable while it runs.
package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/tilevista/wallmask/internal/monitoring"
	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/occlusion/corpus"
)

// SweepStatus is the lifecycle state of a sweep run.
type SweepStatus string

const (
	SweepStatusIdle     SweepStatus = "idle"
	SweepStatusRunning  SweepStatus = "running"
	SweepStatusComplete SweepStatus = "complete"
	SweepStatusError    SweepStatus = "error"
)

// maxCombos bounds a single sweep. Each combination rebuilds a mask per
// corpus sample, so requests beyond this are rejected up front rather than
// left to crawl.
const maxCombos = 1000

// SweepRequest describes a sweep: which parameters to vary and, optionally,
// the objective weights used when ranking afterwards.
type SweepRequest struct {
	Params  []SweepParam      `json:"params"`
	Corpus  string            `json:"corpus,omitempty"`
	Weights *ObjectiveWeights `json:"weights,omitempty"`
}

// ComboResult is the corpus-level outcome of one parameter combination.
type ComboResult struct {
	ParamValues map[string]interface{} `json:"param_values"`
	Samples     int                    `json:"samples"`

	PrecisionMean   float64 `json:"precision_mean"`
	PrecisionStddev float64 `json:"precision_stddev"`
	RecallMean      float64 `json:"recall_mean"`
	RecallStddev    float64 `json:"recall_stddev"`
	F1Mean          float64 `json:"f1_mean"`
	F1Stddev        float64 `json:"f1_stddev"`
	IoUMean         float64 `json:"iou_mean"`
	AgreementMean   float64 `json:"agreement_mean"`
	AbsDiffMean     float64 `json:"abs_diff_mean"`

	ForegroundRatioMean float64 `json:"foreground_ratio_mean"`

	WorstSample string  `json:"worst_sample,omitempty"`
	WorstF1     float64 `json:"worst_f1"`
}

// SweepState is a snapshot of a sweep run.
type SweepState struct {
	Status          SweepStatus   `json:"status"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	TotalCombos     int           `json:"total_combos"`
	CompletedCombos int           `json:"completed_combos"`
	Results         []ComboResult `json:"results,omitempty"`
	Error           string        `json:"error,omitempty"`
	Request         *SweepRequest `json:"request,omitempty"`
}

// Runner executes sweeps over a fixed labeled corpus, one at a time.
type Runner struct {
	mu      sync.RWMutex
	state   SweepState
	cancel  context.CancelFunc
	base    occlusion.Params
	samples []corpus.LabeledSample
}

// NewRunner returns an idle runner. Combinations overlay their values onto
// base, so unswept parameters keep the caller's settings.
func NewRunner(samples []corpus.LabeledSample, base occlusion.Params) *Runner {
	return &Runner{
		state:   SweepState{Status: SweepStatusIdle},
		base:    base,
		samples: samples,
	}
}

// State returns a snapshot of the sweep state with its own results slice.
func (r *Runner) State() SweepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := r.state
	if len(r.state.Results) > 0 {
		st.Results = make([]ComboResult, len(r.state.Results))
		copy(st.Results, r.state.Results)
	}
	return st
}

// Start validates the request and launches the sweep in the background.
// Returns an error without touching runner state when the request is
// malformed, oversized, or a sweep is already running.
func (r *Runner) Start(ctx context.Context, req SweepRequest) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("sweep request has no parameters")
	}
	if len(r.samples) == 0 {
		return fmt.Errorf("no corpus samples to evaluate")
	}

	params := make([]SweepParam, len(req.Params))
	copy(params, req.Params)
	for i := range params {
		if err := expandParam(&params[i]); err != nil {
			return err
		}
	}

	combos := cartesianProduct(params)
	if len(combos) > maxCombos {
		return fmt.Errorf("sweep would run %d combinations, limit is %d", len(combos), maxCombos)
	}
	req.Params = params

	r.mu.Lock()
	if r.state.Status == SweepStatusRunning {
		r.mu.Unlock()
		return fmt.Errorf("sweep already in progress")
	}
	now := time.Now()
	r.state = SweepState{
		Status:      SweepStatusRunning,
		StartedAt:   &now,
		TotalCombos: len(combos),
		Results:     make([]ComboResult, 0, len(combos)),
		Request:     &req,
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(runCtx, params, combos)
	return nil
}

// Stop cancels a running sweep. The run terminates between combinations and
// records an error status. No-op when nothing is running.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) run(ctx context.Context, params []SweepParam, combos []map[string]interface{}) {
	monitoring.Logf("[Sweep] starting: %d combinations over %d samples", len(combos), len(r.samples))

	for i, combo := range combos {
		select {
		case <-ctx.Done():
			r.finish(SweepStatusError, fmt.Sprintf("sweep stopped at combination %d/%d", i+1, len(combos)))
			return
		default:
		}

		p, err := applyCombo(r.base, params, combo)
		if err != nil {
			r.finish(SweepStatusError, err.Error())
			return
		}

		result, err := r.evaluateCombo(combo, p)
		if err != nil {
			r.finish(SweepStatusError, err.Error())
			return
		}
		monitoring.Logf("[Sweep] combination %d/%d: f1=%.3f fg=%.3f", i+1, len(combos), result.F1Mean, result.ForegroundRatioMean)

		r.mu.Lock()
		r.state.Results = append(r.state.Results, result)
		r.state.CompletedCombos = i + 1
		r.mu.Unlock()
	}

	r.finish(SweepStatusComplete, "")
}

func (r *Runner) finish(status SweepStatus, errMsg string) {
	now := time.Now()
	r.mu.Lock()
	r.state.Status = status
	r.state.Error = errMsg
	r.state.CompletedAt = &now
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	if errMsg != "" {
		monitoring.Logf("[Sweep] %s", errMsg)
	} else {
		monitoring.Logf("[Sweep] complete")
	}
}

// applyCombo overlays one combination onto the base parameters. Values apply
// in request order so failures surface deterministically.
func applyCombo(base occlusion.Params, params []SweepParam, combo map[string]interface{}) (occlusion.Params, error) {
	p := base
	var err error
	for _, sp := range params {
		p, err = applyParam(p, sp.Name, combo[sp.Name])
		if err != nil {
			return base, err
		}
	}
	return p, nil
}

func (r *Runner) evaluateCombo(combo map[string]interface{}, p occlusion.Params) (ComboResult, error) {
	n := len(r.samples)
	precision := make([]float64, 0, n)
	recall := make([]float64, 0, n)
	f1 := make([]float64, 0, n)
	iou := make([]float64, 0, n)
	agreement := make([]float64, 0, n)
	absDiff := make([]float64, 0, n)
	fgRatio := make([]float64, 0, n)

	worst := ""
	worstF1 := 0.0
	for i, s := range r.samples {
		ev, err := occlusion.EvaluateSample(s.Name, s.Source, s.Truth, p)
		if err != nil {
			return ComboResult{}, fmt.Errorf("sample %s: %w", s.Name, err)
		}
		precision = append(precision, ev.Metrics.Precision)
		recall = append(recall, ev.Metrics.Recall)
		f1 = append(f1, ev.Metrics.F1)
		iou = append(iou, ev.Metrics.IoU)
		agreement = append(agreement, ev.Metrics.Agreement)
		absDiff = append(absDiff, ev.Metrics.MeanAbsDiff)
		fgRatio = append(fgRatio, ev.Stats.ForegroundRatio)
		if i == 0 || ev.Metrics.F1 < worstF1 {
			worst = s.Name
			worstF1 = ev.Metrics.F1
		}
	}

	return ComboResult{
		ParamValues:         combo,
		Samples:             n,
		PrecisionMean:       stat.Mean(precision, nil),
		PrecisionStddev:     stddevOrZero(precision),
		RecallMean:          stat.Mean(recall, nil),
		RecallStddev:        stddevOrZero(recall),
		F1Mean:              stat.Mean(f1, nil),
		F1Stddev:            stddevOrZero(f1),
		IoUMean:             stat.Mean(iou, nil),
		AgreementMean:       stat.Mean(agreement, nil),
		AbsDiffMean:         stat.Mean(absDiff, nil),
		ForegroundRatioMean: stat.Mean(fgRatio, nil),
		WorstSample:         worst,
		WorstF1:             worstF1,
	}, nil
}

// stddevOrZero is the sample standard deviation, or zero below two samples
// where gonum's estimator is undefined.
func stddevOrZero(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
