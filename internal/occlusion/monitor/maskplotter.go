package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/tilevista/wallmask/internal/occlusion"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
	"github.com/tilevista/wallmask/internal/security"
)

// EvalPlotter writes evaluation charts as PNG files under one output
// directory. The mask-compare tool uses it after a corpus run to make
// regressions visible at a glance.
type EvalPlotter struct {
	outputDir string
}

// NewEvalPlotter creates the output directory and returns a plotter rooted
// there.
func NewEvalPlotter(outputDir string) (*EvalPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &EvalPlotter{outputDir: outputDir}, nil
}

// OutputDir returns the directory charts are written to.
func (ep *EvalPlotter) OutputDir() string {
	return ep.outputDir
}

// PlotMetrics charts precision, recall and F1 across corpus samples and
// writes metrics.png. Returns the written path.
func (ep *EvalPlotter) PlotMetrics(evals []occlusion.SampleEvaluation) (string, error) {
	if len(evals) == 0 {
		return "", fmt.Errorf("no evaluations to plot")
	}

	p := plot.New()
	p.Title.Text = "Per-sample mask metrics"
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Metric"
	p.Y.Min = 0
	p.Y.Max = 1

	series := []struct {
		name  string
		value func(occlusion.SampleEvaluation) float64
	}{
		{"precision", func(e occlusion.SampleEvaluation) float64 { return e.Metrics.Precision }},
		{"recall", func(e occlusion.SampleEvaluation) float64 { return e.Metrics.Recall }},
		{"f1", func(e occlusion.SampleEvaluation) float64 { return e.Metrics.F1 }},
	}
	for i, s := range series {
		pts := make(plotter.XYs, len(evals))
		for j, e := range evals {
			pts[j] = plotter.XY{X: float64(j), Y: s.value(e)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	file := filepath.Join(ep.outputDir, "metrics.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("save metrics plot: %w", err)
	}
	return file, nil
}

// PlotAlphaHistogram charts the alpha distribution of one mask and writes
// <name>_alpha.png. Mass near 0 and 255 with a thin bridge between is the
// healthy shape; a hump in the middle means the mask is mostly soft
// transition.
func (ep *EvalPlotter) PlotAlphaHistogram(name string, mask *occlusion.Raster) (string, error) {
	alphas := mask.AlphaPlane()
	values := make(plotter.Values, len(alphas))
	for i, a := range alphas {
		values[i] = float64(a)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Alpha distribution - %s", name)
	p.X.Label.Text = "Alpha"
	p.Y.Label.Text = "Pixels"

	hist, err := plotter.NewHist(values, 32)
	if err != nil {
		return "", err
	}
	p.Add(hist)

	file := filepath.Join(ep.outputDir, fmt.Sprintf("%s_alpha.png", security.SanitizeFilename(name)))
	if err := p.Save(8*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("save alpha histogram: %w", err)
	}
	return file, nil
}

// PlotScoreHistory charts calibration run scores over time and writes
// calibration_history.png. Runs are plotted oldest first regardless of the
// input order.
func (ep *EvalPlotter) PlotScoreHistory(runs []*storesqlite.CalibrationRun) (string, error) {
	if len(runs) == 0 {
		return "", fmt.Errorf("no calibration runs to plot")
	}

	sorted := make([]*storesqlite.CalibrationRun, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt < sorted[j].CreatedAt })

	scorePts := make(plotter.XYs, len(sorted))
	f1Pts := make(plotter.XYs, len(sorted))
	for i, run := range sorted {
		scorePts[i] = plotter.XY{X: float64(i), Y: run.Score}
		f1Pts[i] = plotter.XY{X: float64(i), Y: run.F1}
	}

	p := plot.New()
	p.Title.Text = "Calibration score history"
	p.X.Label.Text = "Run (oldest first)"
	p.Y.Label.Text = "Value"

	scoreLine, err := plotter.NewLine(scorePts)
	if err != nil {
		return "", err
	}
	scoreLine.Color = plotutil.Color(0)
	scoreLine.Width = vg.Points(1)
	p.Add(scoreLine)
	p.Legend.Add("score", scoreLine)

	f1Line, err := plotter.NewLine(f1Pts)
	if err != nil {
		return "", err
	}
	f1Line.Color = plotutil.Color(1)
	f1Line.Width = vg.Points(1)
	p.Add(f1Line)
	p.Legend.Add("f1", f1Line)
	p.Legend.Top = true

	file := filepath.Join(ep.outputDir, "calibration_history.png")
	if err := p.Save(10*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("save score history: %w", err)
	}
	return file, nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir builds a timestamped output directory path for one
// evaluation run: <baseDir>/<corpus_basename>/<timestamp>.
func MakePlotOutputDir(baseDir, corpusDir string) string {
	ts := FormatTimestamp(time.Now())
	name := filepath.Base(filepath.Clean(corpusDir))
	if name == "." || name == string(filepath.Separator) {
		name = "corpus"
	}
	return filepath.Join(baseDir, name, ts)
}
