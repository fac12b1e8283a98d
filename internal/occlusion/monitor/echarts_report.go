package monitor

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tilevista/wallmask/internal/occlusion"
)

// RenderSampleReport renders per-sample precision, recall, and F1 as a
// self-contained HTML bar chart. The compare tool writes it next to the PNG
// plots so a run's weak samples can be inspected without a running service.
func RenderSampleReport(corpus string, evals []occlusion.SampleEvaluation) ([]byte, error) {
	if len(evals) == 0 {
		return nil, fmt.Errorf("no sample evaluations to render")
	}

	names := make([]string, 0, len(evals))
	precision := make([]opts.BarData, 0, len(evals))
	recall := make([]opts.BarData, 0, len(evals))
	f1 := make([]opts.BarData, 0, len(evals))
	for _, eval := range evals {
		names = append(names, eval.Name)
		precision = append(precision, opts.BarData{Value: eval.Metrics.Precision})
		recall = append(recall, opts.BarData{Value: eval.Metrics.Recall})
		f1 = append(f1, opts.BarData{Value: eval.Metrics.F1})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Corpus Report", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Per-Sample Metrics", Subtitle: fmt.Sprintf("corpus=%s samples=%d", corpus, len(evals))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(names).
		AddSeries("precision", precision).
		AddSeries("recall", recall).
		AddSeries("f1", f1)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render sample report: %w", err)
	}
	return buf.Bytes(), nil
}
