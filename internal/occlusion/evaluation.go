package occlusion

import (
	"gonum.org/v1/gonum/stat"
)

// BinarizeThreshold is the default alpha cutoff used when comparing soft
// masks against labeled references.
const BinarizeThreshold uint8 = 128

// SampleEvaluation is the metric outcome for one labeled corpus sample.
type SampleEvaluation struct {
	Name    string      `json:"name"`
	Metrics MaskMetrics `json:"metrics"`
	Stats   MaskStats   `json:"stats"`
}

// EvaluationSummary aggregates per-sample metrics across a corpus run.
type EvaluationSummary struct {
	Samples             int     `json:"samples"`
	MeanPrecision       float64 `json:"mean_precision"`
	MeanRecall          float64 `json:"mean_recall"`
	MeanF1              float64 `json:"mean_f1"`
	MeanIoU             float64 `json:"mean_iou"`
	MeanAgreement       float64 `json:"mean_agreement"`
	MeanAbsDiff         float64 `json:"mean_abs_diff"`
	MeanForegroundRatio float64 `json:"mean_foreground_ratio"`
	WorstSample         string  `json:"worst_sample,omitempty"`
	WorstF1             float64 `json:"worst_f1"`
}

// EvaluateSample builds a mask for src under p and compares it against the
// labeled truth mask.
func EvaluateSample(name string, src, truth *Raster, p Params) (SampleEvaluation, error) {
	mask := BuildMask(src, p)
	metrics, err := CompareMasks(mask, truth, BinarizeThreshold)
	if err != nil {
		return SampleEvaluation{}, err
	}
	return SampleEvaluation{
		Name:    name,
		Metrics: metrics,
		Stats:   ComputeMaskStats(mask, BinarizeThreshold),
	}, nil
}

// Summarize aggregates sample evaluations into corpus-level means and tracks
// the weakest sample by F1. An empty input yields the zero summary.
func Summarize(evals []SampleEvaluation) EvaluationSummary {
	if len(evals) == 0 {
		return EvaluationSummary{}
	}

	precision := make([]float64, len(evals))
	recall := make([]float64, len(evals))
	f1 := make([]float64, len(evals))
	iou := make([]float64, len(evals))
	agreement := make([]float64, len(evals))
	absDiff := make([]float64, len(evals))
	fgRatio := make([]float64, len(evals))

	worst := 0
	for i, e := range evals {
		precision[i] = e.Metrics.Precision
		recall[i] = e.Metrics.Recall
		f1[i] = e.Metrics.F1
		iou[i] = e.Metrics.IoU
		agreement[i] = e.Metrics.Agreement
		absDiff[i] = e.Metrics.MeanAbsDiff
		fgRatio[i] = e.Stats.ForegroundRatio
		if e.Metrics.F1 < evals[worst].Metrics.F1 {
			worst = i
		}
	}

	return EvaluationSummary{
		Samples:             len(evals),
		MeanPrecision:       stat.Mean(precision, nil),
		MeanRecall:          stat.Mean(recall, nil),
		MeanF1:              stat.Mean(f1, nil),
		MeanIoU:             stat.Mean(iou, nil),
		MeanAgreement:       stat.Mean(agreement, nil),
		MeanAbsDiff:         stat.Mean(absDiff, nil),
		MeanForegroundRatio: stat.Mean(fgRatio, nil),
		WorstSample:         evals[worst].Name,
		WorstF1:             evals[worst].Metrics.F1,
	}
}
