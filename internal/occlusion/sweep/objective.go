package sweep

import (
	"math"
	"sort"
)

// ObjectiveWeights mixes corpus-level metrics into a single comparable
// score. Positive weights reward, negative weights penalize.
type ObjectiveWeights struct {
	F1              float64 `json:"f1"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	IoU             float64 `json:"iou"`
	AbsDiff         float64 `json:"abs_diff"`
	ForegroundRatio float64 `json:"foreground_ratio"`
}

// DefaultObjectiveWeights favors boundary accuracy, with a small penalty on
// soft error and on blanket masks that flag most of the photo.
func DefaultObjectiveWeights() ObjectiveWeights {
	return ObjectiveWeights{
		F1:              1.0,
		Precision:       0.25,
		Recall:          0.25,
		IoU:             0.5,
		AbsDiff:         -0.5,
		ForegroundRatio: -0.2,
	}
}

// ScoreResult computes the weighted objective for one combination. The
// absolute-difference term is rescaled from the 0-255 alpha scale to 0-1 so
// every term shares one weight scale.
func ScoreResult(result ComboResult, weights ObjectiveWeights) float64 {
	score := weights.F1 * result.F1Mean
	score += weights.Precision * result.PrecisionMean
	score += weights.Recall * result.RecallMean
	score += weights.IoU * result.IoUMean
	score += weights.AbsDiff * result.AbsDiffMean / 255
	score += weights.ForegroundRatio * result.ForegroundRatioMean
	return score
}

// AcceptanceCriteria are hard floors and ceilings a combination must meet
// before ranking. Nil fields are unconstrained.
type AcceptanceCriteria struct {
	MinPrecision       *float64 `json:"min_precision,omitempty"`
	MinRecall          *float64 `json:"min_recall,omitempty"`
	MinF1              *float64 `json:"min_f1,omitempty"`
	MaxForegroundRatio *float64 `json:"max_foreground_ratio,omitempty"`
}

// CheckAcceptance reports whether a combination meets every set criterion.
func CheckAcceptance(result ComboResult, criteria AcceptanceCriteria) bool {
	if criteria.MinPrecision != nil && result.PrecisionMean < *criteria.MinPrecision {
		return false
	}
	if criteria.MinRecall != nil && result.RecallMean < *criteria.MinRecall {
		return false
	}
	if criteria.MinF1 != nil && result.F1Mean < *criteria.MinF1 {
		return false
	}
	if criteria.MaxForegroundRatio != nil && result.ForegroundRatioMean > *criteria.MaxForegroundRatio {
		return false
	}
	return true
}

// ScoredResult pairs a combination result with its objective score.
type ScoredResult struct {
	ComboResult
	Score float64 `json:"score"`
}

// RankResults scores and sorts combinations best-first.
func RankResults(results []ComboResult, weights ObjectiveWeights) []ScoredResult {
	return RankResultsWithCriteria(results, weights, AcceptanceCriteria{})
}

// RankResultsWithCriteria scores and sorts combinations best-first.
// Combinations failing the acceptance criteria sink to the bottom with a
// sentinel score. Ties keep their input order.
func RankResultsWithCriteria(results []ComboResult, weights ObjectiveWeights, criteria AcceptanceCriteria) []ScoredResult {
	scored := make([]ScoredResult, len(results))
	for i, r := range results {
		score := ScoreResult(r, weights)
		if !CheckAcceptance(r, criteria) {
			score = -math.MaxFloat64
		}
		scored[i] = ScoredResult{ComboResult: r, Score: score}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
