package occlusion

import "fmt"

// MaskStats summarizes a single produced mask without reference to ground
// truth. ForegroundRatio counts pixels at or above the binarize threshold;
// NonzeroPixels counts any pixel the mask touched at all.
type MaskStats struct {
	ForegroundRatio float64 `json:"foreground_ratio"`
	MeanAlpha       float64 `json:"mean_alpha"`
	MaxAlpha        uint8   `json:"max_alpha"`
	NonzeroPixels   int     `json:"nonzero_pixels"`
}

// ComputeMaskStats reads occlusion strength from the alpha channel of mask.
// An invalid raster yields the zero stats.
func ComputeMaskStats(mask *Raster, threshold uint8) MaskStats {
	if !mask.valid() {
		return MaskStats{}
	}
	n := mask.Width * mask.Height

	var s MaskStats
	var sum float64
	var fg int
	for i := 0; i < n; i++ {
		a := mask.Pix[i*4+3]
		sum += float64(a)
		if a >= threshold {
			fg++
		}
		if a > 0 {
			s.NonzeroPixels++
		}
		if a > s.MaxAlpha {
			s.MaxAlpha = a
		}
	}
	s.ForegroundRatio = float64(fg) / float64(n)
	s.MeanAlpha = sum / float64(n)
	return s
}

// MaskMetrics summarizes agreement between a produced mask and a labeled
// reference mask. Counts are taken over the alpha channels after binarizing
// both at a threshold; MeanAbsDiff is computed on the raw soft values.
type MaskMetrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1          float64 `json:"f1"`
	IoU         float64 `json:"iou"`
	Agreement   float64 `json:"agreement"`
	MeanAbsDiff float64 `json:"mean_abs_diff"`
}

// CompareMasks computes MaskMetrics between a produced mask and a reference
// mask, reading occlusion strength from the alpha channel of each. Pixels
// with alpha >= threshold count as foreground. Returns an error when the
// rasters do not share dimensions.
//
// Degenerate cases follow the usual conventions: with no foreground in
// either mask precision, recall, F1 and IoU are all 1; with foreground in
// exactly one of them they are all 0.
func CompareMasks(got, want *Raster, threshold uint8) (MaskMetrics, error) {
	if !got.valid() || !want.valid() {
		return MaskMetrics{}, fmt.Errorf("compare masks: invalid raster")
	}
	if got.Width != want.Width || got.Height != want.Height {
		return MaskMetrics{}, fmt.Errorf("compare masks: dimensions %dx%d and %dx%d differ",
			got.Width, got.Height, want.Width, want.Height)
	}

	n := got.Width * got.Height
	var tp, fp, fn, tn int
	var absDiff float64

	for i := 0; i < n; i++ {
		g := got.Pix[i*4+3]
		w := want.Pix[i*4+3]

		d := int(g) - int(w)
		if d < 0 {
			d = -d
		}
		absDiff += float64(d)

		gFg := g >= threshold
		wFg := w >= threshold
		switch {
		case gFg && wFg:
			tp++
		case gFg && !wFg:
			fp++
		case !gFg && wFg:
			fn++
		default:
			tn++
		}
	}

	m := MaskMetrics{
		Agreement:   float64(tp+tn) / float64(n),
		MeanAbsDiff: absDiff / float64(n),
	}

	if tp+fp == 0 {
		if fn == 0 {
			m.Precision = 1
		}
	} else {
		m.Precision = float64(tp) / float64(tp+fp)
	}

	if tp+fn == 0 {
		if fp == 0 {
			m.Recall = 1
		}
	} else {
		m.Recall = float64(tp) / float64(tp+fn)
	}

	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	union := tp + fp + fn
	if union == 0 {
		m.IoU = 1
	} else {
		m.IoU = float64(tp) / float64(union)
	}

	return m, nil
}
