package occlusion

import "gonum.org/v1/gonum/stat"

// binarizeGradient normalizes gradient magnitudes to [0, 255] by the maximum
// and applies an adaptive threshold of mean + population standard deviation,
// clamped to [floor, ceiling]. The threshold self-adjusts to image contrast
// within those empirically safe bounds. A zero maximum (perfectly flat
// image) yields an all-zero mask rather than dividing by zero.
func binarizeGradient(mag []float64, maxMag float64, floor, ceiling float64) []uint8 {
	out := make([]uint8, len(mag))
	if maxMag <= 0 || len(mag) == 0 {
		return out
	}

	norm := make([]float64, len(mag))
	scale := 255.0 / maxMag
	for i, m := range mag {
		norm[i] = m * scale
	}

	mean := stat.Mean(norm, nil)
	stddev := stat.PopStdDev(norm, nil)
	threshold := clampFloat(mean+stddev, floor, ceiling)

	for i, v := range norm {
		if v >= threshold {
			out[i] = 255
		}
	}
	return out
}
