package occlusion

import "math"

// sobelMagnitude computes the per-pixel gradient magnitude of the luma plane
// with the two 3x3 Sobel kernels. Magnitude is the Euclidean norm
// sqrt(gx^2+gy^2), not the L1 shortcut; the result feeds a statistical
// threshold. Border pixels stay at zero. Returns the float magnitude plane
// and the maximum magnitude seen.
func sobelMagnitude(gray []uint8, w, h int) ([]float64, float64) {
	mag := make([]float64, w*h)
	if w < 3 || h < 3 {
		return mag, 0
	}

	maxMag := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x

			tl := float64(gray[i-w-1])
			tc := float64(gray[i-w])
			tr := float64(gray[i-w+1])
			ml := float64(gray[i-1])
			mr := float64(gray[i+1])
			bl := float64(gray[i+w-1])
			bc := float64(gray[i+w])
			br := float64(gray[i+w+1])

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			m := math.Sqrt(gx*gx + gy*gy)
			mag[i] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}
	return mag, maxMag
}
