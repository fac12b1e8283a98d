package occlusion

import "math"

// gaussianKernel builds an odd-length 1D kernel of 2r+1 weights
// exp(-(i^2)/(2*sigma^2)) normalized to sum to 1.
func gaussianKernel(radius int, sigma float64) []float64 {
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian to the mask: one horizontal pass
// and one vertical pass with the same 1D kernel, O(r) per pixel per pass
// instead of O(r^2) for the full 2D convolution. Samples past the raster
// edge clamp to the border pixel. Output values round to nearest. Radius 0
// returns an unmodified copy.
func gaussianBlur(mask []uint8, w, h, radius int, sigma float64) []uint8 {
	out := make([]uint8, len(mask))
	if radius <= 0 {
		copy(out, mask)
		return out
	}

	kernel := gaussianKernel(radius, sigma)
	tmp := make([]float64, len(mask))

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				sx := clampInt(x+i, 0, w-1)
				acc += kernel[i+radius] * float64(mask[row+sx])
			}
			tmp[row+x] = acc
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				sy := clampInt(y+i, 0, h-1)
				acc += kernel[i+radius] * tmp[sy*w+x]
			}
			out[y*w+x] = uint8(math.Round(clampFloat(acc, 0, 255)))
		}
	}
	return out
}
