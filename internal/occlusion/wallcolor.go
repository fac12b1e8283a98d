package occlusion

import "sort"

// ColorSample is one RGB measurement taken from the border band.
type ColorSample struct {
	R, G, B uint8
}

// sum returns the brightness ordering key for median selection.
func (c ColorSample) sum() int {
	return int(c.R) + int(c.G) + int(c.B)
}

// estimateWallColor estimates the dominant wall color by sampling a band
// near the image border, where foreground objects are least likely in a
// user-selected wall crop. The band depth is max(1, floor(min(w,h) *
// bandFraction)). Each edge contributes up to samplesPerEdge evenly strided
// samples taken along the middle of the band. The estimate is the sample
// whose R+G+B sum is the median of all collected samples; an actual sample
// and a median, not a channel mean, so one or two samples landing on an
// object that touches the border cannot skew the result. Zero collected
// samples returns neutral gray (128,128,128).
func estimateWallColor(src *Raster, bandFraction float64, samplesPerEdge int) ColorSample {
	w, h := src.Width, src.Height
	minDim := w
	if h < minDim {
		minDim = h
	}
	depth := int(float64(minDim) * bandFraction)
	if depth < 1 {
		depth = 1
	}
	if samplesPerEdge < 1 {
		samplesPerEdge = 1
	}

	sampleAt := func(samples []ColorSample, x, y int) []ColorSample {
		off := src.Offset(x, y)
		return append(samples, ColorSample{
			R: src.Pix[off],
			G: src.Pix[off+1],
			B: src.Pix[off+2],
		})
	}

	samples := make([]ColorSample, 0, 4*samplesPerEdge)

	// Horizontal edges sample along the middle row of the band.
	yTop := clampInt(depth/2, 0, h-1)
	yBottom := clampInt(h-1-depth/2, 0, h-1)
	strideX := w / samplesPerEdge
	if strideX < 1 {
		strideX = 1
	}
	for x := 0; x < w; x += strideX {
		samples = sampleAt(samples, x, yTop)
		samples = sampleAt(samples, x, yBottom)
	}

	// Vertical edges sample along the middle column of the band.
	xLeft := clampInt(depth/2, 0, w-1)
	xRight := clampInt(w-1-depth/2, 0, w-1)
	strideY := h / samplesPerEdge
	if strideY < 1 {
		strideY = 1
	}
	for y := 0; y < h; y += strideY {
		samples = sampleAt(samples, xLeft, y)
		samples = sampleAt(samples, xRight, y)
	}

	if len(samples) == 0 {
		return ColorSample{R: 128, G: 128, B: 128}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].sum() < samples[j].sum()
	})
	return samples[len(samples)/2]
}
