package occlusion

import "math"

// BuildMask runs the full occlusion pipeline over an RGBA crop and returns a
// raster of identical dimensions whose alpha channel holds the per-pixel
// foreground strength in [0, 255]. The same value is replicated into R, G
// and B for debug viewing. The transform is stateless and idempotent: equal
// input and params always produce equal output.
//
// Malformed input (nil raster, zero dimension, short pixel buffer) returns
// the degenerate 1x1 transparent raster instead of failing; callers treat it
// as "no mask available".
func BuildMask(src *Raster, p Params) *Raster {
	if !src.valid() {
		return NewRaster(0, 0)
	}
	p = p.sanitized()
	w, h := src.Width, src.Height

	// Edge pipeline: gradient, adaptive threshold, seal, interior fill,
	// combine, widen, soften.
	gray := grayscale(src)
	mag, maxMag := sobelMagnitude(gray, w, h)
	edges := binarizeGradient(mag, maxMag, p.ThresholdFloor, p.ThresholdCeiling)
	sealed := dilate(edges, w, h, p.SealDilateRadius)
	interior := fillEnclosedRegions(sealed, w, h)
	structural := combineMax(sealed, interior)
	structural = dilate(structural, w, h, p.EdgeDilateRadius)
	structural = gaussianBlur(structural, w, h, p.EdgeBlurRadius, p.EdgeBlurSigma)

	// Color pipeline, independent of the edge pass.
	wall := estimateWallColor(src, p.BorderBandFraction, p.BorderSamplesPerEdge)
	chroma := colorDistanceMask(src, wall, p.ColorDistance, p.UseLabColor)
	chroma = dilate(chroma, w, h, p.ColorDilateRadius)
	chroma = gaussianBlur(chroma, w, h, p.ColorBlurRadius, p.ColorBlurSigma)

	// Object-proximity gate: a generous soft halo around structural
	// detections. Color evidence only counts inside it, so lighting
	// variation on plain wall far from any edge cannot register.
	gate := dilate(structural, w, h, p.GateDilateRadius)
	gate = gaussianBlur(gate, w, h, p.GateBlurRadius, p.GateBlurSigma)

	lut := gammaLUT(p.Gamma)
	out := NewRaster(w, h)
	for i := 0; i < w*h; i++ {
		gated := int(chroma[i]) * int(gate[i]) / 255
		v := int(structural[i])
		if gated > v {
			v = gated
		}
		toned := lut[v]

		off := i * 4
		out.Pix[off] = toned
		out.Pix[off+1] = toned
		out.Pix[off+2] = toned
		out.Pix[off+3] = toned
	}
	return out
}

// gammaLUT precomputes the tone curve pow(v/255, gamma)*255 for all byte
// values.
func gammaLUT(gamma float64) [256]uint8 {
	var lut [256]uint8
	for v := 1; v < 256; v++ {
		lut[v] = uint8(math.Round(math.Pow(float64(v)/255.0, gamma) * 255.0))
	}
	return lut
}
