package occlusion

// Shared fixture builders for the pipeline tests.

// makeUniformRaster returns a w x h raster filled with one opaque color.
func makeUniformRaster(w, h int, r, g, b uint8) *Raster {
	out := NewRaster(w, h)
	for i := 0; i < w*h; i++ {
		off := i * 4
		out.Pix[off] = r
		out.Pix[off+1] = g
		out.Pix[off+2] = b
		out.Pix[off+3] = 255
	}
	return out
}

// makeSquareRaster returns a raster with a solid foreground square drawn over
// a uniform background. The square spans [x0, x1] x [y0, y1] inclusive.
func makeSquareRaster(w, h int, bgR, bgG, bgB uint8, x0, y0, x1, y1 int, fgR, fgG, fgB uint8) *Raster {
	out := makeUniformRaster(w, h, bgR, bgG, bgB)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out.SetRGBA(x, y, fgR, fgG, fgB, 255)
		}
	}
	return out
}

// makeMaskRaster builds a raster whose four channels all replicate the given
// single-channel plane, matching the pipeline's output layout.
func makeMaskRaster(w, h int, plane []uint8) *Raster {
	out := NewRaster(w, h)
	for i, v := range plane {
		off := i * 4
		out.Pix[off] = v
		out.Pix[off+1] = v
		out.Pix[off+2] = v
		out.Pix[off+3] = v
	}
	return out
}

// makePatternMask returns a deterministic plane with values spread over the
// byte range.
func makePatternMask(w, h int) []uint8 {
	out := make([]uint8, w*h)
	for i := range out {
		out[i] = uint8((i*37 + 11) % 251)
	}
	return out
}

// makeRingMask returns a plane containing a closed square ring of 255. The
// ring's outer bounds are [x0, x1] x [y0, y1] inclusive with the given
// thickness; everything else, including the enclosed interior, stays 0.
func makeRingMask(w, h, x0, y0, x1, y1, thickness int) []uint8 {
	out := make([]uint8, w*h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			onBorder := x-x0 < thickness || x1-x < thickness || y-y0 < thickness || y1-y < thickness
			if onBorder {
				out[y*w+x] = 255
			}
		}
	}
	return out
}
