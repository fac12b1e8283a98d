package occlusion

// dilate replaces each pixel with the maximum value in its (2r+1)x(2r+1)
// square neighborhood. Neighborhood coordinates clamp to the raster edge
// rather than zero-padding, so masks do not erode at image borders. Radius 0
// returns an unmodified copy. The scan early-exits once a 255 is found.
func dilate(mask []uint8, w, h, radius int) []uint8 {
	out := make([]uint8, len(mask))
	if radius <= 0 {
		copy(out, mask)
		return out
	}

	for y := 0; y < h; y++ {
		y0 := clampInt(y-radius, 0, h-1)
		y1 := clampInt(y+radius, 0, h-1)
		for x := 0; x < w; x++ {
			x0 := clampInt(x-radius, 0, w-1)
			x1 := clampInt(x+radius, 0, w-1)

			var best uint8
			for ny := y0; ny <= y1 && best < 255; ny++ {
				row := ny * w
				for nx := x0; nx <= x1; nx++ {
					if v := mask[row+nx]; v > best {
						best = v
						if best == 255 {
							break
						}
					}
				}
			}
			out[y*w+x] = best
		}
	}
	return out
}

// combineMax merges two masks pixel-wise by maximum. Both masks must share
// dimensions.
func combineMax(a, b []uint8) []uint8 {
	out := make([]uint8, len(a))
	for i := range a {
		if a[i] >= b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}
