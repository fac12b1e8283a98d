package occlusion

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// colorDistanceMask flags every pixel whose color deviates from the wall
// estimate by at least threshold (255) and leaves the rest at 0. The default
// metric is Euclidean RGB distance on the 0-255 channel scale. With useLab
// the comparison runs in CIE Lab space via go-colorful, with the threshold
// rescaled by 1/255 to the unit Lab range.
func colorDistanceMask(src *Raster, wall ColorSample, threshold float64, useLab bool) []uint8 {
	out := make([]uint8, src.Width*src.Height)

	if useLab {
		wallCol := colorful.Color{
			R: float64(wall.R) / 255.0,
			G: float64(wall.G) / 255.0,
			B: float64(wall.B) / 255.0,
		}
		labThreshold := threshold / 255.0
		for i := range out {
			off := i * 4
			c := colorful.Color{
				R: float64(src.Pix[off]) / 255.0,
				G: float64(src.Pix[off+1]) / 255.0,
				B: float64(src.Pix[off+2]) / 255.0,
			}
			if c.DistanceLab(wallCol) >= labThreshold {
				out[i] = 255
			}
		}
		return out
	}

	for i := range out {
		off := i * 4
		dr := float64(src.Pix[off]) - float64(wall.R)
		dg := float64(src.Pix[off+1]) - float64(wall.G)
		db := float64(src.Pix[off+2]) - float64(wall.B)
		if math.Sqrt(dr*dr+dg*dg+db*db) >= threshold {
			out[i] = 255
		}
	}
	return out
}
