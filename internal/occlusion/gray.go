package occlusion

// grayscale reduces the raster to a single luma plane using ITU-R BT.709
// weights (0.2126, 0.7152, 0.0722), not a channel average.
func grayscale(src *Raster) []uint8 {
	out := make([]uint8, src.Width*src.Height)
	for i := range out {
		off := i * 4
		r := float64(src.Pix[off])
		g := float64(src.Pix[off+1])
		b := float64(src.Pix[off+2])
		out[i] = uint8(0.2126*r + 0.7152*g + 0.0722*b + 0.5)
	}
	return out
}
