package occlusion

import (
	"image"
	"image/draw"
)

// Raster is an RGBA pixel grid with four interleaved 8-bit channels. Pix
// holds Width*Height*4 bytes and the pixel at (x, y) starts at byte
// (y*Width+x)*4. Pipeline stages treat a constructed Raster as read-only and
// allocate fresh buffers for their outputs.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zeroed raster. Dimensions below 1x1 yield the
// degenerate 1x1 transparent raster that BuildMask returns for malformed
// input; callers treat it as "no mask available".
func NewRaster(width, height int) *Raster {
	if width < 1 || height < 1 {
		return &Raster{Width: 1, Height: 1, Pix: make([]uint8, 4)}
	}
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height*4)}
}

// FromImage converts any image.Image into a Raster. The source bounds are
// normalized to the origin so Pix indexing stays (y*Width+x)*4 regardless of
// the image's own coordinate space.
func FromImage(img image.Image) *Raster {
	if img == nil {
		return NewRaster(0, 0)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return NewRaster(0, 0)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Raster{Width: w, Height: h, Pix: rgba.Pix}
}

// Image returns the raster as a freshly allocated *image.RGBA.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Pix)
	return img
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Offset returns the index of the first byte of the pixel at (x, y).
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * 4
}

// RGBAAt returns the channels of the pixel at (x, y).
func (r *Raster) RGBAAt(x, y int) (uint8, uint8, uint8, uint8) {
	off := r.Offset(x, y)
	return r.Pix[off], r.Pix[off+1], r.Pix[off+2], r.Pix[off+3]
}

// SetRGBA writes the channels of the pixel at (x, y).
func (r *Raster) SetRGBA(x, y int, red, green, blue, alpha uint8) {
	off := r.Offset(x, y)
	r.Pix[off] = red
	r.Pix[off+1] = green
	r.Pix[off+2] = blue
	r.Pix[off+3] = alpha
}

// AlphaAt returns the alpha channel of the pixel at (x, y), the channel that
// carries occlusion strength in pipeline output.
func (r *Raster) AlphaAt(x, y int) uint8 {
	return r.Pix[r.Offset(x, y)+3]
}

// AlphaPlane extracts the alpha channel as a flat single-channel buffer.
func (r *Raster) AlphaPlane() []uint8 {
	out := make([]uint8, r.Width*r.Height)
	for i := range out {
		out[i] = r.Pix[i*4+3]
	}
	return out
}

// LumaPlane extracts BT.709 luminance as a flat single-channel buffer.
func (r *Raster) LumaPlane() []uint8 {
	return grayscale(r)
}

// valid reports whether the raster has positive dimensions and a pixel
// buffer large enough for them.
func (r *Raster) valid() bool {
	return r != nil && r.Width >= 1 && r.Height >= 1 && len(r.Pix) >= r.Width*r.Height*4
}
