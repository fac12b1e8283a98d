package corpus

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/tilevista/wallmask/internal/occlusion"
)

// writeSourcePNG writes an opaque single-color photo fixture.
func writeSourcePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

// writeAlphaMaskPNG writes a truth mask that carries labels in alpha, the
// way pipeline output does.
func writeAlphaMaskPNG(t *testing.T, path string, w, h int, plane []uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, v := range plane {
		img.SetNRGBA(i%w, i/w, color.NRGBA{R: 255, G: 255, B: 255, A: v})
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

// writeGrayMaskPNG writes a fully opaque truth mask that carries labels in
// luminance, the way image editors export them.
func writeGrayMaskPNG(t *testing.T, path string, w, h int, plane []uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, v := range plane {
		img.SetNRGBA(i%w, i/w, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func TestLoadDir_PairsSortedAndOrphansSkipped(t *testing.T) {
	dir := t.TempDir()
	plane := make([]uint8, 8*8)
	for i := range plane {
		if i%3 == 0 {
			plane[i] = 255
		}
	}

	writeSourcePNG(t, filepath.Join(dir, "beta.png"), 8, 8, color.NRGBA{R: 200, G: 190, B: 180, A: 255})
	writeAlphaMaskPNG(t, filepath.Join(dir, "beta.mask.png"), 8, 8, plane)
	writeSourcePNG(t, filepath.Join(dir, "alpha.png"), 8, 8, color.NRGBA{R: 100, G: 110, B: 120, A: 255})
	writeAlphaMaskPNG(t, filepath.Join(dir, "alpha.mask.png"), 8, 8, plane)
	writeSourcePNG(t, filepath.Join(dir, "orphan.png"), 8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	samples, err := LoadDir(dir, 1024)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Name != "alpha" || samples[1].Name != "beta" {
		t.Fatalf("sample order = %q, %q, want alpha, beta", samples[0].Name, samples[1].Name)
	}
	for _, s := range samples {
		if s.Source.Width != 8 || s.Source.Height != 8 {
			t.Fatalf("%s: source dims = %dx%d, want 8x8", s.Name, s.Source.Width, s.Source.Height)
		}
		if !bytes.Equal(s.Truth.AlphaPlane(), plane) {
			t.Fatalf("%s: truth alpha does not round-trip", s.Name)
		}
	}
}

func TestLoadDir_OpaqueGrayMaskReadAsLabels(t *testing.T) {
	dir := t.TempDir()
	plane := []uint8{0, 64, 128, 255, 10, 200, 0, 255, 32}

	writeSourcePNG(t, filepath.Join(dir, "wall.png"), 3, 3, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	writeGrayMaskPNG(t, filepath.Join(dir, "wall.mask.png"), 3, 3, plane)

	samples, err := LoadDir(dir, 1024)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if !bytes.Equal(samples[0].Truth.AlphaPlane(), plane) {
		t.Fatalf("truth alpha = %v, want %v", samples[0].Truth.AlphaPlane(), plane)
	}
}

func TestLoadDir_DownscalesOversizedPhoto(t *testing.T) {
	dir := t.TempDir()

	writeSourcePNG(t, filepath.Join(dir, "big.png"), 64, 32, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	writeGrayMaskPNG(t, filepath.Join(dir, "big.mask.png"), 64, 32, make([]uint8, 64*32))

	samples, err := LoadDir(dir, 32)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	s := samples[0]
	if s.Source.Width != 32 || s.Source.Height != 16 {
		t.Fatalf("source dims = %dx%d, want 32x16", s.Source.Width, s.Source.Height)
	}
	if s.Truth.Width != 32 || s.Truth.Height != 16 {
		t.Fatalf("truth dims = %dx%d, want 32x16", s.Truth.Width, s.Truth.Height)
	}
}

func TestLoadDir_NoPairsIsError(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), 1024); err == nil {
		t.Fatal("empty directory not rejected")
	}
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing"), 1024); err == nil {
		t.Fatal("missing directory not rejected")
	}
}

func TestSaveMaskPNG_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	mask := occlusion.NewRaster(6, 4)
	for i := 0; i < 6*4; i++ {
		v := uint8((i * 13) % 251)
		off := i * 4
		mask.Pix[off] = v
		mask.Pix[off+1] = v
		mask.Pix[off+2] = v
		mask.Pix[off+3] = v
	}

	path := filepath.Join(dir, "out.mask.png")
	if err := SaveMaskPNG(path, mask); err != nil {
		t.Fatalf("SaveMaskPNG: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	loaded := occlusion.FromImage(img)
	if !bytes.Equal(loaded.AlphaPlane(), mask.AlphaPlane()) {
		t.Fatal("saved mask alpha does not round-trip")
	}
}
