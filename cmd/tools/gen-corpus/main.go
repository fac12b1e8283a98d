// Command gen-corpus writes synthetic labeled wall fixtures: flat painted
// walls with occluding shapes plus matching ground-truth masks, saved as the
// <name>.png / <name>.mask.png pairs the corpus loader expects.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/occlusion/corpus"
)

var (
	outputDir = flag.String("o", "corpus", "output directory for sample pairs")
	count     = flag.Int("n", 8, "number of samples to generate")
	size      = flag.Int("size", 256, "sample width and height in pixels")
	seed      = flag.Int64("seed", 1, "random seed; a fixed seed reproduces the same fixtures")
)

// Shape kinds cycle so any corpus size covers hard edges, curved edges, soft
// edges, and the empty wall.
const (
	kindRect = iota
	kindRing
	kindBlob
	kindFlat
	kindCount
)

func kindName(kind int) string {
	switch kind {
	case kindRect:
		return "rect"
	case kindRing:
		return "ring"
	case kindBlob:
		return "blob"
	default:
		return "flat"
	}
}

func main() {
	flag.Parse()

	if *count < 1 {
		log.Fatal("sample count must be at least 1")
	}
	if *size < 32 {
		log.Fatal("sample size must be at least 32 pixels")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	written, err := generate(*outputDir, *count, *size, *seed)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}
	log.Printf("✓ Created %d sample pairs in %s", written, *outputDir)
}

func generate(dir string, n, size int, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	written := 0
	for i := 0; i < n; i++ {
		kind := i % kindCount
		name := fmt.Sprintf("%s_%03d", kindName(kind), i)

		photo, truth := renderSample(kind, size, rng)

		if err := imaging.Save(photo.Image(), filepath.Join(dir, name+".png")); err != nil {
			return written, fmt.Errorf("save %s: %w", name, err)
		}
		if err := corpus.SaveMaskPNG(filepath.Join(dir, name+corpus.MaskSuffix), truth); err != nil {
			return written, err
		}
		written++
		log.Printf("%s: %dx%d", name, size, size)
	}
	return written, nil
}

func renderSample(kind, size int, rng *rand.Rand) (*occlusion.Raster, *occlusion.Raster) {
	photo := renderWall(size, rng)
	truth := occlusion.NewRaster(size, size)

	switch kind {
	case kindRect:
		drawRect(photo, truth, size, rng)
	case kindRing:
		drawRing(photo, truth, size, rng)
	case kindBlob:
		drawBlob(photo, truth, size, rng)
	case kindFlat:
		// bare wall, truth stays empty
	}
	return photo, truth
}

// renderWall paints a plausible wall crop: one base color with per-pixel
// noise and a gentle illumination falloff toward the bottom-right corner.
func renderWall(size int, rng *rand.Rand) *occlusion.Raster {
	r := occlusion.NewRaster(size, size)
	baseR := 190 + rng.Intn(40)
	baseG := 185 + rng.Intn(40)
	baseB := 175 + rng.Intn(40)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			falloff := 12 * (x + y) / (2 * size)
			noise := rng.Intn(7) - 3
			r.SetRGBA(x, y,
				clampByte(baseR-falloff+noise),
				clampByte(baseG-falloff+noise),
				clampByte(baseB-falloff+noise),
				255)
		}
	}
	return r
}

// drawRect paints a hard-edged box, the switch-plate and shelf case.
func drawRect(photo, truth *occlusion.Raster, size int, rng *rand.Rand) {
	w := size/6 + rng.Intn(size/4)
	h := size/6 + rng.Intn(size/4)
	x0 := size/8 + rng.Intn(size-size/4-w)
	y0 := size/8 + rng.Intn(size-size/4-h)

	cr, cg, cb := objectColor(rng)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			noise := rng.Intn(5) - 2
			photo.SetRGBA(x, y, clampByte(cr+noise), clampByte(cg+noise), clampByte(cb+noise), 255)
			truth.SetRGBA(x, y, 255, 255, 255, 255)
		}
	}
}

// drawRing paints an annulus, standing in for frames and mirrors that leave
// wall visible through the middle.
func drawRing(photo, truth *occlusion.Raster, size int, rng *rand.Rand) {
	cx := float64(size/2 + rng.Intn(size/4) - size/8)
	cy := float64(size/2 + rng.Intn(size/4) - size/8)
	outer := float64(size/6 + rng.Intn(size/8))
	inner := outer * 0.55

	cr, cg, cb := objectColor(rng)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d > outer || d < inner {
				continue
			}
			noise := rng.Intn(5) - 2
			photo.SetRGBA(x, y, clampByte(cr+noise), clampByte(cg+noise), clampByte(cb+noise), 255)
			truth.SetRGBA(x, y, 255, 255, 255, 255)
		}
	}
}

// drawBlob paints a radial-falloff object whose rim blends into the wall, so
// the truth mask carries intermediate strengths rather than a binary label.
func drawBlob(photo, truth *occlusion.Raster, size int, rng *rand.Rand) {
	cx := float64(size/2 + rng.Intn(size/4) - size/8)
	cy := float64(size/2 + rng.Intn(size/4) - size/8)
	radius := float64(size/5 + rng.Intn(size/8))

	cr, cg, cb := objectColor(rng)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d >= radius {
				continue
			}
			// full strength through the core, linear fade over the outer third
			strength := 1.0
			if d > radius*2/3 {
				strength = (radius - d) / (radius / 3)
			}
			a := uint8(strength*255 + 0.5)

			pr, pg, pb, _ := photo.RGBAAt(x, y)
			photo.SetRGBA(x, y,
				blend(pr, clampByte(cr), a),
				blend(pg, clampByte(cg), a),
				blend(pb, clampByte(cb), a),
				255)
			truth.SetRGBA(x, y, a, a, a, a)
		}
	}
}

// blend mixes the object color over the wall pixel by alpha.
func blend(wall, object, alpha uint8) uint8 {
	return uint8((int(wall)*(255-int(alpha)) + int(object)*int(alpha)) / 255)
}

// objectColor picks a paint clearly separated from wall tones.
func objectColor(rng *rand.Rand) (int, int, int) {
	palette := [][3]int{
		{52, 38, 34},  // dark walnut
		{30, 64, 110}, // navy
		{120, 28, 36}, // brick red
		{24, 84, 52},  // forest green
	}
	c := palette[rng.Intn(len(palette))]
	return c[0], c[1], c[2]
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
