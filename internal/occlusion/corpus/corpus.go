// Package corpus loads labeled wall-photo fixtures for mask evaluation and
// calibration. A sample is a pair of PNGs in one directory: <name>.png holds
// the photo crop and <name>.mask.png holds the ground-truth occlusion mask.
package corpus

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/tilevista/wallmask/internal/monitoring"
	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/security"
)

// MaskSuffix marks the ground-truth file of a sample pair.
const MaskSuffix = ".mask.png"

// LabeledSample is one corpus entry: the input photo and its ground-truth
// mask at identical dimensions. The truth raster carries its labels in the
// alpha channel.
type LabeledSample struct {
	Name   string
	Source *occlusion.Raster
	Truth  *occlusion.Raster
}

// LoadDir loads every <name>.png / <name>.mask.png pair in dir, sorted by
// name. Photos larger than maxDim on either side are downscaled to fit
// (CatmullRom); truth masks are resized to the photo's final dimensions with
// nearest-neighbor so labels stay crisp. Sources without a mask file are
// skipped with a log line. Returns an error when the directory yields no
// usable pair.
func LoadDir(dir string, maxDim int) ([]LabeledSample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var samples []LabeledSample
	for _, entry := range entries {
		base := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(base, ".png") || strings.HasSuffix(base, MaskSuffix) {
			continue
		}
		name := strings.TrimSuffix(base, ".png")

		srcPath := filepath.Join(dir, base)
		maskPath := filepath.Join(dir, name+MaskSuffix)
		if err := security.ValidatePathWithinDirectory(srcPath, dir); err != nil {
			monitoring.Logf("[Corpus] skipping %s: %v", base, err)
			continue
		}
		if err := security.ValidatePathWithinDirectory(maskPath, dir); err != nil {
			monitoring.Logf("[Corpus] skipping %s: %v", base, err)
			continue
		}
		if _, err := os.Stat(maskPath); err != nil {
			monitoring.Logf("[Corpus] skipping %s: no mask file", base)
			continue
		}

		source, err := loadRaster(srcPath, maxDim)
		if err != nil {
			return nil, err
		}
		truth, err := loadTruth(maskPath, source.Width, source.Height)
		if err != nil {
			return nil, err
		}

		samples = append(samples, LabeledSample{Name: name, Source: source, Truth: truth})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no labeled sample pairs in %s", dir)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples, nil
}

// SaveMaskPNG writes a mask raster to path. Pipeline masks replicate the
// occlusion value across all four channels, so the PNG renders as white at
// varying opacity and reloads through LoadDir unchanged.
func SaveMaskPNG(path string, mask *occlusion.Raster) error {
	if err := imaging.Save(mask.Image(), path); err != nil {
		return fmt.Errorf("save mask: %w", err)
	}
	return nil
}

func loadRaster(path string, maxDim int) (*occlusion.Raster, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		scale := float64(maxDim) / float64(w)
		if h > w {
			scale = float64(maxDim) / float64(h)
		}
		nw := int(float64(w)*scale + 0.5)
		nh := int(float64(h)*scale + 0.5)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		img = scaleImage(img, nw, nh, xdraw.CatmullRom)
	}
	return occlusion.FromImage(img), nil
}

// loadTruth loads a ground-truth mask and normalizes it to the paired
// photo's dimensions. Fully opaque masks (as exported by most editors) carry
// their labels in luminance; those are rewritten so the alpha channel holds
// the label like pipeline output does.
func loadTruth(path string, width, height int) (*occlusion.Raster, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = scaleImage(img, width, height, xdraw.NearestNeighbor)
	}
	truth := occlusion.FromImage(img)

	opaque := true
	for i := 0; i < width*height; i++ {
		if truth.Pix[i*4+3] != 255 {
			opaque = false
			break
		}
	}
	if opaque {
		luma := truth.LumaPlane()
		for i, v := range luma {
			off := i * 4
			truth.Pix[off] = v
			truth.Pix[off+1] = v
			truth.Pix[off+2] = v
			truth.Pix[off+3] = v
		}
	}
	return truth, nil
}

func scaleImage(img image.Image, width, height int, scaler xdraw.Scaler) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
