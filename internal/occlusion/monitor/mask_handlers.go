package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/tilevista/wallmask/internal/config"
	"github.com/tilevista/wallmask/internal/httputil"
	"github.com/tilevista/wallmask/internal/monitoring"
	"github.com/tilevista/wallmask/internal/occlusion"
)

// maxUploadBytes caps the request body of /api/mask.
const maxUploadBytes = 32 << 20

type maskStatsResponse struct {
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Stats  occlusion.MaskStats `json:"stats"`
}

// handleMask builds an occlusion mask for an uploaded photo. POST the raw
// image bytes (any format the imaging package decodes); the response is the
// mask as PNG, or mask statistics when format=json is given. Photos larger
// than the configured dimension limit are downscaled before masking.
func (ws *WebServer) handleMask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "json" {
		httputil.BadRequest(w, fmt.Sprintf("unsupported format %q", format))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	img, err := imaging.Decode(r.Body)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("decode image: %v", err))
		return
	}

	if ws.maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > ws.maxDim || b.Dy() > ws.maxDim {
			img = imaging.Fit(img, ws.maxDim, ws.maxDim, imaging.CatmullRom)
		}
	}

	src := occlusion.FromImage(img)
	start := time.Now()
	mask := ws.cache.BuildMask(src, ws.currentParams())
	monitoring.Logf("[Monitor] built %dx%d mask in %s", mask.Width, mask.Height, time.Since(start).Round(time.Millisecond))

	if format == "json" {
		httputil.WriteJSONOK(w, maskStatsResponse{
			Width:  mask.Width,
			Height: mask.Height,
			Stats:  occlusion.ComputeMaskStats(mask, occlusion.BinarizeThreshold),
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, mask.Image(), imaging.PNG); err != nil {
		monitoring.Logf("[Monitor] encode mask response: %v", err)
	}
}

// handleParams reads or updates the serving parameter set. GET returns the
// current parameters; POST accepts a partial tuning config and overlays it,
// so fields omitted from the body keep their current values.
func (ws *WebServer) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, ws.currentParams())
	case http.MethodPost:
		cfg, err := decodeTuningConfig(r)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		updated := ws.updateParams(cfg)
		monitoring.Logf("[Monitor] serving parameters updated")
		httputil.WriteJSONOK(w, updated)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// decodeTuningConfig parses and validates a tuning config request body.
func decodeTuningConfig(r *http.Request) (*config.TuningConfig, error) {
	var cfg config.TuningConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode tuning config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
