package occlusion

// Params carries the tunable constants of the mask pipeline. The defaults
// were calibrated on interior wall photos; the sweep package searches
// alternatives against a labeled corpus when they need re-deriving.
type Params struct {
	// ThresholdFloor is the lower clamp on the adaptive gradient
	// threshold, e.g. 35. Keeps low-contrast photos from flagging noise.
	ThresholdFloor float64 `json:"threshold_floor"`
	// ThresholdCeiling is the upper clamp on the adaptive gradient
	// threshold, e.g. 180. Keeps high-contrast photos from missing edges.
	ThresholdCeiling float64 `json:"threshold_ceiling"`

	// SealDilateRadius grows the binary edge mask before interior fill so
	// small gaps in object contours close, e.g. 2.
	SealDilateRadius int `json:"seal_dilate_radius"`
	// EdgeDilateRadius grows the combined edge+interior mask before its
	// final soften, e.g. 2.
	EdgeDilateRadius int `json:"edge_dilate_radius"`
	// EdgeBlurRadius softens the structural mask, e.g. 3.
	EdgeBlurRadius int `json:"edge_blur_radius"`
	// EdgeBlurSigma is the Gaussian sigma for the structural soften, e.g. 1.5.
	EdgeBlurSigma float64 `json:"edge_blur_sigma"`

	// ColorDistance is the minimum per-pixel color deviation from the wall
	// estimate considered foreground, e.g. 58 on the 0-255 channel scale.
	// Fixed rather than adaptive: color is a noisier signal than gradients
	// and is gated spatially instead.
	ColorDistance float64 `json:"color_distance"`
	// UseLabColor switches the deviation metric from Euclidean RGB to CIE
	// Lab distance (ColorDistance rescaled to the unit Lab range).
	UseLabColor bool `json:"use_lab_color"`
	// ColorDilateRadius grows the raw color mask, e.g. 2.
	ColorDilateRadius int `json:"color_dilate_radius"`
	// ColorBlurRadius softens the color mask, e.g. 3.
	ColorBlurRadius int `json:"color_blur_radius"`
	// ColorBlurSigma is the Gaussian sigma for the color soften, e.g. 1.5.
	ColorBlurSigma float64 `json:"color_blur_sigma"`

	// BorderBandFraction sets the wall-color sampling band depth as a
	// fraction of min(width, height), e.g. 0.08.
	BorderBandFraction float64 `json:"border_band_fraction"`
	// BorderSamplesPerEdge bounds how many samples each edge contributes
	// to the wall-color estimate, e.g. 64.
	BorderSamplesPerEdge int `json:"border_samples_per_edge"`

	// GateDilateRadius grows the structural mask into the object-proximity
	// gate, e.g. 10.
	GateDilateRadius int `json:"gate_dilate_radius"`
	// GateBlurRadius softens the gate, e.g. 8.
	GateBlurRadius int `json:"gate_blur_radius"`
	// GateBlurSigma is the Gaussian sigma for the gate soften, e.g. 4.
	GateBlurSigma float64 `json:"gate_blur_sigma"`

	// Gamma is the exponent of the final tone curve pow(v/255, Gamma)*255,
	// e.g. 0.7. Values below 1 brighten mid-tones so blurred object
	// boundaries survive compositing.
	Gamma float64 `json:"gamma"`
}

// DefaultParams returns the calibrated pipeline defaults.
func DefaultParams() Params {
	return Params{
		ThresholdFloor:       35,
		ThresholdCeiling:     180,
		SealDilateRadius:     2,
		EdgeDilateRadius:     2,
		EdgeBlurRadius:       3,
		EdgeBlurSigma:        1.5,
		ColorDistance:        58,
		UseLabColor:          false,
		ColorDilateRadius:    2,
		ColorBlurRadius:      3,
		ColorBlurSigma:       1.5,
		BorderBandFraction:   0.08,
		BorderSamplesPerEdge: 64,
		GateDilateRadius:     10,
		GateBlurRadius:       8,
		GateBlurSigma:        4,
		Gamma:                0.7,
	}
}

// maxStageRadius bounds dilate and blur radii so a hostile or garbage
// parameter set cannot turn one invocation into an unbounded scan.
const maxStageRadius = 64

// sanitized clamps out-of-range fields to workable values. BuildMask applies
// it once on entry so stage code can assume well-formed parameters.
func (p Params) sanitized() Params {
	p.ThresholdFloor = clampFloat(p.ThresholdFloor, 0, 255)
	p.ThresholdCeiling = clampFloat(p.ThresholdCeiling, 0, 255)
	if p.ThresholdFloor > p.ThresholdCeiling {
		p.ThresholdFloor, p.ThresholdCeiling = p.ThresholdCeiling, p.ThresholdFloor
	}

	p.SealDilateRadius = clampInt(p.SealDilateRadius, 0, maxStageRadius)
	p.EdgeDilateRadius = clampInt(p.EdgeDilateRadius, 0, maxStageRadius)
	p.EdgeBlurRadius = clampInt(p.EdgeBlurRadius, 0, maxStageRadius)
	p.ColorDilateRadius = clampInt(p.ColorDilateRadius, 0, maxStageRadius)
	p.ColorBlurRadius = clampInt(p.ColorBlurRadius, 0, maxStageRadius)
	p.GateDilateRadius = clampInt(p.GateDilateRadius, 0, maxStageRadius)
	p.GateBlurRadius = clampInt(p.GateBlurRadius, 0, maxStageRadius)

	if p.EdgeBlurSigma <= 0 {
		p.EdgeBlurSigma = 1.5
	}
	if p.ColorBlurSigma <= 0 {
		p.ColorBlurSigma = 1.5
	}
	if p.GateBlurSigma <= 0 {
		p.GateBlurSigma = 4
	}

	if p.ColorDistance < 0 {
		p.ColorDistance = 0
	}
	if p.BorderBandFraction <= 0 || p.BorderBandFraction > 0.5 {
		p.BorderBandFraction = 0.08
	}
	if p.BorderSamplesPerEdge < 1 {
		p.BorderSamplesPerEdge = 64
	}
	if p.Gamma <= 0 {
		p.Gamma = 0.7
	}
	return p
}
