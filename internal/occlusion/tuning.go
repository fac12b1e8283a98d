package occlusion

import (
	"github.com/tilevista/wallmask/internal/config"
)

// TunedParams returns Params loaded from the canonical tuning defaults file
// (config/tuning.defaults.json). Panics if the file cannot be found;
// intended for tests and binaries that have already validated config
// availability.
func TunedParams() Params {
	return ParamsFromTuning(config.MustLoadDefaultConfig())
}

// ParamsFromTuning builds pipeline Params from a loaded TuningConfig. Use
// this in production code where the TuningConfig is already loaded. Fields
// absent from the JSON fall back to the getters' documented defaults, so a
// partial config yields a complete parameter set.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		ThresholdFloor:       float64(cfg.GetThresholdFloor()),
		ThresholdCeiling:     float64(cfg.GetThresholdCeiling()),
		SealDilateRadius:     cfg.GetSealDilateRadius(),
		EdgeDilateRadius:     cfg.GetEdgeDilateRadius(),
		EdgeBlurRadius:       cfg.GetEdgeBlurRadius(),
		EdgeBlurSigma:        cfg.GetEdgeBlurSigma(),
		ColorDistance:        cfg.GetColorDistance(),
		UseLabColor:          cfg.GetUseLabColor(),
		ColorDilateRadius:    cfg.GetColorDilateRadius(),
		ColorBlurRadius:      cfg.GetColorBlurRadius(),
		ColorBlurSigma:       cfg.GetColorBlurSigma(),
		BorderBandFraction:   cfg.GetBorderBandFraction(),
		BorderSamplesPerEdge: cfg.GetBorderSamplesPerEdge(),
		GateDilateRadius:     cfg.GetGateDilateRadius(),
		GateBlurRadius:       cfg.GetGateBlurRadius(),
		GateBlurSigma:        cfg.GetGateBlurSigma(),
		Gamma:                cfg.GetGamma(),
	}
}

// ApplyTuning overlays the fields present in cfg onto p and returns the
// result. Unlike ParamsFromTuning, fields absent from cfg keep their current
// values rather than reverting to defaults, which is what a runtime update
// through /api/params needs.
func ApplyTuning(p Params, cfg *config.TuningConfig) Params {
	if cfg == nil {
		return p
	}
	if cfg.ThresholdFloor != nil {
		p.ThresholdFloor = float64(*cfg.ThresholdFloor)
	}
	if cfg.ThresholdCeiling != nil {
		p.ThresholdCeiling = float64(*cfg.ThresholdCeiling)
	}
	if cfg.SealDilateRadius != nil {
		p.SealDilateRadius = *cfg.SealDilateRadius
	}
	if cfg.EdgeDilateRadius != nil {
		p.EdgeDilateRadius = *cfg.EdgeDilateRadius
	}
	if cfg.EdgeBlurRadius != nil {
		p.EdgeBlurRadius = *cfg.EdgeBlurRadius
	}
	if cfg.EdgeBlurSigma != nil {
		p.EdgeBlurSigma = *cfg.EdgeBlurSigma
	}
	if cfg.ColorDistance != nil {
		p.ColorDistance = *cfg.ColorDistance
	}
	if cfg.UseLabColor != nil {
		p.UseLabColor = *cfg.UseLabColor
	}
	if cfg.ColorDilateRadius != nil {
		p.ColorDilateRadius = *cfg.ColorDilateRadius
	}
	if cfg.ColorBlurRadius != nil {
		p.ColorBlurRadius = *cfg.ColorBlurRadius
	}
	if cfg.ColorBlurSigma != nil {
		p.ColorBlurSigma = *cfg.ColorBlurSigma
	}
	if cfg.BorderBandFraction != nil {
		p.BorderBandFraction = *cfg.BorderBandFraction
	}
	if cfg.BorderSamplesPerEdge != nil {
		p.BorderSamplesPerEdge = *cfg.BorderSamplesPerEdge
	}
	if cfg.GateDilateRadius != nil {
		p.GateDilateRadius = *cfg.GateDilateRadius
	}
	if cfg.GateBlurRadius != nil {
		p.GateBlurRadius = *cfg.GateBlurRadius
	}
	if cfg.GateBlurSigma != nil {
		p.GateBlurSigma = *cfg.GateBlurSigma
	}
	if cfg.Gamma != nil {
		p.Gamma = *cfg.Gamma
	}
	return p
}
