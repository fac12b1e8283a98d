package sweep

import (
	"fmt"
	"math"

	"github.com/tilevista/wallmask/internal/occlusion"
)

// SweepParam describes one swept pipeline parameter. Either Values is given
// explicitly or a Start/End/Step range is expanded on validation. Names use
// the tuning-file keys, e.g. "color_distance".
type SweepParam struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"` // "float64", "int" or "bool"
	Values []interface{} `json:"values,omitempty"`
	Start  float64       `json:"start,omitempty"`
	End    float64       `json:"end,omitempty"`
	Step   float64       `json:"step,omitempty"`
}

// expandParam fills in param.Values from the range fields when no explicit
// values were given, and coerces explicit values to the declared type.
func expandParam(param *SweepParam) error {
	if len(param.Values) > 0 {
		coerced := make([]interface{}, len(param.Values))
		for i, v := range param.Values {
			cv, err := coerceValue(v, param.Type)
			if err != nil {
				return fmt.Errorf("parameter %q value %d: %w", param.Name, i, err)
			}
			coerced[i] = cv
		}
		param.Values = coerced
		return nil
	}

	switch param.Type {
	case "float64":
		if param.Step <= 0 {
			return fmt.Errorf("parameter %q: step must be positive for a range", param.Name)
		}
		vals := GenerateRange(param.Start, param.End, param.Step)
		if len(vals) == 0 {
			return fmt.Errorf("parameter %q: range %f:%f:%f expands to no values", param.Name, param.Start, param.End, param.Step)
		}
		param.Values = make([]interface{}, len(vals))
		for i, v := range vals {
			param.Values[i] = v
		}
	case "int":
		step := int(param.Step)
		if step <= 0 {
			return fmt.Errorf("parameter %q: step must be positive for a range", param.Name)
		}
		vals := GenerateIntRange(int(param.Start), int(param.End), step)
		if len(vals) == 0 {
			return fmt.Errorf("parameter %q: range %d:%d:%d expands to no values", param.Name, int(param.Start), int(param.End), step)
		}
		param.Values = make([]interface{}, len(vals))
		for i, v := range vals {
			param.Values[i] = v
		}
	case "bool":
		param.Values = []interface{}{false, true}
	default:
		return fmt.Errorf("parameter %q: unsupported type %q", param.Name, param.Type)
	}
	return nil
}

// coerceValue converts a JSON-decoded value to the declared parameter type.
// Numbers arrive from encoding/json as float64 regardless of the target.
func coerceValue(v interface{}, typ string) (interface{}, error) {
	switch typ {
	case "float64":
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "int":
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported type %q", typ)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case float64:
		return int(math.Round(x)), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// cartesianProduct expands the swept parameters into one map per
// combination. The last parameter cycles fastest.
func cartesianProduct(params []SweepParam) []map[string]interface{} {
	total := 1
	for _, p := range params {
		total *= len(p.Values)
	}

	combos := make([]map[string]interface{}, 0, total)
	for i := 0; i < total; i++ {
		combo := make(map[string]interface{}, len(params))
		idx := i
		for j := len(params) - 1; j >= 0; j-- {
			n := len(params[j].Values)
			combo[params[j].Name] = params[j].Values[idx%n]
			idx /= n
		}
		combos = append(combos, combo)
	}
	return combos
}

// applyParam sets the named pipeline parameter on p. Names mirror the
// tuning-file keys so sweep requests and config files read alike.
func applyParam(p occlusion.Params, name string, value interface{}) (occlusion.Params, error) {
	switch name {
	case "threshold_floor":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ThresholdFloor = f
	case "threshold_ceiling":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ThresholdCeiling = f
	case "seal_dilate_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.SealDilateRadius = n
	case "edge_dilate_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.EdgeDilateRadius = n
	case "edge_blur_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.EdgeBlurRadius = n
	case "edge_blur_sigma":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.EdgeBlurSigma = f
	case "color_distance":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ColorDistance = f
	case "use_lab_color":
		b, ok := value.(bool)
		if !ok {
			return p, fmt.Errorf("parameter %q: expected bool, got %T", name, value)
		}
		p.UseLabColor = b
	case "color_dilate_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ColorDilateRadius = n
	case "color_blur_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ColorBlurRadius = n
	case "color_blur_sigma":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.ColorBlurSigma = f
	case "border_band_fraction":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.BorderBandFraction = f
	case "border_samples_per_edge":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.BorderSamplesPerEdge = n
	case "gate_dilate_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.GateDilateRadius = n
	case "gate_blur_radius":
		n, err := toInt(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.GateBlurRadius = n
	case "gate_blur_sigma":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.GateBlurSigma = f
	case "gamma":
		f, err := toFloat64(value)
		if err != nil {
			return p, fmt.Errorf("parameter %q: %w", name, err)
		}
		p.Gamma = f
	default:
		return p, fmt.Errorf("unknown sweep parameter %q", name)
	}
	return p, nil
}
