package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RangeSpec is a swept floating-point parameter range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// IntRangeSpec is a swept integer parameter range.
type IntRangeSpec struct {
	Min  int
	Max  int
	Step int
}

// maxRangeValues bounds generated ranges so a malformed request cannot
// allocate without limit.
const maxRangeValues = 10000

// ParseRangeSpec parses a "min:max:step" string.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}
	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}
	if step <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", step)
	}
	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// ParseIntRangeSpec parses a "min:max:step" string with integer fields.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return IntRangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}
	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}
	step, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}
	if step <= 0 {
		return IntRangeSpec{}, fmt.Errorf("step must be positive, got %d", step)
	}
	return IntRangeSpec{Min: min, Max: max, Step: step}, nil
}

// GenerateRange expands min..max inclusive by step. Values are rounded to
// three decimals to keep accumulated floating-point error out of parameter
// labels. Returns nil when the range is inverted or would exceed
// maxRangeValues.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	count := int((max-min)/step) + 1
	if count < 0 || count > maxRangeValues {
		return nil
	}

	var out []float64
	for v := min; v <= max+step/1000; v += step {
		if len(out) >= maxRangeValues {
			break
		}
		rounded := math.Round(v*1000) / 1000
		if rounded <= max {
			out = append(out, rounded)
		}
	}
	return out
}

// GenerateIntRange expands min..max inclusive by step. Returns nil when the
// range is inverted or would exceed maxRangeValues.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	count := (max-min)/step + 1
	if count < 0 || count > maxRangeValues {
		return nil
	}

	var out []int
	for v := min; v <= max; v += step {
		if len(out) >= maxRangeValues {
			break
		}
		out = append(out, v)
	}
	return out
}

// ParseParamList parses either a "min:max:step" range or a comma-separated
// list of floats. Empty input yields nil.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateRange(spec.Min, spec.Max, spec.Step), nil
	}

	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseIntParamList parses either a "min:max:step" range or a
// comma-separated list of ints. Empty input yields nil.
func ParseIntParamList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseIntRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateIntRange(spec.Min, spec.Max, spec.Step), nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
