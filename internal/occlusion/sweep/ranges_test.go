package sweep

import (
	"reflect"
	"testing"
)

func TestParseRangeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  RangeSpec
		expectErr bool
	}{
		{"valid_range", "30:80:5", RangeSpec{Min: 30, Max: 80, Step: 5}, false},
		{"fractional", "0.5:0.9:0.1", RangeSpec{Min: 0.5, Max: 0.9, Step: 0.1}, false},
		{"with_spaces", " 30 : 80 : 5 ", RangeSpec{Min: 30, Max: 80, Step: 5}, false},
		{"negative_min", "-1:1:0.5", RangeSpec{Min: -1, Max: 1, Step: 0.5}, false},
		{"missing_parts", "30:80", RangeSpec{}, true},
		{"too_many_parts", "30:80:5:1", RangeSpec{}, true},
		{"invalid_min", "abc:80:5", RangeSpec{}, true},
		{"invalid_max", "30:abc:5", RangeSpec{}, true},
		{"invalid_step", "30:80:abc", RangeSpec{}, true},
		{"zero_step", "30:80:0", RangeSpec{}, true},
		{"negative_step", "30:80:-5", RangeSpec{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseRangeSpec(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if result != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, result)
			}
		})
	}
}

func TestParseIntRangeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  IntRangeSpec
		expectErr bool
	}{
		{"valid_range", "2:10:2", IntRangeSpec{Min: 2, Max: 10, Step: 2}, false},
		{"with_spaces", " 2 : 10 : 2 ", IntRangeSpec{Min: 2, Max: 10, Step: 2}, false},
		{"negative_min", "-4:4:2", IntRangeSpec{Min: -4, Max: 4, Step: 2}, false},
		{"missing_parts", "2:10", IntRangeSpec{}, true},
		{"float_value", "2.5:10:2", IntRangeSpec{}, true},
		{"invalid_min", "abc:10:2", IntRangeSpec{}, true},
		{"invalid_max", "2:abc:2", IntRangeSpec{}, true},
		{"invalid_step", "2:10:abc", IntRangeSpec{}, true},
		{"zero_step", "2:10:0", IntRangeSpec{}, true},
		{"negative_step", "2:10:-2", IntRangeSpec{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseIntRangeSpec(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if result != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, result)
			}
		})
	}
}

func TestGenerateRange(t *testing.T) {
	testCases := []struct {
		name     string
		min      float64
		max      float64
		step     float64
		expected []float64
	}{
		{"simple_range", 30, 50, 10, []float64{30, 40, 50}},
		{"single_value", 58, 58, 1, []float64{58}},
		{"half_steps", 0.5, 2, 0.5, []float64{0.5, 1, 1.5, 2}},
		{"step_overshoots_max", 0, 10, 4, []float64{0, 4, 8}},
		{"negative_range", -3, -1, 1, []float64{-3, -2, -1}},
		{"min_greater_than_max", 50, 30, 10, nil},
		{"zero_step", 30, 50, 0, nil},
		{"negative_step", 30, 50, -10, nil},
		{"over_value_cap", 0, 100000, 1, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateRange(tc.min, tc.max, tc.step)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestGenerateRange_RoundsAccumulatedError(t *testing.T) {
	// Summing 0.1 ten times lands at 0.9999...; rounding keeps the
	// endpoint and the labels exact.
	expected := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	result := GenerateRange(0, 1, 0.1)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestGenerateIntRange(t *testing.T) {
	testCases := []struct {
		name     string
		min      int
		max      int
		step     int
		expected []int
	}{
		{"simple_range", 1, 5, 1, []int{1, 2, 3, 4, 5}},
		{"step_2", 0, 10, 2, []int{0, 2, 4, 6, 8, 10}},
		{"step_overshoots_max", 0, 10, 3, []int{0, 3, 6, 9}},
		{"single_value", 8, 8, 1, []int{8}},
		{"min_greater_than_max", 10, 1, 1, nil},
		{"zero_step", 1, 5, 0, nil},
		{"negative_step", 1, 5, -1, nil},
		{"over_value_cap", 0, 100000, 1, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateIntRange(tc.min, tc.max, tc.step)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestParseParamList(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  []float64
		expectErr bool
	}{
		{"empty_string", "", nil, false},
		{"csv_values", "40,58,75", []float64{40, 58, 75}, false},
		{"csv_with_spaces", " 40 , 58 ,75", []float64{40, 58, 75}, false},
		{"csv_skips_empty_parts", "40,,58,", []float64{40, 58}, false},
		{"range_spec", "40:60:10", []float64{40, 50, 60}, false},
		{"range_fractional", "0:1:0.5", []float64{0, 0.5, 1}, false},
		{"single_value", "58", []float64{58}, false},
		{"invalid_csv", "40,abc,58", nil, true},
		{"invalid_range", "40:60", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseParamList(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestParseIntParamList(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  []int
		expectErr bool
	}{
		{"empty_string", "", nil, false},
		{"csv_values", "2,4,8", []int{2, 4, 8}, false},
		{"csv_skips_empty_parts", "2,,8,", []int{2, 8}, false},
		{"range_spec", "2:10:4", []int{2, 6, 10}, false},
		{"single_value", "8", []int{8}, false},
		{"invalid_csv", "2,abc,8", nil, true},
		{"invalid_range", "2:10", nil, true},
		{"float_in_csv", "2,4.5,8", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseIntParamList(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}
