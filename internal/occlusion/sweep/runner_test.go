package sweep

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/occlusion/corpus"
)

// wallSample builds a gray wall photo with an optional dark object square
// and a matching truth mask.
func wallSample(name string, size int, withObject bool) corpus.LabeledSample {
	src := occlusion.NewRaster(size, size)
	truth := occlusion.NewRaster(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			src.SetRGBA(x, y, 210, 205, 198, 255)
		}
	}
	if withObject {
		lo, hi := size/3, 2*size/3
		for y := lo; y < hi; y++ {
			for x := lo; x < hi; x++ {
				src.SetRGBA(x, y, 60, 40, 35, 255)
				truth.SetRGBA(x, y, 255, 255, 255, 255)
			}
		}
	}
	return corpus.LabeledSample{Name: name, Source: src, Truth: truth}
}

func testSamples() []corpus.LabeledSample {
	return []corpus.LabeledSample{
		wallSample("object", 24, true),
		wallSample("plain", 24, false),
	}
}

// waitForSweep polls until the runner leaves the running state.
func waitForSweep(t *testing.T, r *Runner) SweepState {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for {
		st := r.State()
		if st.Status != SweepStatusRunning {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("sweep did not finish: %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewRunner_InitialState(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	st := r.State()
	if st.Status != SweepStatusIdle {
		t.Errorf("Expected idle status, got %s", st.Status)
	}
	if st.TotalCombos != 0 || st.CompletedCombos != 0 || len(st.Results) != 0 {
		t.Errorf("Expected empty state, got %+v", st)
	}
	if st.StartedAt != nil || st.CompletedAt != nil {
		t.Errorf("Expected nil timestamps, got %+v", st)
	}
}

func TestRunner_CompletesSweep(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	req := SweepRequest{
		Corpus: "synthetic",
		Params: []SweepParam{
			{Name: "color_distance", Type: "float64", Values: []interface{}{40.0, 60.0}},
			{Name: "use_lab_color", Type: "bool"},
		},
	}
	if err := r.Start(context.Background(), req); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st := waitForSweep(t, r)
	if st.Status != SweepStatusComplete {
		t.Fatalf("Expected complete, got %s (error %q)", st.Status, st.Error)
	}
	if st.TotalCombos != 4 || st.CompletedCombos != 4 {
		t.Errorf("Expected 4/4 combos, got %d/%d", st.CompletedCombos, st.TotalCombos)
	}
	if len(st.Results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(st.Results))
	}
	if st.StartedAt == nil || st.CompletedAt == nil {
		t.Error("Expected both timestamps set")
	}
	if st.Request == nil || st.Request.Corpus != "synthetic" {
		t.Errorf("Expected request echoed in state, got %+v", st.Request)
	}

	// The last parameter cycles fastest.
	if v := st.Results[0].ParamValues["color_distance"]; v != 40.0 {
		t.Errorf("Expected first combo color_distance 40, got %v", v)
	}
	if v := st.Results[0].ParamValues["use_lab_color"]; v != false {
		t.Errorf("Expected first combo use_lab_color false, got %v", v)
	}
	if v := st.Results[1].ParamValues["use_lab_color"]; v != true {
		t.Errorf("Expected second combo use_lab_color true, got %v", v)
	}
	if v := st.Results[2].ParamValues["color_distance"]; v != 60.0 {
		t.Errorf("Expected third combo color_distance 60, got %v", v)
	}

	for i, res := range st.Results {
		if res.Samples != 2 {
			t.Errorf("Result %d: expected 2 samples, got %d", i, res.Samples)
		}
		if res.F1Mean < 0 || res.F1Mean > 1 {
			t.Errorf("Result %d: f1 mean out of range: %f", i, res.F1Mean)
		}
		if res.ForegroundRatioMean < 0 || res.ForegroundRatioMean > 1 {
			t.Errorf("Result %d: foreground ratio out of range: %f", i, res.ForegroundRatioMean)
		}
		if res.WorstSample != "object" && res.WorstSample != "plain" {
			t.Errorf("Result %d: unexpected worst sample %q", i, res.WorstSample)
		}
	}
}

func TestRunner_StartValidation(t *testing.T) {
	base := occlusion.DefaultParams()

	r := NewRunner(testSamples(), base)
	if err := r.Start(context.Background(), SweepRequest{}); err == nil {
		t.Error("Expected error for request without parameters")
	}

	oversized := SweepRequest{Params: []SweepParam{
		{Name: "color_distance", Type: "float64", Start: 0, End: 2000, Step: 1},
	}}
	if err := r.Start(context.Background(), oversized); err == nil {
		t.Error("Expected error for oversized sweep")
	} else if !strings.Contains(err.Error(), "limit") {
		t.Errorf("Expected combination limit error, got %v", err)
	}

	badType := SweepRequest{Params: []SweepParam{
		{Name: "color_distance", Type: "string", Values: []interface{}{"x"}},
	}}
	if err := r.Start(context.Background(), badType); err == nil {
		t.Error("Expected error for unsupported parameter type")
	}

	empty := NewRunner(nil, base)
	ok := SweepRequest{Params: []SweepParam{
		{Name: "color_distance", Type: "float64", Values: []interface{}{58.0}},
	}}
	if err := empty.Start(context.Background(), ok); err == nil {
		t.Error("Expected error for runner without samples")
	}

	if st := r.State(); st.Status != SweepStatusIdle {
		t.Errorf("Rejected requests must not change state, got %s", st.Status)
	}
}

func TestRunner_UnknownParameterFailsRun(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	req := SweepRequest{Params: []SweepParam{
		{Name: "no_such_parameter", Type: "float64", Values: []interface{}{1.0}},
	}}
	if err := r.Start(context.Background(), req); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st := waitForSweep(t, r)
	if st.Status != SweepStatusError {
		t.Fatalf("Expected error status, got %s", st.Status)
	}
	if !strings.Contains(st.Error, "unknown sweep parameter") {
		t.Errorf("Expected unknown parameter error, got %q", st.Error)
	}
}

func TestRunner_RejectsConcurrentSweep(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	long := SweepRequest{Params: []SweepParam{
		{Name: "color_distance", Type: "float64", Start: 30, End: 80, Step: 0.25},
	}}
	if err := r.Start(context.Background(), long); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	second := SweepRequest{Params: []SweepParam{
		{Name: "gamma", Type: "float64", Values: []interface{}{0.7}},
	}}
	err := r.Start(context.Background(), second)
	if err == nil {
		t.Error("Expected error starting a second sweep while one runs")
	} else if !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("Expected in-progress error, got %v", err)
	}

	r.Stop()
	waitForSweep(t, r)
}

func TestRunner_StopCancelsBetweenCombinations(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	long := SweepRequest{Params: []SweepParam{
		{Name: "color_distance", Type: "float64", Start: 30, End: 80, Step: 0.25},
	}}
	if err := r.Start(context.Background(), long); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()

	st := waitForSweep(t, r)
	if st.Status != SweepStatusError {
		t.Fatalf("Expected error status after stop, got %s", st.Status)
	}
	if !strings.Contains(st.Error, "stopped at combination") {
		t.Errorf("Expected stop message, got %q", st.Error)
	}
	if st.CompletedCombos >= st.TotalCombos {
		t.Errorf("Expected early termination, got %d/%d", st.CompletedCombos, st.TotalCombos)
	}
	if st.CompletedAt == nil {
		t.Error("Expected completion timestamp after stop")
	}
}

func TestRunner_RestartsAfterCompletion(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	req := SweepRequest{Params: []SweepParam{
		{Name: "gamma", Type: "float64", Values: []interface{}{0.6, 0.8}},
	}}

	for attempt := 0; attempt < 2; attempt++ {
		if err := r.Start(context.Background(), req); err != nil {
			t.Fatalf("Start attempt %d failed: %v", attempt, err)
		}
		st := waitForSweep(t, r)
		if st.Status != SweepStatusComplete {
			t.Fatalf("Attempt %d: expected complete, got %s (%q)", attempt, st.Status, st.Error)
		}
		if len(st.Results) != 2 {
			t.Fatalf("Attempt %d: expected 2 results, got %d", attempt, len(st.Results))
		}
	}
}

func TestRunner_StateSnapshotIsIsolated(t *testing.T) {
	r := NewRunner(testSamples(), occlusion.DefaultParams())
	req := SweepRequest{Params: []SweepParam{
		{Name: "gamma", Type: "float64", Values: []interface{}{0.7}},
	}}
	if err := r.Start(context.Background(), req); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForSweep(t, r)

	st := r.State()
	if len(st.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(st.Results))
	}
	st.Results[0].F1Mean = -99

	if again := r.State(); again.Results[0].F1Mean == -99 {
		t.Error("State snapshot shares results storage with the runner")
	}
}

func TestStddevOrZero(t *testing.T) {
	if v := stddevOrZero(nil); v != 0 {
		t.Errorf("Expected 0 for empty input, got %f", v)
	}
	if v := stddevOrZero([]float64{0.5}); v != 0 {
		t.Errorf("Expected 0 for single sample, got %f", v)
	}
	v := stddevOrZero([]float64{1, 3})
	if math.Abs(v-math.Sqrt2) > 1e-12 {
		t.Errorf("Expected sqrt(2), got %f", v)
	}
}
