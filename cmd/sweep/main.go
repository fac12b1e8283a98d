// Command sweep drives a parameter sweep on a running wallmask service: it
// starts the sweep, polls progress until completion, prints the top
// combinations, and exports the full ranked table as CSV.
//
// Parameters are given as repeatable -param flags, either as a numeric range
// or an explicit value list:
//
//	sweep -param "gamma:float64=0.5:0.9:0.2" -param "use_lab_color:bool"
//	sweep -param "seal_kernel_size:int=3,5,7" -top 5
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tilevista/wallmask/internal/httputil"
	"github.com/tilevista/wallmask/internal/occlusion/sweep"
)

// paramSpecs accumulates repeated -param flags.
type paramSpecs []sweep.SweepParam

func (p *paramSpecs) String() string {
	names := make([]string, len(*p))
	for i, param := range *p {
		names[i] = param.Name
	}
	return strings.Join(names, ",")
}

func (p *paramSpecs) Set(s string) error {
	param, err := parseParamSpec(s)
	if err != nil {
		return err
	}
	*p = append(*p, param)
	return nil
}

// parseParamSpec parses one -param argument. The form is name:type=spec
// where spec is either start:end:step for a numeric range or a comma list of
// explicit values. Bool parameters take no spec and sweep both values.
func parseParamSpec(s string) (sweep.SweepParam, error) {
	head, spec, hasSpec := strings.Cut(s, "=")
	name, typ, ok := strings.Cut(head, ":")
	if !ok || name == "" || typ == "" {
		return sweep.SweepParam{}, fmt.Errorf("parameter spec %q must start with name:type", s)
	}
	switch typ {
	case "float64", "int", "bool":
	default:
		return sweep.SweepParam{}, fmt.Errorf("parameter %q has unknown type %q (want float64, int or bool)", name, typ)
	}

	param := sweep.SweepParam{Name: name, Type: typ}
	if !hasSpec {
		if typ != "bool" {
			return sweep.SweepParam{}, fmt.Errorf("parameter %q needs a range or value list", name)
		}
		return param, nil
	}

	if strings.Contains(spec, ":") {
		if typ == "bool" {
			return sweep.SweepParam{}, fmt.Errorf("parameter %q: bool takes no range", name)
		}
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return sweep.SweepParam{}, fmt.Errorf("parameter %q range %q must be start:end:step", name, spec)
		}
		vals := make([]float64, 3)
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return sweep.SweepParam{}, fmt.Errorf("parameter %q range %q: %w", name, spec, err)
			}
			vals[i] = v
		}
		param.Start, param.End, param.Step = vals[0], vals[1], vals[2]
		return param, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		var v interface{}
		var err error
		switch typ {
		case "float64":
			v, err = strconv.ParseFloat(part, 64)
		case "int":
			v, err = strconv.Atoi(part)
		case "bool":
			v, err = strconv.ParseBool(part)
		}
		if err != nil {
			return sweep.SweepParam{}, fmt.Errorf("parameter %q value %q: %w", name, part, err)
		}
		param.Values = append(param.Values, v)
	}
	return param, nil
}

func main() {
	var specs paramSpecs
	monitorURL := flag.String("monitor", "http://localhost:8080", "Base URL of the wallmask service")
	corpusLabel := flag.String("corpus", "", "Corpus label recorded with the sweep")
	output := flag.String("output", "", "Output CSV filename (defaults to sweep-<timestamp>.csv)")
	topN := flag.Int("top", 10, "Number of top combinations to print")
	interval := flag.Duration("interval", 2*time.Second, "Interval between progress polls")
	timeout := flag.Duration("timeout", 15*time.Minute, "Give up if the sweep has not finished by then")
	flag.Var(&specs, "param", "Parameter to sweep as name:type=start:end:step or name:type=v1,v2,... (repeatable)")
	flag.Parse()

	if len(specs) == 0 {
		log.Fatal("at least one -param is required")
	}

	client := httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	base := strings.TrimSuffix(*monitorURL, "/")

	req := sweep.SweepRequest{Params: specs, Corpus: *corpusLabel}
	if err := startSweep(client, base, req); err != nil {
		log.Fatalf("Failed to start sweep: %v", err)
	}
	log.Printf("Sweep started on %s (%d parameters)", base, len(specs))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := pollUntilDone(ctx, client, base, *interval, *timeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if stopErr := stopSweep(client, base); stopErr != nil {
				log.Printf("Warning: failed to stop sweep: %v", stopErr)
			} else {
				log.Print("Sweep stopped")
			}
			return
		}
		log.Fatalf("Sweep failed: %v", err)
	}

	ranked := sweep.RankResults(state.Results, sweep.DefaultObjectiveWeights())
	printTopResults(ranked, *topN)

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-%s.csv", time.Now().Format("20060102-150405"))
	}
	if err := writeResultsCSV(filename, ranked); err != nil {
		log.Fatalf("Failed to write %s: %v", filename, err)
	}
	log.Printf("Results written to %s", filename)
}

// startSweep posts the sweep request to the service.
func startSweep(client httputil.HTTPClient, baseURL string, req sweep.SweepRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := client.Post(baseURL+"/api/sweep/start", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// stopSweep aborts the running sweep.
func stopSweep(client httputil.HTTPClient, baseURL string) error {
	resp, err := client.Post(baseURL+"/api/sweep/stop", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	return nil
}

// fetchState reads the current sweep state from the service.
func fetchState(client httputil.HTTPClient, baseURL string) (sweep.SweepState, error) {
	resp, err := client.Get(baseURL + "/api/sweep/state")
	if err != nil {
		return sweep.SweepState{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sweep.SweepState{}, fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	var state sweep.SweepState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return sweep.SweepState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// pollUntilDone watches the sweep until it leaves the running state. The
// returned error is context.Canceled when the caller was interrupted.
func pollUntilDone(ctx context.Context, client httputil.HTTPClient, baseURL string, interval, timeout time.Duration) (sweep.SweepState, error) {
	deadline := time.Now().Add(timeout)
	lastLogged := -1
	for {
		state, err := fetchState(client, baseURL)
		if err != nil {
			return sweep.SweepState{}, err
		}
		switch state.Status {
		case sweep.SweepStatusComplete:
			return state, nil
		case sweep.SweepStatusError:
			return state, fmt.Errorf("sweep ended with error: %s", state.Error)
		case sweep.SweepStatusIdle:
			return state, fmt.Errorf("service reports no sweep running")
		}
		if state.CompletedCombos != lastLogged {
			log.Printf("Progress: %d/%d combinations", state.CompletedCombos, state.TotalCombos)
			lastLogged = state.CompletedCombos
		}
		if time.Now().After(deadline) {
			return state, fmt.Errorf("sweep did not finish within %v", timeout)
		}
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// printTopResults writes the leading combinations to stdout.
func printTopResults(ranked []sweep.ScoredResult, n int) {
	fmt.Println("\n=== Sweep Results ===")
	if len(ranked) == 0 {
		fmt.Println("No results.")
		return
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	fmt.Printf("Showing top %d of %d combinations\n\n", n, len(ranked))
	for i, r := range ranked[:n] {
		fmt.Printf("#%d  score=%.4f  f1=%.4f  precision=%.4f  recall=%.4f  iou=%.4f\n",
			i+1, r.Score, r.F1Mean, r.PrecisionMean, r.RecallMean, r.IoUMean)
		fmt.Printf("    params: %s\n", formatParamValues(r.ParamValues))
	}
}

// formatParamValues renders a combination's values with stable key order.
func formatParamValues(values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return strings.Join(parts, " ")
}

// writeResultsCSV exports every ranked combination. Parameter columns come
// first in stable order, then the aggregate metrics.
func writeResultsCSV(filename string, ranked []sweep.ScoredResult) error {
	if len(ranked) == 0 {
		return fmt.Errorf("no results to export")
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	paramKeys := make([]string, 0, len(ranked[0].ParamValues))
	for k := range ranked[0].ParamValues {
		paramKeys = append(paramKeys, k)
	}
	sort.Strings(paramKeys)

	header := append([]string{"rank", "score"}, paramKeys...)
	header = append(header,
		"samples", "precision_mean", "precision_stddev", "recall_mean", "recall_stddev",
		"f1_mean", "f1_stddev", "iou_mean", "agreement_mean", "abs_diff_mean",
		"foreground_ratio_mean", "worst_sample", "worst_f1")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, r := range ranked {
		row := []string{strconv.Itoa(i + 1), formatFloat(r.Score)}
		for _, k := range paramKeys {
			row = append(row, fmt.Sprintf("%v", r.ParamValues[k]))
		}
		row = append(row,
			strconv.Itoa(r.Samples),
			formatFloat(r.PrecisionMean), formatFloat(r.PrecisionStddev),
			formatFloat(r.RecallMean), formatFloat(r.RecallStddev),
			formatFloat(r.F1Mean), formatFloat(r.F1Stddev),
			formatFloat(r.IoUMean), formatFloat(r.AgreementMean),
			formatFloat(r.AbsDiffMean), formatFloat(r.ForegroundRatioMean),
			r.WorstSample, formatFloat(r.WorstF1),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
