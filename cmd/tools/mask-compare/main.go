// Command mask-compare evaluates the occlusion pipeline against a labeled
// corpus and reports per-sample and aggregate metrics. The report can be
// exported as JSON, persisted to the calibration database, posted to a
// running wallmask service, and rendered as plots. With -watch the tool keeps
// running and re-evaluates whenever the corpus directory changes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/tilevista/wallmask/internal/config"
	"github.com/tilevista/wallmask/internal/db"
	"github.com/tilevista/wallmask/internal/httputil"
	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/occlusion/corpus"
	"github.com/tilevista/wallmask/internal/occlusion/monitor"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
	"github.com/tilevista/wallmask/internal/occlusion/sweep"
	"github.com/tilevista/wallmask/internal/security"
	"github.com/tilevista/wallmask/internal/timeutil"
)

// watchDebounce batches the burst of filesystem events a corpus sync emits
// into a single re-run.
const watchDebounce = 500 * time.Millisecond

// Config holds the parsed command-line options.
type Config struct {
	CorpusDir  string
	ConfigFile string
	OutputDir  string
	OutputJSON string
	DBFile     string
	MonitorURL string
	Watch      bool
	Plots      bool
	SaveMasks  bool
	Verbose    bool
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.CorpusDir, "corpus", "", "Directory of <name>.png / <name>.mask.png sample pairs (required)")
	flag.StringVar(&cfg.ConfigFile, "config", "", "Tuning config JSON overriding the built-in defaults")
	flag.StringVar(&cfg.OutputDir, "o", "mask-compare-output", "Directory for exported reports, plots, and masks")
	flag.StringVar(&cfg.OutputJSON, "json", "", "File name for the JSON report inside the output directory")
	flag.StringVar(&cfg.DBFile, "db", "", "SQLite database to persist runs into (empty disables persistence)")
	flag.StringVar(&cfg.MonitorURL, "monitor", "", "Base URL of a running wallmask service to post runs to")
	flag.BoolVar(&cfg.Watch, "watch", false, "Keep running and re-evaluate whenever the corpus changes")
	flag.BoolVar(&cfg.Plots, "plots", false, "Write metric and histogram plots")
	flag.BoolVar(&cfg.SaveMasks, "save-masks", false, "Write the generated masks under the output directory")
	flag.BoolVar(&cfg.Verbose, "v", false, "Log per-sample metrics while evaluating")
	flag.Parse()
	return cfg
}

// RunReport is the full outcome of one corpus evaluation.
type RunReport struct {
	Corpus    string                       `json:"corpus"`
	Params    occlusion.Params             `json:"params"`
	Summary   occlusion.EvaluationSummary  `json:"summary"`
	Score     float64                      `json:"score"`
	Samples   []occlusion.SampleEvaluation `json:"samples"`
	ElapsedMs int64                        `json:"elapsed_ms"`
}

func main() {
	cfg := parseFlags()
	if cfg.CorpusDir == "" {
		log.Fatal("-corpus is required")
	}

	params, tuning, err := loadParams(cfg.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	if cfg.ConfigFile != "" {
		log.Printf("Loaded tuning config from %s", cfg.ConfigFile)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory %s: %v", cfg.OutputDir, err)
	}

	var store *storesqlite.CalibrationStore
	if cfg.DBFile != "" {
		database, err := db.NewDB(cfg.DBFile)
		if err != nil {
			log.Fatalf("Failed to open database %s: %v", cfg.DBFile, err)
		}
		defer database.Close()
		if err := database.MigrateUp(db.Migrations()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		store = storesqlite.NewCalibrationStore(database.DB)
	}

	client := httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})

	if err := runOnce(cfg, params, tuning, store, client); err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	if !cfg.Watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	events, err := corpus.WatchDir(ctx, cfg.CorpusDir, watchDebounce, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Failed to watch %s: %v", cfg.CorpusDir, err)
	}
	log.Printf("Watching %s for changes (Ctrl-C to stop)", cfg.CorpusDir)
	for {
		select {
		case <-ctx.Done():
			log.Print("Watch stopped")
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if err := runOnce(cfg, params, tuning, store, client); err != nil {
				log.Printf("Evaluation failed: %v", err)
			}
		}
	}
}

// loadParams mirrors the service's startup resolution: built-in defaults
// unless a config file overrides them field by field.
func loadParams(path string) (occlusion.Params, *config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if path != "" {
		loaded, err := config.LoadTuningConfig(path)
		if err != nil {
			return occlusion.Params{}, nil, err
		}
		cfg = loaded
	}
	return occlusion.ParamsFromTuning(cfg), cfg, nil
}

// runOnce evaluates the corpus and fans the report out to the configured
// sinks. Load and evaluation errors abort the run; sink failures only warn so
// a broken monitor or full disk does not cost a finished evaluation.
func runOnce(cfg Config, params occlusion.Params, tuning *config.TuningConfig, store *storesqlite.CalibrationStore, client httputil.HTTPClient) error {
	report, samples, err := runEvaluation(cfg, params, tuning)
	if err != nil {
		return err
	}

	printReport(report)

	if cfg.OutputJSON != "" {
		path := filepath.Join(cfg.OutputDir, cfg.OutputJSON)
		if err := exportJSON(path, report); err != nil {
			log.Printf("Warning: JSON export failed: %v", err)
		} else {
			log.Printf("Report written to %s", path)
		}
	}

	run := buildRun(report)
	if store != nil {
		if err := store.Insert(run); err != nil {
			log.Printf("Warning: failed to persist run: %v", err)
		} else {
			log.Printf("Run %s persisted", run.RunID)
		}
	}
	if cfg.MonitorURL != "" {
		if err := postRun(client, cfg.MonitorURL, run); err != nil {
			log.Printf("Warning: failed to post run to %s: %v", cfg.MonitorURL, err)
		}
	}

	if cfg.Plots || cfg.SaveMasks {
		writeArtifacts(cfg, report, samples, params, store)
	}
	return nil
}

// runEvaluation loads the labeled corpus and scores the pipeline against it.
func runEvaluation(cfg Config, params occlusion.Params, tuning *config.TuningConfig) (*RunReport, []corpus.LabeledSample, error) {
	start := time.Now()

	samples, err := corpus.LoadDir(cfg.CorpusDir, tuning.GetMaxLoadDimension())
	if err != nil {
		return nil, nil, err
	}

	evals := make([]occlusion.SampleEvaluation, 0, len(samples))
	for _, sample := range samples {
		eval, err := occlusion.EvaluateSample(sample.Name, sample.Source, sample.Truth, params)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate %s: %w", sample.Name, err)
		}
		if cfg.Verbose {
			log.Printf("%s: precision=%.3f recall=%.3f f1=%.3f iou=%.3f",
				eval.Name, eval.Metrics.Precision, eval.Metrics.Recall, eval.Metrics.F1, eval.Metrics.IoU)
		}
		evals = append(evals, eval)
	}

	summary := occlusion.Summarize(evals)
	return &RunReport{
		Corpus:    corpusName(cfg.CorpusDir),
		Params:    params,
		Summary:   summary,
		Score:     scoreSummary(summary),
		Samples:   evals,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, samples, nil
}

// corpusName derives the corpus label persisted with a run from the
// directory path.
func corpusName(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}

// scoreSummary runs the sweep objective over a single evaluation so ad hoc
// runs rank on the same scale as sweep combos.
func scoreSummary(s occlusion.EvaluationSummary) float64 {
	combo := sweep.ComboResult{
		Samples:             s.Samples,
		PrecisionMean:       s.MeanPrecision,
		RecallMean:          s.MeanRecall,
		F1Mean:              s.MeanF1,
		IoUMean:             s.MeanIoU,
		AgreementMean:       s.MeanAgreement,
		AbsDiffMean:         s.MeanAbsDiff,
		ForegroundRatioMean: s.MeanForegroundRatio,
		WorstSample:         s.WorstSample,
		WorstF1:             s.WorstF1,
	}
	return sweep.ScoreResult(combo, sweep.DefaultObjectiveWeights())
}

// buildRun converts a report into the persisted calibration-run shape. The
// store assigns the run ID and timestamp on insert.
func buildRun(report *RunReport) *storesqlite.CalibrationRun {
	run := &storesqlite.CalibrationRun{
		Corpus:          report.Corpus,
		SampleCount:     report.Summary.Samples,
		Precision:       report.Summary.MeanPrecision,
		Recall:          report.Summary.MeanRecall,
		F1:              report.Summary.MeanF1,
		IoU:             report.Summary.MeanIoU,
		Agreement:       report.Summary.MeanAgreement,
		MeanAbsDiff:     report.Summary.MeanAbsDiff,
		ForegroundRatio: report.Summary.MeanForegroundRatio,
		Score:           report.Score,
	}
	if data, err := json.Marshal(report.Params); err == nil {
		run.ParamsJSON = data
	}
	return run
}

// printReport writes the human-readable summary to stdout.
func printReport(report *RunReport) {
	fmt.Println("\n=== Corpus Evaluation ===")
	fmt.Printf("Corpus:  %s (%d samples, %d ms)\n", report.Corpus, report.Summary.Samples, report.ElapsedMs)
	fmt.Printf("Score:   %.4f\n", report.Score)

	fmt.Println("\n--- Aggregate Metrics ---")
	fmt.Printf("Precision:        %.4f\n", report.Summary.MeanPrecision)
	fmt.Printf("Recall:           %.4f\n", report.Summary.MeanRecall)
	fmt.Printf("F1:               %.4f\n", report.Summary.MeanF1)
	fmt.Printf("IoU:              %.4f\n", report.Summary.MeanIoU)
	fmt.Printf("Agreement:        %.4f\n", report.Summary.MeanAgreement)
	fmt.Printf("Mean abs diff:    %.2f\n", report.Summary.MeanAbsDiff)
	fmt.Printf("Foreground ratio: %.4f\n", report.Summary.MeanForegroundRatio)
	if report.Summary.WorstSample != "" {
		fmt.Printf("Worst sample:     %s (F1 %.4f)\n", report.Summary.WorstSample, report.Summary.WorstF1)
	}
}

// exportJSON writes the report to path, refusing destinations outside the
// working tree.
func exportJSON(path string, report *RunReport) error {
	if err := security.ValidateOutputPath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// postRun pushes the run to a live service's calibration endpoint.
func postRun(client httputil.HTTPClient, baseURL string, run *storesqlite.CalibrationRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	url := strings.TrimSuffix(baseURL, "/") + "/api/calibrations"
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("monitor returned status %d", resp.StatusCode)
	}
	log.Printf("Run posted to %s", url)
	return nil
}

// writeArtifacts renders the optional plot and mask outputs under a
// timestamped directory for this run.
func writeArtifacts(cfg Config, report *RunReport, samples []corpus.LabeledSample, params occlusion.Params, store *storesqlite.CalibrationStore) {
	plotDir := monitor.MakePlotOutputDir(cfg.OutputDir, cfg.CorpusDir)
	plotter, err := monitor.NewEvalPlotter(plotDir)
	if err != nil {
		log.Printf("Warning: plot directory unavailable: %v", err)
		return
	}

	if cfg.Plots {
		if path, err := plotter.PlotMetrics(report.Samples); err != nil {
			log.Printf("Warning: metrics plot failed: %v", err)
		} else {
			log.Printf("Metrics plot written to %s", path)
		}
		if worst := findSample(samples, report.Summary.WorstSample); worst != nil {
			mask := occlusion.BuildMask(worst.Source, params)
			if path, err := plotter.PlotAlphaHistogram(worst.Name, mask); err != nil {
				log.Printf("Warning: histogram plot failed: %v", err)
			} else {
				log.Printf("Alpha histogram written to %s", path)
			}
		}
		if store != nil {
			if runs, err := store.ListByCorpus(report.Corpus); err == nil && len(runs) > 1 {
				if path, err := plotter.PlotScoreHistory(runs); err != nil {
					log.Printf("Warning: score history plot failed: %v", err)
				} else {
					log.Printf("Score history written to %s", path)
				}
			}
		}
		if html, err := monitor.RenderSampleReport(report.Corpus, report.Samples); err != nil {
			log.Printf("Warning: HTML report failed: %v", err)
		} else {
			path := filepath.Join(plotDir, "report.html")
			if err := os.WriteFile(path, html, 0o644); err != nil {
				log.Printf("Warning: cannot write %s: %v", path, err)
			} else {
				log.Printf("HTML report written to %s", path)
			}
		}
	}

	if cfg.SaveMasks {
		maskDir := filepath.Join(plotDir, "masks")
		if err := os.MkdirAll(maskDir, 0o755); err != nil {
			log.Printf("Warning: cannot create %s: %v", maskDir, err)
			return
		}
		for _, sample := range samples {
			mask := occlusion.BuildMask(sample.Source, params)
			path := filepath.Join(maskDir, security.SanitizeFilename(sample.Name)+".png")
			if err := corpus.SaveMaskPNG(path, mask); err != nil {
				log.Printf("Warning: cannot save %s: %v", path, err)
			}
		}
		log.Printf("Masks written to %s", maskDir)
	}
}

// findSample returns the sample with the given name, or nil.
func findSample(samples []corpus.LabeledSample, name string) *corpus.LabeledSample {
	for i := range samples {
		if samples[i].Name == name {
			return &samples[i]
		}
	}
	return nil
}
