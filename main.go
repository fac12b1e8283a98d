package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tilevista/wallmask/internal/config"
	"github.com/tilevista/wallmask/internal/db"
	"github.com/tilevista/wallmask/internal/occlusion"
	"github.com/tilevista/wallmask/internal/occlusion/corpus"
	"github.com/tilevista/wallmask/internal/occlusion/monitor"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
	"github.com/tilevista/wallmask/internal/occlusion/sweep"
	"github.com/tilevista/wallmask/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	dbFile      = flag.String("db", "wallmask.db", "Path to the SQLite calibration database")
	configFile  = flag.String("config", "", "Path to a tuning config JSON file")
	corpusDir   = flag.String("corpus", "", "Directory of labeled samples backing the sweep endpoints")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// loadServingParams resolves the initial pipeline parameters. An empty path
// means built-in defaults; otherwise the JSON file is loaded, validated, and
// overlaid onto the defaults field by field.
func loadServingParams(path string) (occlusion.Params, *config.TuningConfig, error) {
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

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Schema management runs standalone: `wallmask migrate <action>`
	if args := flag.Args(); len(args) > 0 {
		if args[0] == "migrate" {
			db.RunMigrateCommand(args[1:], *dbFile)
			return
		}
		log.Fatalf("Unknown command %q (supported: migrate)", args[0])
	}

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	params, cfg, err := loadServingParams(*configFile)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	if *configFile != "" {
		log.Printf("Loaded tuning config from %s", *configFile)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(db.Migrations()); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	wsConfig := monitor.WebServerConfig{
		Address: *listen,
		Params:  params,
		Cache:   occlusion.NewMaskCache(cfg.GetCacheCapacity()),
		Store:   storesqlite.NewCalibrationStore(database.DB),
		MaxDim:  cfg.GetMaxLoadDimension(),
	}

	// The sweep endpoints need labeled samples; without a corpus the server
	// still masks photos and serves calibration history.
	if *corpusDir != "" {
		samples, err := corpus.LoadDir(*corpusDir, cfg.GetMaxLoadDimension())
		if err != nil {
			log.Fatalf("Failed to load corpus from %s: %v", *corpusDir, err)
		}
		log.Printf("Loaded %d labeled samples from %s", len(samples), *corpusDir)
		wsConfig.Sweep = sweep.NewRunner(samples, params)
		wsConfig.CorpusDir = *corpusDir
	} else {
		log.Println("No corpus directory given; sweep endpoints disabled (use -corpus to enable)")
	}

	server := monitor.NewWebServer(wsConfig)

	// Create a wait group for the web server routine
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
		log.Print("web server routine terminated")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
