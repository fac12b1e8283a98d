// Package monitor serves the HTTP interface of the mask service: mask
// generation for uploaded photos, runtime tuning, calibration history and
// sweep control, plus debug chart pages.
package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tilevista/wallmask/internal/config"
	"github.com/tilevista/wallmask/internal/occlusion"
	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
	"github.com/tilevista/wallmask/internal/version"
)

//go:embed status.html
var statusHTML embed.FS

// WebServer handles the HTTP interface for the mask service. Parameter
// updates through /api/params take effect on the next mask request; the
// pipeline itself stays stateless.
type WebServer struct {
	address   string
	server    *http.Server
	cache     *occlusion.MaskCache
	store     *storesqlite.CalibrationStore
	sweep     SweepRunner
	corpusDir string
	maxDim    int
	startTime time.Time

	mu     sync.RWMutex
	params occlusion.Params
}

// WebServerConfig contains configuration options for the web server. Store
// and Sweep may be nil; the corresponding endpoints then answer 503.
type WebServerConfig struct {
	Address   string
	Params    occlusion.Params
	Cache     *occlusion.MaskCache
	Store     *storesqlite.CalibrationStore
	Sweep     SweepRunner
	CorpusDir string
	MaxDim    int
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:   config.Address,
		cache:     config.Cache,
		store:     config.Store,
		sweep:     config.Sweep,
		corpusDir: config.CorpusDir,
		maxDim:    config.MaxDim,
		params:    config.Params,
		startTime: time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/mask", ws.handleMask)
	mux.HandleFunc("/api/params", ws.handleParams)
	mux.HandleFunc("/api/calibrations", ws.handleCalibrations)
	mux.HandleFunc("/api/calibrations/best", ws.handleCalibrationBest)
	mux.HandleFunc("/api/sweep/start", ws.handleSweepStart)
	mux.HandleFunc("/api/sweep/stop", ws.handleSweepStop)
	mux.HandleFunc("/api/sweep/state", ws.handleSweepState)
	mux.HandleFunc("/debug/charts", ws.handleChartsDashboard)
	mux.HandleFunc("/debug/charts/sweep", ws.handleSweepChart)
	mux.HandleFunc("/debug/charts/calibrations", ws.handleCalibrationChart)

	return mux
}

// currentParams returns a snapshot of the serving parameter set.
func (ws *WebServer) currentParams() occlusion.Params {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.params
}

// updateParams overlays a partial tuning config onto the serving parameters
// and returns the result.
func (ws *WebServer) updateParams(cfg *config.TuningConfig) occlusion.Params {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.params = occlusion.ApplyTuning(ws.params, cfg)
	return ws.params
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "wallmask", "version": %q, "timestamp": "%s"}`,
		version.Version, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	storeStatus := "not configured"
	if ws.store != nil {
		storeStatus = "configured"
	}

	sweepStatus := "not configured"
	if ws.sweep != nil {
		state := ws.sweep.State()
		sweepStatus = fmt.Sprintf("%s (%d/%d combinations)", state.Status, state.CompletedCombos, state.TotalCombos)
	}

	corpusDir := ws.corpusDir
	if corpusDir == "" {
		corpusDir = "none"
	}

	paramsJSON, err := json.MarshalIndent(ws.currentParams(), "", "  ")
	if err != nil {
		http.Error(w, "Error rendering parameters: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var hits, misses uint64
	var entries int
	if ws.cache != nil {
		hits, misses = ws.cache.Stats()
		entries = ws.cache.Len()
	}

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(statusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Template data
	data := struct {
		HTTPAddress string
		Uptime      string
		Version     string
		CorpusDir   string
		StoreStatus string
		SweepStatus string
		CacheLen    int
		CacheHits   uint64
		CacheMisses uint64
		ParamsJSON  string
	}{
		HTTPAddress: ws.address,
		Uptime:      time.Since(ws.startTime).Round(time.Second).String(),
		Version:     version.String(),
		CorpusDir:   corpusDir,
		StoreStatus: storeStatus,
		SweepStatus: sweepStatus,
		CacheLen:    entries,
		CacheHits:   hits,
		CacheMisses: misses,
		ParamsJSON:  string(paramsJSON),
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// Close shuts down the web server.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
