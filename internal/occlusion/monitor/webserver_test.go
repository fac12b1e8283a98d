package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tilevista/wallmask/internal/occlusion"
)

func TestNewWebServer(t *testing.T) {
	cache := occlusion.NewMaskCache(8)

	config := WebServerConfig{
		Address:   ":0",
		Params:    occlusion.DefaultParams(),
		Cache:     cache,
		CorpusDir: "testdata/corpus",
		MaxDim:    512,
	}

	server := NewWebServer(config)

	if server == nil {
		t.Fatal("NewWebServer returned nil")
	}

	if server.cache != cache {
		t.Error("WebServer cache not set correctly")
	}

	if server.maxDim != 512 {
		t.Error("WebServer maxDim not set correctly")
	}

	if server.currentParams() != occlusion.DefaultParams() {
		t.Error("WebServer params not set correctly")
	}
}

func TestWebServer_StatusHandler(t *testing.T) {
	config := WebServerConfig{
		Address: ":0",
		Params:  occlusion.DefaultParams(),
		Cache:   occlusion.NewMaskCache(8),
	}

	server := NewWebServer(config)

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Status handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	body := rr.Body.String()

	if !strings.Contains(body, "Wallmask Monitor") {
		t.Error("Response should contain 'Wallmask Monitor'")
	}

	// The serving parameters render as JSON on the status page.
	if !strings.Contains(body, "color_distance") {
		t.Error("Response should contain the serving parameters")
	}

	// Neither store nor sweep runner were configured.
	if !strings.Contains(body, "not configured") {
		t.Error("Response should report unconfigured components")
	}
}

func TestWebServer_StatusHandlerUnknownPath(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0", Params: occlusion.DefaultParams()})

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rr := httptest.NewRecorder()

	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestWebServer_HealthHandler(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0", Params: occlusion.DefaultParams()})

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Health handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := "application/json"
	if ctype := rr.Header().Get("Content-Type"); ctype != expected {
		t.Errorf("Health handler returned wrong content type: got %v want %v",
			ctype, expected)
	}

	body := rr.Body.String()

	if !strings.Contains(body, `"status": "ok"`) {
		t.Error("Response should contain status: ok (with spaces)")
	}

	if !strings.Contains(body, `"service": "wallmask"`) {
		t.Error("Response should contain service: wallmask (with spaces)")
	}
}

func TestWebServer_StartStop(t *testing.T) {
	config := WebServerConfig{
		Address: ":0", // Use port 0 to get an available port
		Params:  occlusion.DefaultParams(),
		Cache:   occlusion.NewMaskCache(8),
	}

	server := NewWebServer(config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		err := server.Start(ctx)
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Give the server time to start
	time.Sleep(50 * time.Millisecond)

	cancel()

	// Wait a bit for the server to stop
	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-errChan:
		t.Fatalf("Server start failed: %v", err)
	default:
		// No error, which is what we expect
	}
}

func BenchmarkWebServer_HealthHandler(b *testing.B) {
	server := NewWebServer(WebServerConfig{Address: ":0", Params: occlusion.DefaultParams()})

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		b.Fatal(err)
	}

	mux := server.setupRoutes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
	}
}
