package monitor

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/tilevista/wallmask/internal/occlusion"
)

// testPhotoPNG encodes a synthetic wall photo with a dark object square in
// the center third, the kind of crop the pipeline is built for.
func testPhotoPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{R: 210, G: 205, B: 198, A: 255}
			if x >= size/3 && x < 2*size/3 && y >= size/3 && y < 2*size/3 {
				c = color.RGBA{R: 60, G: 40, B: 35, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test photo: %v", err)
	}
	return buf.Bytes()
}

func maskTestServer() *WebServer {
	return NewWebServer(WebServerConfig{
		Address: ":0",
		Params:  occlusion.DefaultParams(),
		Cache:   occlusion.NewMaskCache(8),
		MaxDim:  256,
	})
}

func TestHandleMask_ReturnsPNG(t *testing.T) {
	server := maskTestServer()
	body := testPhotoPNG(t, 48)

	req := httptest.NewRequest(http.MethodPost, "/api/mask", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", rr.Code, rr.Body.String())
	}
	if ctype := rr.Header().Get("Content-Type"); ctype != "image/png" {
		t.Fatalf("expected image/png, got %q", ctype)
	}

	mask, err := png.Decode(rr.Body)
	if err != nil {
		t.Fatalf("response is not a decodable PNG: %v", err)
	}
	if b := mask.Bounds(); b.Dx() != 48 || b.Dy() != 48 {
		t.Errorf("mask dimensions = %dx%d, want 48x48", b.Dx(), b.Dy())
	}
}

func TestHandleMask_JSONStats(t *testing.T) {
	server := maskTestServer()
	body := testPhotoPNG(t, 48)

	req := httptest.NewRequest(http.MethodPost, "/api/mask?format=json", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp maskStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Width != 48 || resp.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 48x48", resp.Width, resp.Height)
	}
	// The photo has a strong object, so the mask must have caught something.
	if resp.Stats.NonzeroPixels == 0 {
		t.Error("expected nonzero mask pixels for a photo with an object")
	}
	if resp.Stats.ForegroundRatio <= 0 || resp.Stats.ForegroundRatio >= 1 {
		t.Errorf("foreground ratio = %v, want in (0, 1)", resp.Stats.ForegroundRatio)
	}
}

func TestHandleMask_CachesRepeatInput(t *testing.T) {
	server := maskTestServer()
	body := testPhotoPNG(t, 48)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/mask", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 OK, got %d", i, rr.Code)
		}
	}

	hits, _ := server.cache.Stats()
	if hits != 1 {
		t.Errorf("cache hits = %d, want 1 after identical repeat request", hits)
	}
}

func TestHandleMask_DownscalesLargeInput(t *testing.T) {
	server := NewWebServer(WebServerConfig{
		Address: ":0",
		Params:  occlusion.DefaultParams(),
		Cache:   occlusion.NewMaskCache(8),
		MaxDim:  32,
	})
	body := testPhotoPNG(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/api/mask", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rr.Code)
	}
	mask, err := png.Decode(rr.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if b := mask.Bounds(); b.Dx() > 32 || b.Dy() > 32 {
		t.Errorf("mask dimensions = %dx%d, want at most 32x32", b.Dx(), b.Dy())
	}
}

func TestHandleMask_Errors(t *testing.T) {
	server := maskTestServer()

	testCases := []struct {
		name       string
		method     string
		url        string
		body       []byte
		expectCode int
	}{
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			url:        "/api/mask",
			expectCode: http.StatusMethodNotAllowed,
		},
		{
			name:       "undecodable body",
			method:     http.MethodPost,
			url:        "/api/mask",
			body:       []byte("this is not an image"),
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "unsupported format",
			method:     http.MethodPost,
			url:        "/api/mask?format=xml",
			body:       testPhotoPNG(t, 16),
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.url, bytes.NewReader(tc.body))
			rr := httptest.NewRecorder()
			server.setupRoutes().ServeHTTP(rr, req)
			if rr.Code != tc.expectCode {
				t.Errorf("Expected %d, got %d", tc.expectCode, rr.Code)
			}
		})
	}
}

func TestHandleParams_GetReturnsCurrent(t *testing.T) {
	server := maskTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/params", nil)
	rr := httptest.NewRecorder()

	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rr.Code)
	}

	var got occlusion.Params
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got != occlusion.DefaultParams() {
		t.Errorf("params = %+v, want defaults", got)
	}
}

func TestHandleParams_PostOverlaysPartialUpdate(t *testing.T) {
	server := maskTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(`{"gamma": 0.9}`))
	rr := httptest.NewRecorder()

	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", rr.Code, rr.Body.String())
	}

	var got occlusion.Params
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Gamma != 0.9 {
		t.Errorf("Gamma = %v, want 0.9", got.Gamma)
	}
	if got.ColorDistance != occlusion.DefaultParams().ColorDistance {
		t.Errorf("ColorDistance = %v, want unchanged default", got.ColorDistance)
	}

	// The update must stick for subsequent requests.
	if server.currentParams().Gamma != 0.9 {
		t.Error("updated gamma did not persist on the server")
	}
}

func TestHandleParams_PostErrors(t *testing.T) {
	server := maskTestServer()

	testCases := []struct {
		name string
		body string
	}{
		{name: "invalid value", body: `{"gamma": -1}`},
		{name: "malformed json", body: `{"gamma":`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			server.setupRoutes().ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected %d, got %d", http.StatusBadRequest, rr.Code)
			}
		})
	}
}

func TestHandleParams_MethodNotAllowed(t *testing.T) {
	server := maskTestServer()

	req := httptest.NewRequest(http.MethodDelete, "/api/params", nil)
	rr := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
