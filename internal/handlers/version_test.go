package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"video-streamer/internal/startup"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := &Handlers{}

	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	w := httptest.NewRecorder()

	h.GetVersion(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected Cache-Control: no-cache, got %q", cc)
	}

	var response startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Version != startup.Version {
		t.Errorf("Expected version %q, got %q", startup.Version, response.Version)
	}
	if response.GoVersion == "" {
		t.Error("Expected a Go version")
	}
}

func TestGetVersionConcurrent(t *testing.T) {
	t.Parallel()

	h := &Handlers{}

	const numRequests = 10
	done := make(chan bool, numRequests)

	for i := 0; i < numRequests; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
			w := httptest.NewRecorder()
			h.GetVersion(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			done <- true
		}()
	}

	for i := 0; i < numRequests; i++ {
		<-done
	}
}
