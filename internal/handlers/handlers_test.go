package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"video-streamer/internal/indexer"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/startup"
	"video-streamer/internal/streaming"
	"video-streamer/internal/transcoder"
)

const probeJSON = `{"streams":[{"codec_type":"video","width":1920,"height":1080}],` +
	`"format":{"duration":"125.4","size":"1048576","bit_rate":"4000000"}}`

const variantPlaylist = "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n" +
	"#EXTINF:6.000000,\nseg_00000.ts\n#EXT-X-ENDLIST\n"

// stubRunner answers ffprobe with probeJSON and makes every ffmpeg call write
// its output file.
type stubRunner struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "ffprobe" {
		return []byte(probeJSON), nil
	}

	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := args[len(args)-1]
	if out == "-" {
		return nil, errors.New("no frame")
	}
	if strings.HasSuffix(out, ".m3u8") {
		if err := os.WriteFile(filepath.Join(filepath.Dir(out), "seg_00000.ts"), []byte("segment"), 0o644); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(out, []byte(variantPlaylist), 0o644)
	}
	return nil, os.WriteFile(out, []byte("rendition:"+filepath.Base(out)), 0o644)
}

type testEnv struct {
	videoDir string
	outDir   string
	trans    *transcoder.Transcoder
	handlers *Handlers
	router   *mux.Router
}

func newTestEnv(t *testing.T, config *startup.Config, runner transcoder.Runner) *testEnv {
	t.Helper()

	videoDir := t.TempDir()
	outDir := t.TempDir()

	resolver, err := sandbox.New(videoDir)
	if err != nil {
		t.Fatalf("sandbox.New: %v", err)
	}
	if runner == nil {
		runner = &stubRunner{}
	}

	trans := transcoder.New(transcoder.Config{
		OutputDir:         outDir,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		ProbeTimeout:      time.Second,
		MaxConcurrentJobs: 1,
	}, runner, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trans.Shutdown(ctx)
	})

	h := New(config, resolver, trans, streaming.NewStreamer(streaming.DefaultConfig()))
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	return &testEnv{
		videoDir: videoDir,
		outDir:   outDir,
		trans:    trans,
		handlers: h,
		router:   router,
	}
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(e.videoDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *testEnv) writeOutput(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.outDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) waitIdle(t *testing.T, key string) transcoder.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st := e.trans.Status(key); st.State != transcoder.StateProcessing {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job for %s still processing", key)
	return transcoder.Status{}
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// =============================================================================
// /media Tests
// =============================================================================

func TestStreamMediaSource(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	content := strings.Repeat("0123456789", 30)
	env.writeFile(t, "movies/clip one.mp4", content)

	tests := []struct {
		name          string
		rangeHeader   string
		expectedCode  int
		expectedBody  string
		expectedRange string
	}{
		{"Full content", "", http.StatusOK, content, ""},
		{"First hundred bytes", "bytes=0-99", http.StatusPartialContent, content[:100], "bytes 0-99/300"},
		{"Open ended", "bytes=290-", http.StatusPartialContent, content[290:], "bytes 290-299/300"},
		{"One past the end", "bytes=300-300", http.StatusRequestedRangeNotSatisfiable, "", "bytes */300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.rangeHeader != "" {
				header.Set("Range", tt.rangeHeader)
			}
			w := env.do(http.MethodGet, "/media/movies/clip%20one.mp4", header)

			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if w.Body.String() != tt.expectedBody {
				t.Errorf("Unexpected body of %d bytes", w.Body.Len())
			}
			if got := w.Header().Get("Content-Range"); got != tt.expectedRange {
				t.Errorf("Expected Content-Range %q, got %q", tt.expectedRange, got)
			}
		})
	}
}

func TestStreamMediaPrefersRendition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "clip.mp4", "source")
	env.writeOutput(t, "clip.mp4/mp4/480p.mp4", "low")
	env.writeOutput(t, "clip.mp4/mp4/720p.mp4", "medium")

	tests := []struct {
		name     string
		quality  string
		expected string
	}{
		{"Requested quality", "480p", "low"},
		{"Default fallback", "", "medium"},
		{"Missing quality falls back", "1080p", "medium"},
		{"Unknown quality falls back", "4k", "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/media/clip.mp4?quality="+tt.quality, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if w.Body.String() != tt.expected {
				t.Errorf("Expected body %q, got %q", tt.expected, w.Body.String())
			}
		})
	}
}

func TestStreamMediaErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.mp4"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.mp4"), filepath.Join(env.videoDir, "link.mp4")); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(env.videoDir, "folder"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		relPath  string
		expected int
	}{
		{"Missing file", "nope.mp4", http.StatusNotFound},
		{"Directory", "folder", http.StatusNotFound},
		{"Symlink escaping the root", "link.mp4", http.StatusForbidden},
		{"Dot-dot escape", "../" + filepath.Base(outside) + "/secret.mp4", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/media/x", http.NoBody)
			req = mux.SetURLVars(req, map[string]string{"relpath": tt.relPath})
			w := httptest.NewRecorder()

			env.handlers.StreamMedia(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
			if strings.Contains(w.Body.String(), "secret") && !strings.Contains(w.Body.String(), "error") {
				t.Error("Leaked file outside the content root")
			}
		})
	}
}

// =============================================================================
// /process and /status Tests
// =============================================================================

func TestProcessAndStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "shows/ep 1.mkv", "source")

	w := env.do(http.MethodGet, "/process/shows/ep%201.mkv", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[ProcessResponse](t, w)
	if resp.Status != "processing_started" {
		t.Errorf("Expected processing_started, got %q", resp.Status)
	}
	if resp.Key != "shows_ep_1.mkv" {
		t.Errorf("Expected key shows_ep_1.mkv, got %q", resp.Key)
	}
	if resp.JobID == "" {
		t.Error("Expected a job ID")
	}

	env.waitIdle(t, resp.Key)

	w = env.do(http.MethodGet, "/status/"+resp.Key, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	status := decodeBody[transcoder.Status](t, w)
	if status.State != transcoder.StateCompleted {
		t.Errorf("Expected completed, got %q (%s)", status.State, status.Error)
	}
	if got := strings.Join(status.AvailableQualities, ","); got != "480p,720p,1080p" {
		t.Errorf("Unexpected available qualities %q", got)
	}
	if !status.AdaptiveReady {
		t.Error("Expected adaptive output to be ready")
	}
	for _, q := range status.Qualities {
		if q.Segments != 1 {
			t.Errorf("Expected 1 segment for %s, got %d", q.Name, q.Segments)
		}
	}

	// The adaptive output is now streamable.
	w = env.do(http.MethodGet, "/adaptive/"+resp.Key+"/master.m3u8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for master playlist, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegURL" {
		t.Errorf("Unexpected master Content-Type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "720p/index.m3u8") {
		t.Errorf("Master playlist missing 720p variant:\n%s", w.Body.String())
	}
}

func TestProcessWithoutAdaptive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "clip.mp4", "source")

	w := env.do(http.MethodGet, "/process/clip.mp4?adaptive=false", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	status := env.waitIdle(t, "clip.mp4")
	if status.AdaptiveReady {
		t.Error("Expected no adaptive output")
	}
	if len(status.AvailableQualities) != 3 {
		t.Errorf("Expected 3 MP4 renditions, got %v", status.AvailableQualities)
	}

	if w := env.do(http.MethodGet, "/process/clip.mp4?adaptive=maybe", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad adaptive value, got %d", w.Code)
	}
}

func TestProcessAlreadyProcessing(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{block: make(chan struct{})}
	env := newTestEnv(t, nil, runner)
	env.writeFile(t, "clip.mp4", "source")

	first := env.do(http.MethodGet, "/process/clip.mp4", nil)
	if first.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", first.Code)
	}

	second := env.do(http.MethodGet, "/process/clip.mp4", nil)
	if second.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", second.Code)
	}
	resp := decodeBody[ProcessResponse](t, second)
	if resp.Status != "already_processing" {
		t.Errorf("Expected already_processing, got %q", resp.Status)
	}

	close(runner.block)
	env.waitIdle(t, "clip.mp4")
}

func TestProcessErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	if err := os.Mkdir(filepath.Join(env.videoDir, "folder"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		relPath  string
		expected int
	}{
		{"Missing file", "missing.mp4", http.StatusNotFound},
		{"Directory", "folder", http.StatusNotFound},
		{"Escape", "../etc/passwd", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/process/x", http.NoBody)
			req = mux.SetURLVars(req, map[string]string{"relpath": tt.relPath})
			w := httptest.NewRecorder()

			env.handlers.StartProcessing(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestProcessDuringShutdown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "clip.mp4", "source")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.trans.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if w := env.do(http.MethodGet, "/process/clip.mp4", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestStatusUnknownKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	w := env.do(http.MethodGet, "/status/never_triggered.mp4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	status := decodeBody[transcoder.Status](t, w)
	if status.State != transcoder.StateNotStarted {
		t.Errorf("Expected not_started, got %q", status.State)
	}
	if status.AvailableQualities == nil || len(status.AvailableQualities) != 0 {
		t.Errorf("Expected an empty quality list, got %v", status.AvailableQualities)
	}

	if w := env.do(http.MethodGet, "/status/..", nil); w.Code == http.StatusOK {
		t.Errorf("Expected '..' to be rejected, got %d", w.Code)
	}
}

// =============================================================================
// /adaptive and /poster Tests
// =============================================================================

func TestStreamAdaptive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeOutput(t, "clip.mp4/hls/720p/index.m3u8", variantPlaylist)
	env.writeOutput(t, "clip.mp4/hls/720p/seg_00000.ts", "segment-bytes")
	env.writeOutput(t, "clip.mp4/mp4/720p.mp4", "not adaptive")
	env.writeOutput(t, "other.mp4/hls/720p/index.m3u8", variantPlaylist)

	tests := []struct {
		name         string
		key          string
		subPath      string
		expectedCode int
		expectedType string
	}{
		{"Variant playlist", "clip.mp4", "720p/index.m3u8", http.StatusOK, "application/vnd.apple.mpegURL"},
		{"Segment", "clip.mp4", "720p/seg_00000.ts", http.StatusOK, "video/MP2T"},
		{"Missing segment", "clip.mp4", "720p/seg_00009.ts", http.StatusNotFound, ""},
		{"Unknown key", "missing.mp4", "master.m3u8", http.StatusNotFound, ""},
		{"Escape to sibling output", "clip.mp4", "../mp4/720p.mp4", http.StatusForbidden, ""},
		{"Escape to another key", "clip.mp4", "../../other.mp4/hls/720p/index.m3u8", http.StatusForbidden, ""},
		{"Dot-dot key", "..", "clip.mp4/hls/720p/index.m3u8", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/adaptive/x/y", http.NoBody)
			req = mux.SetURLVars(req, map[string]string{"key": tt.key, "subpath": tt.subPath})
			w := httptest.NewRecorder()

			env.handlers.StreamAdaptive(w, req)

			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if tt.expectedType != "" {
				if ct := w.Header().Get("Content-Type"); ct != tt.expectedType {
					t.Errorf("Expected Content-Type %q, got %q", tt.expectedType, ct)
				}
				if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=600" {
					t.Errorf("Expected adaptive cache policy, got %q", cc)
				}
			}
		})
	}
}

func TestGetPoster(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeOutput(t, "clip.mp4/poster.jpg", "jpeg")

	w := env.do(http.MethodGet, "/poster/clip.mp4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Expected direct cache policy, got %q", cc)
	}

	if w := env.do(http.MethodGet, "/poster/other.mp4", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// =============================================================================
// /probe Tests
// =============================================================================

func TestProbeMedia(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "clip.mp4", "source")

	w := env.do(http.MethodGet, "/probe/clip.mp4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decodeBody[ProbeResponse](t, w)
	if !resp.Known || resp.Width != 1920 || resp.Height != 1080 {
		t.Errorf("Unexpected probe result: %+v", resp)
	}
	if resp.DurationText != "2:05" {
		t.Errorf("Expected duration 2:05, got %q", resp.DurationText)
	}
	if resp.Key != "clip.mp4" {
		t.Errorf("Expected key clip.mp4, got %q", resp.Key)
	}
}

// =============================================================================
// /browse and /videos Tests
// =============================================================================

func TestBrowse(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "Shows/b_second_clip.mp4", "22")
	env.writeFile(t, "Shows/A_FIRST_clip.mkv", "1")
	env.writeFile(t, "Shows/notes.txt", "not a video")
	env.writeFile(t, "Shows/season 2/ep.mp4", "3")
	env.writeFile(t, "Shows/.hidden/ep.mp4", "4")

	w := env.do(http.MethodGet, "/browse?path=Shows", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[BrowseResponse](t, w)

	if resp.Cwd != "Shows" {
		t.Errorf("Expected cwd Shows, got %q", resp.Cwd)
	}
	if resp.Parent == nil || *resp.Parent != "" {
		t.Errorf("Expected parent to be the root, got %v", resp.Parent)
	}
	if len(resp.Dirs) != 1 || resp.Dirs[0].RelPath != "Shows/season 2" || resp.Dirs[0].Type != "dir" {
		t.Errorf("Unexpected dirs: %+v", resp.Dirs)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("Expected 2 files, got %+v", resp.Files)
	}

	first := resp.Files[0]
	if first.Filename != "A_FIRST_clip.mkv" {
		t.Errorf("Expected case-insensitive order, got %q first", first.Filename)
	}
	if first.Title != "A First Clip" {
		t.Errorf("Expected title 'A First Clip', got %q", first.Title)
	}
	if first.ID != "A_FIRST_clip" || first.Key != "Shows_A_FIRST_clip.mkv" {
		t.Errorf("Unexpected id/key %q/%q", first.ID, first.Key)
	}
	if first.Size != "0.00 GB" || first.SizeBytes != 1 {
		t.Errorf("Unexpected size %q/%d", first.Size, first.SizeBytes)
	}
	if first.Duration != "2:05" {
		t.Errorf("Expected duration 2:05, got %q", first.Duration)
	}
	if first.Status != transcoder.StateNotStarted {
		t.Errorf("Expected not_started, got %q", first.Status)
	}
	if first.MediaURL != "/media/Shows/A_FIRST_clip.mkv" {
		t.Errorf("Unexpected media URL %q", first.MediaURL)
	}
}

func TestBrowseRoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	w := env.do(http.MethodGet, "/browse", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"parent":null`) {
		t.Errorf("Expected a null parent at the root: %s", w.Body.String())
	}
	resp := decodeBody[BrowseResponse](t, w)
	if resp.Dirs == nil || resp.Files == nil {
		t.Error("Expected empty lists rather than null")
	}
}

func TestBrowseErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "clip.mp4", "x")

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"Escape", "../", http.StatusForbidden},
		{"Missing directory", "nope", http.StatusNotFound},
		{"File instead of directory", "clip.mp4", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/browse?path="+tt.query, nil)
			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestBrowseAuth(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, &startup.Config{
		BrowseUsername:     "viewer",
		BrowsePasswordHash: string(hash),
	}, nil)

	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		expected int
	}{
		{"No credentials", "", "", false, http.StatusUnauthorized},
		{"Wrong password", "viewer", "nope", true, http.StatusUnauthorized},
		{"Wrong user", "admin", "s3cret", true, http.StatusUnauthorized},
		{"Valid", "viewer", "s3cret", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/browse", http.NoBody)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Fatalf("Expected status %d, got %d", tt.expected, w.Code)
			}
			if tt.expected == http.StatusUnauthorized {
				if got := w.Header().Get("WWW-Authenticate"); got != `Basic realm="Video Index"` {
					t.Errorf("Unexpected WWW-Authenticate %q", got)
				}
			}
		})
	}

	// Streaming is not gated.
	env.writeFile(t, "clip.mp4", "x")
	if w := env.do(http.MethodGet, "/media/clip.mp4", nil); w.Code != http.StatusOK {
		t.Errorf("Expected /media to be open, got %d", w.Code)
	}
}

func TestListVideos(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	old := env.writeFile(t, "a/old.mp4", "old")
	newer := env.writeFile(t, "b/c/new.webm", "new")
	env.writeFile(t, "readme.md", "skip")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, time.Now(), time.Now()); err != nil {
		t.Fatal(err)
	}

	w := env.do(http.MethodGet, "/videos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	files := decodeBody[[]BrowseFile](t, w)
	if len(files) != 2 {
		t.Fatalf("Expected 2 videos, got %+v", files)
	}
	if files[0].RelPath != "b/c/new.webm" || files[1].RelPath != "a/old.mp4" {
		t.Errorf("Expected newest first, got %q then %q", files[0].RelPath, files[1].RelPath)
	}
}

func TestTitleFromStem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stem     string
		expected string
	}{
		{"my_holiday_clip", "My Holiday Clip"},
		{"LOUD_NAME", "Loud Name"},
		{"ep01-part_two", "Ep01-Part Two"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			if got := titleFromStem(tt.stem); got != tt.expected {
				t.Errorf("titleFromStem(%q) = %q, want %q", tt.stem, got, tt.expected)
			}
		})
	}
}

func TestMediaURL(t *testing.T) {
	t.Parallel()

	if got := mediaURL("my shows/ep #1.mp4"); got != "/media/my%20shows/ep%20%231.mp4" {
		t.Errorf("Unexpected URL %q", got)
	}
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	tests := []struct {
		path     string
		expected int
		status   string
	}{
		{"/healthz", http.StatusOK, statusHealthy},
		{"/health", http.StatusOK, statusHealthy},
		{"/livez", http.StatusOK, "alive"},
		{"/readyz", http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.path, nil)
			if w.Code != tt.expected {
				t.Fatalf("Expected status %d, got %d", tt.expected, w.Code)
			}
			body := decodeBody[map[string]interface{}](t, w)
			if body["status"] != tt.status {
				t.Errorf("Expected status %q, got %v", tt.status, body["status"])
			}
		})
	}
}

func TestHealthDuringShutdown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.trans.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	if w := env.do(http.MethodGet, "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected /readyz 503, got %d", w.Code)
	}
	w := env.do(http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected /healthz 503, got %d", w.Code)
	}
	if resp := decodeBody[HealthResponse](t, w); resp.Status != statusStopping || resp.Ready {
		t.Errorf("Unexpected health response %+v", resp)
	}

	if w := env.do(http.MethodHead, "/livez", nil); w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("Expected bodiless 200 for HEAD /livez, got %d with %d bytes", w.Code, w.Body.Len())
	}
}

// =============================================================================
// /reindex Tests
// =============================================================================

func TestTriggerReindex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	env.writeFile(t, "shows/pilot.mp4", "video")

	if w := env.do(http.MethodPost, "/reindex", nil); w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without an indexer, got %d", w.Code)
	}
	if resp := decodeBody[HealthResponse](t, env.do(http.MethodGet, "/health", nil)); resp.Indexer != nil {
		t.Errorf("Expected no indexer section, got %+v", resp.Indexer)
	}

	resolver, err := sandbox.New(env.videoDir)
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.New(resolver, env.trans, indexer.Config{PollInterval: time.Hour})
	t.Cleanup(idx.Stop)
	env.handlers.SetIndexer(idx)

	w := env.do(http.MethodPost, "/reindex", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody[map[string]string](t, w); body["status"] != "started" {
		t.Errorf("Expected status started, got %q", body["status"])
	}

	if w := env.do(http.MethodGet, "/reindex", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /reindex, got %d", w.Code)
	}

	if err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	resp := decodeBody[HealthResponse](t, env.do(http.MethodGet, "/health", nil))
	if resp.Indexer == nil {
		t.Fatal("Expected indexer section in health response")
	}
	if !resp.Indexer.Ready || resp.Indexer.FilesProbed != 1 || resp.Indexer.FilesFailed != 0 {
		t.Errorf("Unexpected indexer status %+v", resp.Indexer)
	}
}
