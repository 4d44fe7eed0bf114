package transcoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mediaPlaylistFixture = "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n" +
	"#EXTINF:6.000000,\nseg_00000.ts\n#EXTINF:4.000000,\nseg_00001.ts\n#EXT-X-ENDLIST\n"

// fakeRunner stands in for ffmpeg and ffprobe. It writes plausible outputs
// for the argument shapes the encoder builds.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string

	// fail, when set, decides per invocation whether to fail.
	fail func(args []string) error
	// failAfterWrite is like fail but runs once the outputs are on disk.
	failAfterWrite func(args []string) error
	// block, when set, makes each ffmpeg call wait for it or for ctx.
	block   chan struct{}
	started chan struct{}

	probeOutput []byte
	probeErr    error
	panicOn     string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if name == "ffprobe" {
		return f.probeOutput, f.probeErr
	}

	if f.panicOn != "" && strings.Contains(strings.Join(args, " "), f.panicOn) {
		panic("encoder exploded")
	}

	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.fail != nil {
		if err := f.fail(args); err != nil {
			return nil, err
		}
	}

	out := args[len(args)-1]
	switch {
	case out == "-":
		return pngFrame(), nil
	case strings.HasSuffix(out, ".m3u8"):
		dir := filepath.Dir(out)
		if err := os.WriteFile(out, []byte(mediaPlaylistFixture), 0o644); err != nil {
			return nil, err
		}
		for _, seg := range []string{"seg_00000.ts", "seg_00001.ts"} {
			if err := os.WriteFile(filepath.Join(dir, seg), []byte("ts"), 0o644); err != nil {
				return nil, err
			}
		}
	default:
		if err := os.WriteFile(out, []byte("mp4:"+out), 0o644); err != nil {
			return nil, err
		}
	}

	if f.failAfterWrite != nil {
		if err := f.failAfterWrite(args); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (f *fakeRunner) callCount(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(strings.Join(c, " "), substr) {
			n++
		}
	}
	return n
}

// failQuality fails every invocation whose arguments mention both substrings.
func failQuality(kind, resolution string) func([]string) error {
	return func(args []string) error {
		joined := strings.Join(args, " ")
		if strings.Contains(joined, resolution) && strings.Contains(joined, kind) {
			return errors.New("exit status 1: encoder said no")
		}
		return nil
	}
}

func pngFrame() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 36)))
	return buf.Bytes()
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip one.mp4")
	if err := os.WriteFile(path, []byte("source"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
