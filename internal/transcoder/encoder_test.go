package transcoder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-streamer/internal/rendition"
)

var q720 = rendition.QualityProfile{Name: "720p", Width: 1280, Height: 720, VideoBitrateKbps: 2500, AudioBitrateKbps: 128}

func TestMP4Args(t *testing.T) {
	got := strings.Join(MP4Args("/in/a.mkv", "/out/720p.mp4", q720), " ")
	want := "-y -i /in/a.mkv -c:v libx264 -preset medium -crf 23 -b:v 2500k -maxrate 2500k -bufsize 5000k " +
		"-s 1280x720 -c:a aac -b:a 128k -movflags +faststart -f mp4 /out/720p.mp4"
	if got != want {
		t.Errorf("MP4Args() =\n%s\nwant\n%s", got, want)
	}
}

func TestHLSArgs(t *testing.T) {
	dir := filepath.Join("out", "hls", "720p")
	args := HLSArgs("in.mp4", dir, q720, 6)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-hls_time 6",
		"-hls_playlist_type vod",
		"-hls_flags independent_segments",
		"-hls_segment_filename " + filepath.Join(dir, "seg_%05d.ts"),
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("HLSArgs() missing %q in %s", want, joined)
		}
	}
	if last := args[len(args)-1]; last != filepath.Join(dir, "index.m3u8") {
		t.Errorf("output = %s", last)
	}
}

func TestFrameArgs(t *testing.T) {
	args := FrameArgs("in.mp4")
	if args[len(args)-1] != "-" || !strings.Contains(strings.Join(args, " "), "-vcodec png") {
		t.Errorf("FrameArgs() = %v", args)
	}
}

func TestEncoderErrors(t *testing.T) {
	tests := []struct {
		name        string
		runner      *fakeRunner
		timeout     time.Duration
		wantTimeout bool
	}{
		{
			name:   "non-zero exit",
			runner: &fakeRunner{fail: func([]string) error { return errors.New("exit status 1") }},
		},
		{
			name:        "deadline",
			runner:      &fakeRunner{block: make(chan struct{})},
			timeout:     10 * time.Millisecond,
			wantTimeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder(tt.runner, "", tt.timeout, 0)
			err := e.EncodeMP4(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "o.mp4"), q720)

			if !errors.Is(err, ErrEncoderFailure) {
				t.Fatalf("error = %v, want ErrEncoderFailure", err)
			}
			if errors.Is(err, ErrEncoderTimeout) != tt.wantTimeout {
				t.Errorf("errors.Is(err, ErrEncoderTimeout) = %v, want %v", !tt.wantTimeout, tt.wantTimeout)
			}
		})
	}
}

func TestEncoderDefaults(t *testing.T) {
	e := NewEncoder(&fakeRunner{}, "", 0, 0)
	if e.ffmpeg != "ffmpeg" || e.segmentSeconds != DefaultSegmentSeconds {
		t.Errorf("NewEncoder defaults = %q, %d", e.ffmpeg, e.segmentSeconds)
	}
}
