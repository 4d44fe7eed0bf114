package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

const masterHeader = "#EXTM3U\n#EXT-X-VERSION:3\n"

// Variant is one entry of a master playlist.
type Variant struct {
	Name       string
	Bandwidth  int
	Resolution string // e.g. "1280x720"
	URI        string // relative to the master playlist
}

// BuildMaster renders a master playlist for the given variants.
func BuildMaster(variants []Variant) string {
	var b strings.Builder
	b.WriteString(masterHeader)
	for _, v := range variants {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", v.Bandwidth, v.Resolution)
		b.WriteString(v.URI)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteMaster writes the master playlist to path, replacing any existing file atomically.
func WriteMaster(path string, variants []Variant) error {
	if len(variants) == 0 {
		return fmt.Errorf("no variants for master playlist %s", path)
	}
	if err := renameio.WriteFile(path, []byte(BuildMaster(variants)), 0o644); err != nil {
		return fmt.Errorf("failed to write master playlist %s: %w", path, err)
	}
	return nil
}

// MediaPlaylist summarizes a variant (media) playlist.
type MediaPlaylist struct {
	TargetDuration int
	Segments       []Segment
	Ended          bool
}

// Segment is one media segment entry.
type Segment struct {
	Duration float64
	URI      string
}

// ParseMedia reads a media playlist. Tags other than target duration, segment
// info and end-list are ignored.
func ParseMedia(r io.Reader) (*MediaPlaylist, error) {
	scanner := bufio.NewScanner(r)

	first := true
	pl := &MediaPlaylist{}
	var pending *float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			if line != "#EXTM3U" {
				return nil, fmt.Errorf("not an m3u8 playlist: first line %q", line)
			}
			first = false
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			v, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"))
			if err != nil {
				return nil, fmt.Errorf("invalid target duration %q: %w", line, err)
			}
			pl.TargetDuration = v
		case strings.HasPrefix(line, "#EXTINF:"):
			value := strings.TrimPrefix(line, "#EXTINF:")
			if i := strings.IndexByte(value, ','); i >= 0 {
				value = value[:i]
			}
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid segment duration %q: %w", line, err)
			}
			pending = &d
		case line == "#EXT-X-ENDLIST":
			pl.Ended = true
		case strings.HasPrefix(line, "#"):
			// other tags
		default:
			seg := Segment{URI: line}
			if pending != nil {
				seg.Duration = *pending
				pending = nil
			}
			pl.Segments = append(pl.Segments, seg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if first {
		return nil, fmt.Errorf("empty playlist")
	}
	return pl, nil
}

// ParseMediaFile opens and parses the media playlist at path.
func ParseMediaFile(path string) (*MediaPlaylist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMedia(f)
}

// Duration returns the sum of all segment durations in seconds.
func (p *MediaPlaylist) Duration() float64 {
	var total float64
	for _, s := range p.Segments {
		total += s.Duration
	}
	return total
}
