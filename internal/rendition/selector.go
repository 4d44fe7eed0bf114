package rendition

import (
	"os"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
)

// Selector chooses which physical file to stream for an asset.
type Selector struct {
	layout   Layout
	ladder   []QualityProfile
	fallback []string
	retry    filesystem.RetryConfig
}

// NewSelector creates a Selector over the given layout and ladder.
func NewSelector(layout Layout, ladder []QualityProfile) *Selector {
	return &Selector{
		layout:   layout,
		ladder:   ladder,
		fallback: FallbackOrder,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// Select returns the rendition to play for key. An explicit quality is used
// when it names a ladder rung whose MP4 exists; otherwise the fallback order
// is tried; otherwise sourcePath is returned. The second result is the chosen
// quality name, or "" for the source.
func (s *Selector) Select(key, sourcePath, quality string) (string, string) {
	if quality != "" {
		if _, ok := Find(s.ladder, quality); ok {
			if path := s.layout.MP4Path(key, quality); s.isFile(path) {
				return path, quality
			}
		} else {
			logging.Debug("Ignoring unknown quality %q for %s", quality, key)
		}
	}

	for _, q := range s.fallback {
		if path := s.layout.MP4Path(key, q); s.isFile(path) {
			return path, q
		}
	}

	return sourcePath, ""
}

// Available lists the ladder qualities whose MP4 exists, in ladder order.
func (s *Selector) Available(key string) []string {
	available := make([]string, 0, len(s.ladder))
	for _, q := range s.ladder {
		if s.isFile(s.layout.MP4Path(key, q.Name)) {
			available = append(available, q.Name)
		}
	}
	return available
}

// AdaptiveReady reports whether the master playlist exists for key.
func (s *Selector) AdaptiveReady(key string) bool {
	return s.isFile(s.layout.MasterPath(key))
}

// VariantReady reports whether a quality's media playlist exists for key.
func (s *Selector) VariantReady(key, quality string) bool {
	return s.isFile(s.layout.VariantPlaylist(key, quality))
}

// Layout returns the layout the selector reads from.
func (s *Selector) Layout() Layout {
	return s.layout
}

// Ladder returns the configured ladder.
func (s *Selector) Ladder() []QualityProfile {
	return s.ladder
}

func (s *Selector) isFile(path string) bool {
	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("Stat failed for %s: %v", path, err)
		}
		return false
	}
	return info.Mode().IsRegular()
}
