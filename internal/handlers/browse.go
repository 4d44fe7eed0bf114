package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"video-streamer/internal/logging"
	"video-streamer/internal/media"
	"video-streamer/internal/metrics"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/transcoder"
)

const browseRealm = "Video Index"

// BrowseDir is a sub-directory entry of a listing.
type BrowseDir struct {
	Name    string `json:"name"`
	RelPath string `json:"relpath"`
	Type    string `json:"type"`
}

// BrowseFile is a video file entry of a listing.
type BrowseFile struct {
	ID        string           `json:"id"`
	RelPath   string           `json:"relpath"`
	Filename  string           `json:"filename"`
	Title     string           `json:"title"`
	Size      string           `json:"size"`
	SizeBytes int64            `json:"sizeBytes"`
	Duration  string           `json:"duration"`
	MediaURL  string           `json:"mediaUrl"`
	Key       string           `json:"key"`
	Status    transcoder.State `json:"status"`
	Created   int64            `json:"created"`
}

// BrowseResponse is one level of the content tree.
type BrowseResponse struct {
	Cwd    string       `json:"cwd"`
	Parent *string      `json:"parent"`
	Dirs   []BrowseDir  `json:"dirs"`
	Files  []BrowseFile `json:"files"`
}

// RequireBrowseAuth wraps next with HTTP basic auth when a browse username and
// bcrypt hash are configured.
func (h *Handlers) RequireBrowseAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.enabled() {
			next(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			metrics.AuthAttemptsTotal.WithLabelValues("missing").Inc()
			h.authFailed(w)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.auth.username)) == 1
		passErr := bcrypt.CompareHashAndPassword(h.auth.passwordHash, []byte(password))
		if !userOK || passErr != nil {
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			logging.Warn("Browse authentication failed for user %q", username)
			h.authFailed(w)
			return
		}

		metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
		next(w, r)
	}
}

func (h *Handlers) authFailed(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", browseRealm))
	writeJSONError(w, "authentication required", http.StatusUnauthorized)
}

// Browse lists one directory level: sub-folders and video files.
// GET /browse?path=
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	relPath := r.URL.Query().Get("path")

	listing, err := h.scanner.ListDirectory(relPath)
	if err != nil {
		writePathError(w, relPath, err)
		return
	}

	response := BrowseResponse{
		Cwd:    listing.RelPath,
		Parent: listing.Parent,
		Dirs:   make([]BrowseDir, 0, len(listing.Folders)),
	}
	for _, f := range listing.Folders {
		response.Dirs = append(response.Dirs, BrowseDir{Name: f.Name, RelPath: f.RelPath, Type: "dir"})
	}
	response.Files = h.describeVideos(r.Context(), listing.Videos)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// ListVideos lists every video under the content root, newest first.
// GET /videos
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.scanner.WalkVideos()
	if err != nil {
		logging.Error("Failed to list videos: %v", err)
		writeJSONError(w, "failed to list videos", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.describeVideos(r.Context(), videos))
}

// describeVideos builds listing entries, probing durations concurrently.
// Order follows videos.
func (h *Handlers) describeVideos(ctx context.Context, videos []media.VideoFile) []BrowseFile {
	files := make([]BrowseFile, len(videos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listingProbeLimit)
	for i, v := range videos {
		g.Go(func() error {
			key := sandbox.KeyFor(v.RelPath)
			files[i] = BrowseFile{
				ID:        v.Stem,
				RelPath:   v.RelPath,
				Filename:  v.Name,
				Title:     titleFromStem(v.Stem),
				Size:      formatGB(v.Size),
				SizeBytes: v.Size,
				Duration:  h.transcoder.Probe(gctx, v.AbsPath).DurationString(),
				MediaURL:  mediaURL(v.RelPath),
				Key:       key,
				Status:    h.transcoder.Registry().Get(key).State,
				Created:   v.ModTime.Unix(),
			}
			return nil
		})
	}
	_ = g.Wait()

	return files
}

// titleFromStem turns "my_holiday_clip" into "My Holiday Clip": underscores
// become spaces, letters following a non-letter are upper-cased, the rest lower-cased.
func titleFromStem(stem string) string {
	var b strings.Builder
	b.Grow(len(stem))

	prevLetter := false
	for _, r := range strings.ReplaceAll(stem, "_", " ") {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

func formatGB(size int64) string {
	return fmt.Sprintf("%.2f GB", float64(size)/(1<<30))
}

// mediaURL returns the escaped /media URL for a relative path.
func mediaURL(relPath string) string {
	segments := strings.Split(relPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/media/" + strings.Join(segments, "/")
}
