package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"video-streamer/internal/filesystem"
	"video-streamer/internal/logging"
	"video-streamer/internal/mediatypes"
	"video-streamer/internal/sandbox"
)

// ErrNotDirectory indicates a listing was requested for something other than a directory.
var ErrNotDirectory = errors.New("not a directory")

// Scanner lists videos under a sandboxed root.
type Scanner struct {
	resolver *sandbox.Resolver
	retry    filesystem.RetryConfig
}

// NewScanner creates a new Scanner instance.
func NewScanner(resolver *sandbox.Resolver) *Scanner {
	return &Scanner{
		resolver: resolver,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// ListDirectory returns the sub-directories and video files directly inside
// relPath, each sorted case-insensitively by name. Hidden entries are skipped.
// Errors wrap sandbox.ErrForbidden, sandbox.ErrNotFound or ErrNotDirectory.
func (s *Scanner) ListDirectory(relPath string) (*DirectoryListing, error) {
	relPath = normalizePath(relPath)

	fullPath, err := s.resolver.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	info, err := filesystem.StatWithRetry(fullPath, s.retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sandbox.ErrNotFound, relPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, relPath)
	}

	entries, err := filesystem.ReadDirWithRetry(fullPath, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", relPath, err)
	}

	cwd, err := s.resolver.Rel(fullPath)
	if err != nil {
		return nil, err
	}

	listing := &DirectoryListing{
		RelPath: cwd,
		Folders: []Folder{},
		Videos:  []VideoFile{},
	}
	if cwd != "" {
		parent := path.Dir(cwd)
		if parent == "." {
			parent = ""
		}
		listing.Parent = &parent
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		entryPath := filepath.Join(fullPath, entry.Name())
		target, info, ok := s.inspect(entryPath)
		if !ok {
			continue
		}

		rel := joinRel(cwd, entry.Name())
		switch {
		case info.IsDir():
			listing.Folders = append(listing.Folders, Folder{Name: entry.Name(), RelPath: rel})
		case info.Mode().IsRegular() && mediatypes.IsVideoFile(entry.Name()):
			listing.Videos = append(listing.Videos, newVideoFile(entry.Name(), rel, target, info))
		}
	}

	sort.Slice(listing.Folders, func(i, j int) bool {
		return strings.ToLower(listing.Folders[i].Name) < strings.ToLower(listing.Folders[j].Name)
	})
	sort.Slice(listing.Videos, func(i, j int) bool {
		return strings.ToLower(listing.Videos[i].Name) < strings.ToLower(listing.Videos[j].Name)
	})

	return listing, nil
}

// WalkVideos returns every video file under the root, newest first.
// Unreadable sub-directories are logged and skipped.
func (s *Scanner) WalkVideos() ([]VideoFile, error) {
	root := s.resolver.Root()
	var videos []VideoFile

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			logging.Warn("Skipping %s: %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !mediatypes.IsVideoFile(d.Name()) {
			return nil
		}

		target, info, ok := s.inspect(p)
		if !ok || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := s.resolver.Rel(p)
		if err != nil {
			return nil
		}
		videos = append(videos, newVideoFile(d.Name(), rel, target, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ModTime.After(videos[j].ModTime)
	})
	return videos, nil
}

// inspect resolves symlinks for an entry and stats the target. Entries whose
// canonical target lies outside the root are rejected.
func (s *Scanner) inspect(p string) (string, os.FileInfo, bool) {
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		logging.Debug("Skipping unresolvable entry %s: %v", p, err)
		return "", nil, false
	}
	if !sandbox.Contains(s.resolver.Root(), target) {
		logging.Debug("Skipping entry %s pointing outside the root", p)
		return "", nil, false
	}
	info, err := filesystem.StatWithRetry(target, s.retry)
	if err != nil {
		return "", nil, false
	}
	return target, info, true
}

func newVideoFile(name, rel, abs string, info os.FileInfo) VideoFile {
	return VideoFile{
		Name:    name,
		Stem:    strings.TrimSuffix(name, filepath.Ext(name)),
		RelPath: rel,
		AbsPath: abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// normalizePath cleans a client-supplied relative path ("/a/b/" -> "a/b", "." -> "")
func normalizePath(relativePath string) string {
	relativePath = strings.Trim(relativePath, "/")
	relativePath = path.Clean(relativePath)
	if relativePath == "." {
		relativePath = ""
	}
	return relativePath
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
