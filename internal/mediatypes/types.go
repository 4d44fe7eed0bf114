package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of a file served or listed by the streamer.
type FileType string

const (
	// FileTypeFolder represents a directory.
	FileTypeFolder FileType = "folder"
	// FileTypeVideo represents a playable source video.
	FileTypeVideo FileType = "video"
	// FileTypeManifest represents an adaptive-streaming playlist.
	FileTypeManifest FileType = "manifest"
	// FileTypeSegment represents an adaptive-streaming media segment.
	FileTypeSegment FileType = "segment"
	// FileTypeImage represents a still image such as a poster.
	FileTypeImage FileType = "image"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// DefaultMimeType is served for extensions missing from MimeTypes.
const DefaultMimeType = "application/octet-stream"

// VideoExtensions lists source containers that appear in listings and can be transcoded.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

// ManifestExtensions lists adaptive-streaming playlist extensions.
var ManifestExtensions = map[string]bool{
	".m3u8": true,
}

// SegmentExtensions lists adaptive-streaming segment extensions.
var SegmentExtensions = map[string]bool{
	".ts":  true,
	".m4s": true,
}

// ImageExtensions lists still-image extensions produced by the poster step.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Adaptive streaming
	".m3u8": "application/vnd.apple.mpegURL",
	".ts":   "video/MP2T",
	".m4s":  "video/mp4",

	// Videos
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",

	// Posters
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Ext returns the lowercase extension of name including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	switch {
	case VideoExtensions[ext]:
		return FileTypeVideo
	case ManifestExtensions[ext]:
		return FileTypeManifest
	case SegmentExtensions[ext]:
		return FileTypeSegment
	case ImageExtensions[ext]:
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".m3u8").
// Returns DefaultMimeType if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return DefaultMimeType
}

// MimeTypeFor returns the MIME type for a file path based on its extension.
func MimeTypeFor(path string) string {
	return GetMimeType(Ext(path))
}

// IsVideoFile returns true if name has a source video extension (case-insensitive).
func IsVideoFile(name string) bool {
	return VideoExtensions[Ext(name)]
}
