package media

import "time"

// Folder is a sub-directory in a listing.
type Folder struct {
	Name    string
	RelPath string
}

// VideoFile is a video file found under the content root.
type VideoFile struct {
	Name    string // base name, e.g. "clip_one.mp4"
	Stem    string // name without extension
	RelPath string // slash-separated, relative to the root
	AbsPath string
	Size    int64
	ModTime time.Time
}

// DirectoryListing is one level of the content tree.
type DirectoryListing struct {
	// RelPath is "" for the root.
	RelPath string
	// Parent is nil at the root.
	Parent  *string
	Folders []Folder
	Videos  []VideoFile
}
