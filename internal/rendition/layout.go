package rendition

import (
	"path/filepath"
)

// File and directory names inside a key's output directory.
const (
	MP4Dir         = "mp4"
	HLSDir         = "hls"
	MasterPlaylist = "master.m3u8"
	MediaPlaylist  = "index.m3u8"
	SegmentPattern = "seg_%05d.ts"
	PosterFile     = "poster.jpg"
)

// Layout maps asset keys to paths under the processed root.
type Layout struct {
	Root string
}

// KeyDir returns {root}/{key}.
func (l Layout) KeyDir(key string) string {
	return filepath.Join(l.Root, key)
}

// MP4Dir returns {root}/{key}/mp4.
func (l Layout) MP4Dir(key string) string {
	return filepath.Join(l.Root, key, MP4Dir)
}

// MP4Path returns {root}/{key}/mp4/{quality}.mp4.
func (l Layout) MP4Path(key, quality string) string {
	return filepath.Join(l.Root, key, MP4Dir, quality+".mp4")
}

// HLSDir returns {root}/{key}/hls, the root for adaptive sub-resources.
func (l Layout) HLSDir(key string) string {
	return filepath.Join(l.Root, key, HLSDir)
}

// VariantDir returns {root}/{key}/hls/{quality}.
func (l Layout) VariantDir(key, quality string) string {
	return filepath.Join(l.Root, key, HLSDir, quality)
}

// VariantPlaylist returns {root}/{key}/hls/{quality}/index.m3u8.
func (l Layout) VariantPlaylist(key, quality string) string {
	return filepath.Join(l.VariantDir(key, quality), MediaPlaylist)
}

// MasterPath returns {root}/{key}/hls/master.m3u8.
func (l Layout) MasterPath(key string) string {
	return filepath.Join(l.Root, key, HLSDir, MasterPlaylist)
}

// PosterPath returns {root}/{key}/poster.jpg.
func (l Layout) PosterPath(key string) string {
	return filepath.Join(l.Root, key, PosterFile)
}

// VariantURI is the master-relative URI of a quality's media playlist.
func VariantURI(quality string) string {
	return quality + "/" + MediaPlaylist
}
