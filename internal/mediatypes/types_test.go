package mediatypes

import (
	"testing"
)

func TestGetFileType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want FileType
	}{
		{name: "MP4 video", ext: ".mp4", want: FileTypeVideo},
		{name: "MKV video", ext: ".mkv", want: FileTypeVideo},
		{name: "WebM video", ext: ".webm", want: FileTypeVideo},
		{name: "HLS playlist", ext: ".m3u8", want: FileTypeManifest},
		{name: "Transport stream segment", ext: ".ts", want: FileTypeSegment},
		{name: "Fragmented MP4 segment", ext: ".m4s", want: FileTypeSegment},
		{name: "Poster", ext: ".jpg", want: FileTypeImage},
		{name: "Unknown extension", ext: ".xyz", want: FileTypeOther},
		{name: "Empty extension", ext: "", want: FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"hls/master.m3u8", "application/vnd.apple.mpegURL"},
		{"hls/720p/seg_00001.ts", "video/MP2T"},
		{"chunk.m4s", "video/mp4"},
		{"mp4/720p.mp4", "video/mp4"},
		{"Movie.MKV", "video/x-matroska"},
		{"clip.mov", "video/quicktime"},
		{"poster.jpg", "image/jpeg"},
		{"notes.txt", DefaultMimeType},
		{"noext", DefaultMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MimeTypeFor(tt.path); got != tt.want {
				t.Errorf("MimeTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"clip.mp4", true},
		{"CLIP.MP4", true},
		{"show.m4v", true},
		{"segment.ts", false},
		{"index.m3u8", false},
		{"readme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVideoFile(tt.name); got != tt.want {
				t.Errorf("IsVideoFile(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
