// Package mediatypes holds the extension tables shared by the streamer: which
// files count as source videos, which are adaptive-streaming manifests or
// segments, and the fixed extension to MIME type mapping used for responses.
//
// The package has no dependencies beyond the standard library so it can be
// imported from anywhere without creating cycles.
//
//	mediatypes.MimeTypeFor("hls/720p/index.m3u8") // application/vnd.apple.mpegURL
//	mediatypes.MimeTypeFor("seg_00001.ts")        // video/MP2T
//	mediatypes.MimeTypeFor("blob.bin")            // application/octet-stream
package mediatypes
