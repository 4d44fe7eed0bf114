// Package playlist builds and reads HLS playlists.
//
// The master playlist lists one variant per successfully encoded quality:
//
//	#EXTM3U
//	#EXT-X-VERSION:3
//	#EXT-X-STREAM-INF:BANDWIDTH=2628000,RESOLUTION=1280x720
//	720p/index.m3u8
//
// Variants are emitted in the order given; the caller decides the order.
// Master playlists are written atomically so a player never reads a partial file.
//
// Media playlists produced by the encoder are parsed only far enough to count
// segments and check for the end-of-list tag.
package playlist
