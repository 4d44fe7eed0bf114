// Package transcoder builds the rendition set for a source video with FFmpeg.
//
// A job encodes every rung of the quality ladder to a fast-start MP4 and,
// when requested, to a segmented HLS variant, then writes a master playlist
// over the variants that succeeded and a poster frame. Jobs run on a bounded
// worker pool; at most one job per asset key is in flight at a time.
//
// Each external invocation runs in its own process group with a deadline and
// is killed as a group on expiry or shutdown. A failed invocation skips only
// that step. Metadata probing through ffprobe is best-effort: failures come
// back as an unknown [VideoInfo], never as an error.
package transcoder
