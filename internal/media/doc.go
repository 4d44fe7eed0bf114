// Package media lists video files under the content root and renders poster
// images.
//
// Listings never follow a path outside the root: directory arguments go
// through the sandbox resolver, and symlinked entries whose targets escape
// the root are skipped.
package media
