package handlers

import (
	"time"

	"video-streamer/internal/indexer"
	"video-streamer/internal/media"
	"video-streamer/internal/sandbox"
	"video-streamer/internal/startup"
	"video-streamer/internal/streaming"
	"video-streamer/internal/transcoder"
)

// listingProbeLimit bounds concurrent metadata probes per listing request.
const listingProbeLimit = 4

type Handlers struct {
	resolver   *sandbox.Resolver
	scanner    *media.Scanner
	streamer   *streaming.Streamer
	transcoder *transcoder.Transcoder
	indexer    *indexer.Indexer
	auth       browseAuth
	startTime  time.Time
}

// browseAuth gates the listing endpoints. Disabled when username is empty.
type browseAuth struct {
	username     string
	passwordHash []byte
}

func (a browseAuth) enabled() bool {
	return a.username != "" && len(a.passwordHash) > 0
}

func New(config *startup.Config, resolver *sandbox.Resolver, trans *transcoder.Transcoder, streamer *streaming.Streamer) *Handlers {
	h := &Handlers{
		resolver:   resolver,
		scanner:    media.NewScanner(resolver),
		streamer:   streamer,
		transcoder: trans,
		startTime:  time.Now(),
	}
	if config != nil && config.BrowseAuthEnabled() {
		h.auth = browseAuth{
			username:     config.BrowseUsername,
			passwordHash: []byte(config.BrowsePasswordHash),
		}
	}
	return h
}

// SetIndexer enables /reindex and the indexer section of /health.
func (h *Handlers) SetIndexer(idx *indexer.Indexer) {
	h.indexer = idx
}
