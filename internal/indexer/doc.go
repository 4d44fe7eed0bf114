// Package indexer keeps the probe cache warm for the video library.
//
// An [Indexer] walks the content root, runs every video through the prober
// with a bounded number of workers and records progress. Passes run:
//   - once at startup, in the background
//   - on a fixed interval
//   - when cheap change detection (root and top-level directory mtimes) sees
//     the tree move
//   - on demand via [Indexer.TriggerIndex]
//
// Cached probes make directory listings and /probe answers instant even on
// slow network mounts. Passes yield to a [memory.Monitor] when one is set.
package indexer
