/*
Package streaming writes files to HTTP responses with byte-range support and
timeout-protected writes.

# Range Requests

[Streamer.ServeFile] honours a single "bytes=<start>-[<end>]" span:

  - no Range header: 200 with the whole file
  - satisfiable span: 206 with Content-Range "bytes start-end/size"
  - malformed or unsatisfiable span: 416 with an empty body and the Content-Range
    produced by [UnsatisfiedContentRange]

Every successful response carries Accept-Ranges, Content-Length, a Content-Type
derived from the file extension, and a public Cache-Control whose max-age
depends on the [Kind] (one hour for direct files, ten minutes for HLS resources).

The body is read in bounded chunks (1 MiB by default), so peak memory per
response does not depend on file size. A read that returns no data before the
span is complete ends the stream with [ErrTruncated]. The file is closed on
every exit path.

	s := streaming.NewStreamer(streaming.DefaultConfig())
	if err := s.ServeFile(w, r, path, streaming.KindDirect); errors.Is(err, streaming.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "file not found")
	}

# Timeout Writer

Body bytes go through a [TimeoutWriter], which bounds each write by
WriteTimeout, cancels the stream after IdleTimeout without progress, and maps
request-context cancellation to [ErrClientGone].
*/
package streaming
