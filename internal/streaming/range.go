package streaming

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrMalformedRange indicates a Range header that is not of the form bytes=<start>-[<end>].
	ErrMalformedRange = errors.New("malformed range header")

	// ErrUnsatisfiableRange indicates a syntactically valid range that does not fit the file.
	ErrUnsatisfiableRange = errors.New("range not satisfiable")
)

// Only the first span of a multi-range header is honoured; suffix ranges
// (bytes=-N) and trailing junk after a span do not match and are reported
// as malformed.
var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)(?:,.*)?$`)

// Range is an inclusive byte span within a file.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a file of the given size.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange parses a Range header against a file of the given size. An omitted
// end defaults to the last byte. A start or end at or beyond size, or a start
// after the end, is unsatisfiable.
func ParseRange(header string, size int64) (Range, error) {
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	end := size - 1
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrMalformedRange, header)
		}
	}

	if start >= size || end >= size || start > end {
		return Range{}, fmt.Errorf("%w: %q for size %d", ErrUnsatisfiableRange, header, size)
	}

	return Range{Start: start, End: end}, nil
}

// UnsatisfiedContentRange formats the Content-Range header sent with a 416 response.
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
