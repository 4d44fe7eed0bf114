package transcoder

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoderFailure indicates an encoder invocation exited non-zero or could not start.
	ErrEncoderFailure = errors.New("encoder failure")

	// ErrEncoderTimeout indicates an encoder invocation was killed after its deadline.
	ErrEncoderTimeout = fmt.Errorf("%w: timed out", ErrEncoderFailure)

	// ErrProbeFailure indicates a metadata probe failed, timed out or returned garbage.
	ErrProbeFailure = errors.New("probe failure")

	// ErrAlreadyProcessing is returned when a job for the key is already in flight.
	ErrAlreadyProcessing = errors.New("job already processing")

	// ErrJobFault indicates an unexpected failure in a job body.
	ErrJobFault = errors.New("job fault")

	// ErrShuttingDown is returned for triggers that arrive after Shutdown.
	ErrShuttingDown = errors.New("transcoder shutting down")
)
