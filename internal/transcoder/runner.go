package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"video-streamer/internal/logging"
)

// stderrTail bounds how much encoder diagnostics end up in errors and logs.
const stderrTail = 2048

// DefaultWaitDelay is how long Wait waits for output pipes after the process
// group has been killed.
const DefaultWaitDelay = 5 * time.Second

// Runner executes an external program and returns its standard output.
// A non-nil error means the program could not run or exited non-zero;
// it carries the tail of standard error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec. Every process is started in its own
// process group, and cancelling ctx kills the whole group so encoder child
// processes do not outlive the invocation.
type ExecRunner struct {
	waitDelay time.Duration

	mu        sync.Mutex
	processes map[*exec.Cmd]string
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		waitDelay: DefaultWaitDelay,
		processes: make(map[*exec.Cmd]string),
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	r.track(cmd, name)
	defer r.untrack(cmd)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), fmt.Errorf("%s killed: %w", name, ctx.Err())
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Running returns the number of tracked processes.
func (r *ExecRunner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processes)
}

// Cleanup kills every process still running.
func (r *ExecRunner) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for cmd, name := range r.processes {
		if cmd.Process != nil {
			logging.Info("Killing %s process group %d", name, cmd.Process.Pid)
			if err := killProcessGroup(cmd); err != nil {
				logging.Warn("failed to kill %s process group %d: %v", name, cmd.Process.Pid, err)
			}
		}
	}
}

func (r *ExecRunner) track(cmd *exec.Cmd, name string) {
	r.mu.Lock()
	r.processes[cmd] = name
	r.mu.Unlock()
}

func (r *ExecRunner) untrack(cmd *exec.Cmd) {
	r.mu.Lock()
	delete(r.processes, cmd)
	r.mu.Unlock()
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
