package workers

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCount(t *testing.T) {
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{name: "CPU-bound task (1.0x multiplier)", multiplier: 1.0, limit: 0, minExpect: 1, maxExpect: availableCPU},
		{name: "encoder task (0.25x multiplier)", multiplier: 0.25, limit: 0, minExpect: 1, maxExpect: availableCPU},
		{name: "With limit lower than calculated", multiplier: 2.0, limit: 2, minExpect: 1, maxExpect: 2},
		{name: "Zero multiplier still yields one", multiplier: 0, limit: 0, minExpect: 1, maxExpect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want between %d and %d",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestForHelpers(t *testing.T) {
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForEncoder(0); got < 1 {
		t.Errorf("ForEncoder(0) = %d, want >= 1", got)
	}
	if ForEncoder(0) > ForCPU(0) {
		t.Error("ForEncoder should never exceed ForCPU")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)

	var active, peak, starts atomic.Int32
	release := make(chan struct{})
	ready := make(chan struct{})

	for i := 0; i < 5; i++ {
		err := pool.Go(func(_ context.Context) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			if starts.Add(1) == 2 {
				close(ready)
			}
			<-release
			active.Add(-1)
		})
		if err != nil {
			t.Fatalf("Go() error = %v", err)
		}
	}

	<-ready
	queued, running := pool.Stats()
	if running != 2 || queued != 3 {
		t.Errorf("Stats() = queued %d running %d, want 3 and 2", queued, running)
	}

	close(release)
	pool.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestPoolShutdownCancelsTasks(t *testing.T) {
	pool := NewPool(1)

	var cancelled atomic.Int32
	for i := 0; i < 3; i++ {
		if err := pool.Go(func(ctx context.Context) {
			<-ctx.Done()
			cancelled.Add(1)
		}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if cancelled.Load() != 3 {
		t.Errorf("expected all 3 tasks (running and queued) to observe cancellation, got %d", cancelled.Load())
	}

	if err := pool.Go(func(context.Context) {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Go() after Shutdown = %v, want ErrPoolClosed", err)
	}
}

func TestPoolShutdownTimeout(t *testing.T) {
	pool := NewPool(1)
	release := make(chan struct{})

	if err := pool.Go(func(context.Context) { <-release }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() = %v, want DeadlineExceeded for a task ignoring ctx", err)
	}

	close(release)
	pool.Wait()
}

func TestNewPoolMinimumSize(t *testing.T) {
	pool := NewPool(0)
	defer func() { _ = pool.Shutdown(context.Background()) }()

	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1", pool.Size())
	}
}
