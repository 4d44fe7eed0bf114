package transcoder

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	job := r.Get("missing")
	if job.State != StateNotStarted || job.Key != "missing" {
		t.Errorf("Get() = %+v", job)
	}
	if r.GetStats().NotStarted != 0 {
		t.Error("Get materialized a record")
	}
}

func TestRegistryTryStartIsAtomic(t *testing.T) {
	r := NewRegistry()

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.TryStart("k", "/in.mp4", true, []string{"480p"}); err == nil {
				started.Add(1)
			} else if !errors.Is(err, ErrAlreadyProcessing) {
				t.Errorf("TryStart() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := started.Load(); got != 1 {
		t.Errorf("%d concurrent TryStart calls succeeded, want 1", got)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	first, err := r.TryStart("k", "/in.mp4", true, []string{"480p", "720p"})
	if err != nil {
		t.Fatal(err)
	}
	if first.State != StateProcessing || first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("TryStart() = %+v", first)
	}
	if first.Qualities[0].MP4 != StepPending || first.Qualities[0].Adaptive != StepPending {
		t.Errorf("initial steps = %+v", first.Qualities[0])
	}

	r.RecordStep("k", first.ID, "480p", KindMP4, StepDone)
	r.RecordStep("k", first.ID, "720p", KindHLS, StepFailed)
	r.RecordStep("k", "stale-id", "480p", KindHLS, StepDone)

	job := r.Get("k")
	if job.Qualities[0].MP4 != StepDone || job.Qualities[0].Adaptive != StepPending {
		t.Errorf("480p = %+v", job.Qualities[0])
	}
	if job.Qualities[1].Adaptive != StepFailed {
		t.Errorf("720p = %+v", job.Qualities[1])
	}

	if _, ok := r.Finish("k", "stale-id", nil); ok {
		t.Error("Finish accepted a stale job ID")
	}
	final, ok := r.Finish("k", first.ID, nil)
	if !ok || final.State != StateCompleted || final.FinishedAt.IsZero() {
		t.Fatalf("Finish() = %+v, %v", final, ok)
	}
	if _, ok := r.Finish("k", first.ID, errors.New("late")); ok {
		t.Error("Finish applied twice")
	}

	second, err := r.TryStart("k", "/in.mp4", false, []string{"480p"})
	if err != nil {
		t.Fatalf("restart after completion: %v", err)
	}
	if second.ID == first.ID {
		t.Error("restart reused job ID")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("restart reset CreatedAt")
	}
	if second.Qualities[0].Adaptive != StepSkipped {
		t.Errorf("adaptive step = %s, want skipped", second.Qualities[0].Adaptive)
	}

	failed, ok := r.Finish("k", second.ID, ErrJobFault)
	if !ok || failed.State != StateError || failed.Error != ErrJobFault.Error() {
		t.Errorf("Finish(err) = %+v", failed)
	}
}

func TestRegistrySnapshotsAreCopies(t *testing.T) {
	r := NewRegistry()
	job, _ := r.TryStart("k", "/in.mp4", false, []string{"480p"})

	job.Qualities[0].MP4 = StepDone
	if r.Get("k").Qualities[0].MP4 != StepPending {
		t.Error("mutating a snapshot changed the registry")
	}
}

func TestRegistryFailProcessingAndStats(t *testing.T) {
	r := NewRegistry()
	a, _ := r.TryStart("a", "/a", false, nil)
	r.TryStart("b", "/b", false, nil)
	r.TryStart("c", "/c", false, nil)
	r.Finish("a", a.ID, nil)

	if got := r.Processing(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Processing() = %v", got)
	}

	keys := r.FailProcessing(ErrShuttingDown)
	if len(keys) != 2 {
		t.Errorf("FailProcessing() = %v", keys)
	}

	stats := r.GetStats()
	if stats.Completed != 1 || stats.Error != 2 || stats.Processing != 0 {
		t.Errorf("GetStats() = %+v", stats)
	}
	if r.Get("b").Error != ErrShuttingDown.Error() {
		t.Errorf("b error = %q", r.Get("b").Error)
	}
}
