package transcoder

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-streamer/internal/metrics"
)

// State is the lifecycle state of a key's job.
type State string

// Job states. A key nobody has triggered is StateNotStarted.
const (
	StateNotStarted State = "not_started"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// StepStatus is the outcome of one encoder step for one quality.
type StepStatus string

// Step outcomes.
const (
	StepPending StepStatus = "pending"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// QualityResult records what a job produced for one ladder rung.
type QualityResult struct {
	Name     string     `json:"name"`
	MP4      StepStatus `json:"mp4"`
	Adaptive StepStatus `json:"adaptive"`
}

// Job is a snapshot of a key's job record.
type Job struct {
	Key        string          `json:"key"`
	ID         string          `json:"jobId,omitempty"`
	State      State           `json:"state"`
	Input      string          `json:"-"`
	Adaptive   bool            `json:"adaptive"`
	CreatedAt  time.Time       `json:"createdAt,omitzero"`
	StartedAt  time.Time       `json:"startedAt,omitzero"`
	FinishedAt time.Time       `json:"finishedAt,omitzero"`
	Error      string          `json:"error,omitempty"`
	Qualities  []QualityResult `json:"qualities,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (j Job) Done() bool {
	return j.State == StateCompleted || j.State == StateError
}

func (j *Job) clone() Job {
	c := *j
	c.Qualities = append([]QualityResult(nil), j.Qualities...)
	return c
}

// Registry holds one job record per key. All access goes through a single
// mutex that is never held across I/O.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Get returns a snapshot of key's job. Unknown keys report StateNotStarted
// without creating a record.
func (r *Registry) Get(key string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key]
	if !ok {
		return Job{Key: key, State: StateNotStarted}
	}
	return job.clone()
}

// TryStart moves key to StateProcessing with a fresh job ID unless a job for
// it is already processing, in which case ErrAlreadyProcessing is returned.
// Completed or failed keys may be started again.
func (r *Registry) TryStart(key, input string, adaptive bool, qualities []string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	job, ok := r.jobs[key]
	if ok && job.State == StateProcessing {
		return job.clone(), fmt.Errorf("%w: %s", ErrAlreadyProcessing, key)
	}
	if !ok {
		job = &Job{Key: key, CreatedAt: now}
		r.jobs[key] = job
	}

	job.ID = uuid.NewString()
	job.State = StateProcessing
	job.Input = input
	job.Adaptive = adaptive
	job.StartedAt = now
	job.FinishedAt = time.Time{}
	job.Error = ""
	job.Qualities = make([]QualityResult, len(qualities))
	for i, q := range qualities {
		adaptiveStatus := StepSkipped
		if adaptive {
			adaptiveStatus = StepPending
		}
		job.Qualities[i] = QualityResult{Name: q, MP4: StepPending, Adaptive: adaptiveStatus}
	}
	return job.clone(), nil
}

// RecordStep stores the outcome of one step. Updates from a job run other
// than the current one are ignored.
func (r *Registry) RecordStep(key, id, quality, kind string, status StepStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key]
	if !ok || job.ID != id || job.State != StateProcessing {
		return
	}
	for i := range job.Qualities {
		if job.Qualities[i].Name != quality {
			continue
		}
		switch kind {
		case KindMP4:
			job.Qualities[i].MP4 = status
		case KindHLS:
			job.Qualities[i].Adaptive = status
		}
		return
	}
}

// Finish moves a processing job to StateCompleted, or StateError when err is
// non-nil. It returns the final snapshot and false if the job run was no
// longer current or already finished.
func (r *Registry) Finish(key, id string, err error) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key]
	if !ok || job.ID != id || job.State != StateProcessing {
		return Job{}, false
	}
	job.FinishedAt = time.Now()
	if err != nil {
		job.State = StateError
		job.Error = err.Error()
	} else {
		job.State = StateCompleted
	}
	return job.clone(), true
}

// FailProcessing marks every processing job as failed with err and returns their keys.
func (r *Registry) FailProcessing(err error) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []string
	now := time.Now()
	for key, job := range r.jobs {
		if job.State != StateProcessing {
			continue
		}
		job.State = StateError
		job.Error = err.Error()
		job.FinishedAt = now
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Processing returns the keys currently processing, sorted.
func (r *Registry) Processing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []string
	for key, job := range r.jobs {
		if job.State == StateProcessing {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetStats implements metrics.StatsProvider.
func (r *Registry) GetStats() metrics.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats metrics.Stats
	for _, job := range r.jobs {
		switch job.State {
		case StateNotStarted:
			stats.NotStarted++
		case StateProcessing:
			stats.Processing++
		case StateCompleted:
			stats.Completed++
		case StateError:
			stats.Error++
		}
	}
	return stats
}
