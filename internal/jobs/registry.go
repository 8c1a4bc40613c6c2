// Package jobs tracks asynchronous download jobs in process memory and
// runs them on a fixed worker pool. Nothing is persisted; a restart
// forgets all jobs.
package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/shortssprint/shortssprint/internal/api"
)

// Status is a job's lifecycle state. Transitions only move forward:
// queued -> downloading -> completed | failed.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses so a stale update can never move a job backward.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusDownloading:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// Job is one tracked download.
type Job struct {
	ID          string     `json:"download_id"`
	Status      Status     `json:"status"`
	URL         string     `json:"url"`
	ContentType string     `json:"content_type,omitempty"`
	QueuedAt    time.Time  `json:"queued_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`
}

// Registry is a bounded in-memory job table. Capacity counts only
// non-terminal jobs, so finished work never blocks new submissions.
type Registry struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	capacity int
	now      func() time.Time
}

// NewRegistry builds a registry admitting at most capacity active jobs.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		jobs:     make(map[string]*Job),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add registers a new queued job. Returns CapacityExceeded when the
// active job count is at the limit.
func (r *Registry) Add(url, contentType string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, j := range r.jobs {
		if !j.Status.Terminal() {
			active++
		}
	}
	if active >= r.capacity {
		return nil, api.Errorf(api.KindCapacityExceeded,
			"too many active downloads (%d); retry later or clean up completed jobs", active)
	}

	now := r.now()
	job := &Job{
		ID:          jobID(url, now),
		Status:      StatusQueued,
		URL:         url,
		ContentType: contentType,
		QueuedAt:    now,
	}
	r.jobs[job.ID] = job
	return snapshot(job), nil
}

// Get returns a copy of the job, or NotFound.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, api.Errorf(api.KindNotFound, "download %q not found", id)
	}
	return snapshot(job), nil
}

// List returns copies of all tracked jobs.
func (r *Registry) List() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, snapshot(j))
	}
	return out
}

// Start marks the job downloading. A no-op if the job already advanced.
func (r *Registry) Start(id string) {
	r.transition(id, StatusDownloading, "", nil)
}

// Complete marks the job done with its result payload.
func (r *Registry) Complete(id string, result any) {
	r.transition(id, StatusCompleted, "", result)
}

// Fail marks the job failed with the error message.
func (r *Registry) Fail(id string, msg string) {
	r.transition(id, StatusFailed, msg, nil)
}

func (r *Registry) transition(id string, to Status, errMsg string, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || to.rank() <= job.Status.rank() {
		return
	}
	job.Status = to
	job.Error = errMsg
	job.Result = result
	if to.Terminal() {
		t := r.now()
		job.CompletedAt = &t
	}
}

// Cleanup removes terminal jobs and returns how many were dropped.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, j := range r.jobs {
		if j.Status.Terminal() {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Active returns the count of non-terminal jobs.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if !j.Status.Terminal() {
			n++
		}
	}
	return n
}

// jobID derives a short stable-looking handle from the input and the
// submission instant, so resubmitting the same URL yields distinct jobs.
func jobID(url string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d", url, at.UnixNano())))
	return hex.EncodeToString(sum[:])[:16]
}

func snapshot(j *Job) *Job {
	cp := *j
	return &cp
}
