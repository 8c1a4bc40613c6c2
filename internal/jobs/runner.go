package jobs

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of work handed to the pool.
type Task struct {
	JobID       string
	URL         string
	ContentType string
}

// ExecFunc performs the actual download and returns the result payload
// recorded on the job.
type ExecFunc func(ctx context.Context, task Task) (any, error)

// Runner drains submitted tasks on a fixed set of workers, moving each
// job through the registry's lifecycle as it goes.
type Runner struct {
	registry *Registry
	exec     ExecFunc
	tasks    chan Task
	workers  int
	log      zerolog.Logger

	wg   sync.WaitGroup
	once sync.Once
}

// NewRunner builds a runner; the task buffer matches the registry
// capacity so Submit never blocks while the registry admits jobs.
func NewRunner(registry *Registry, workers int, exec ExecFunc, log zerolog.Logger) *Runner {
	return &Runner{
		registry: registry,
		exec:     exec,
		tasks:    make(chan Task, registry.capacity),
		workers:  workers,
		log:      log,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// Stop closes the task channel.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.log.Info().Int("workers", r.workers).Msg("download workers started")
}

// Submit queues a task for execution. Returns false when the buffer is
// full; the caller should fail the job rather than block a request.
func (r *Runner) Submit(task Task) bool {
	select {
	case r.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop closes the intake and waits for in-flight work to finish.
func (r *Runner) Stop() {
	r.once.Do(func() { close(r.tasks) })
	r.wg.Wait()
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-r.tasks:
			if !ok {
				return
			}
			r.runOne(ctx, task)
		}
	}
}

func (r *Runner) runOne(ctx context.Context, task Task) {
	r.registry.Start(task.JobID)
	result, err := r.exec(ctx, task)
	if err != nil {
		r.log.Warn().Err(err).Str("job_id", task.JobID).Msg("download job failed")
		r.registry.Fail(task.JobID, err.Error())
		return
	}
	r.registry.Complete(task.JobID, result)
	r.log.Info().Str("job_id", task.JobID).Msg("download job completed")
}
