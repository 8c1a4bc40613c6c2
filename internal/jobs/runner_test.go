package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForTerminal(t *testing.T, r *Registry, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := r.Get(id)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestRunnerCompletesJob(t *testing.T) {
	reg := NewRegistry(50)
	runner := NewRunner(reg, 2, func(ctx context.Context, task Task) (any, error) {
		return map[string]string{"filename": "out.mp4"}, nil
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	job, err := reg.Add("https://youtu.be/dQw4w9WgXcQ", "Concept")
	require.NoError(t, err)
	require.True(t, runner.Submit(Task{JobID: job.ID, URL: job.URL, ContentType: job.ContentType}))

	done := waitForTerminal(t, reg, job.ID)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.NotNil(t, done.Result)
}

func TestRunnerFailsJob(t *testing.T) {
	reg := NewRegistry(50)
	runner := NewRunner(reg, 1, func(ctx context.Context, task Task) (any, error) {
		return nil, errors.New("video unavailable")
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)
	defer runner.Stop()

	job, err := reg.Add("https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.True(t, runner.Submit(Task{JobID: job.ID, URL: job.URL}))

	done := waitForTerminal(t, reg, job.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "video unavailable", done.Error)
}

func TestSubmitFullBuffer(t *testing.T) {
	reg := NewRegistry(1)
	runner := NewRunner(reg, 1, func(ctx context.Context, task Task) (any, error) {
		return nil, nil
	}, zerolog.Nop())
	// Not started, so the single buffer slot is all there is.

	assert.True(t, runner.Submit(Task{JobID: "a"}))
	assert.False(t, runner.Submit(Task{JobID: "b"}))
}

func TestStopDrainsInFlightWork(t *testing.T) {
	reg := NewRegistry(50)
	started := make(chan struct{})
	release := make(chan struct{})
	runner := NewRunner(reg, 1, func(ctx context.Context, task Task) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, zerolog.Nop())

	runner.Start(context.Background())

	job, err := reg.Add("https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.True(t, runner.Submit(Task{JobID: job.ID, URL: job.URL}))

	<-started
	close(release)
	runner.Stop()

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}
