package maintenance

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "maintenance-test", Output: io.Discard})
}

func TestNewSchedulerRequiresLoggerAndLock(t *testing.T) {
	_, err := NewScheduler(SchedulerParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewScheduler(SchedulerParams{Logger: testLogger()})
	require.Error(t, err)
}

func TestCycleRunsEveryJobEvenAfterFailure(t *testing.T) {
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()

	scheduler, err := NewScheduler(SchedulerParams{
		Logger:  testLogger(),
		Lock:    lock,
		Jobs:    Jobs{failing, nil, ok},
		Metrics: metrics.NewJobMetrics(reg),
	})
	require.NoError(t, err)

	assert.True(t, scheduler.cycle(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &countingJob{name: "job"}
	lock := &fakeLock{held: true}
	scheduler, err := NewScheduler(SchedulerParams{Logger: testLogger(), Lock: lock, Jobs: Jobs{job}})
	require.NoError(t, err)

	assert.False(t, scheduler.cycle(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestCycleSkipsWhenLockErrors(t *testing.T) {
	job := &countingJob{name: "job"}
	scheduler, err := NewScheduler(SchedulerParams{Logger: testLogger(), Lock: &fakeLock{err: errors.New("redis down")}, Jobs: Jobs{job}})
	require.NoError(t, err)

	assert.False(t, scheduler.cycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "job"}
	scheduler, err := NewScheduler(SchedulerParams{Logger: testLogger(), Lock: &fakeLock{}, Jobs: Jobs{job}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, scheduler.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs)
}
