package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRunsToCompletion(t *testing.T) {
	sink := &memSink{}
	g := framingGraph(t, Config{Name: "job"}, newPacketSource(0, seq(1, 4)), sink, false)

	s := New()
	job := s.AddJob(g)
	assert.Equal(t, "job", job.String())
	assert.Equal(t, "1", job.IDString())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, StatusStopped, job.Status())
	assert.Equal(t, 8, sink.Len())
}

func TestJobStopLiveGraph(t *testing.T) {
	src := newPacketSource(0, seq(1, 4))
	src.live = true
	g := framingGraph(t, Config{Name: "live", IdleWait: time.Millisecond}, src, &memSink{}, false)

	s := New()
	job := s.AddJob(g)
	got, ok := s.GetJob(job.ID)
	require.True(t, ok)
	assert.Same(t, job, got)

	assert.True(t, s.RemoveJob(job.ID))
	<-job.Done()
	assert.Equal(t, StatusStopped, job.Status())
	assert.NoError(t, job.Err())
	assert.False(t, s.RemoveJob(job.ID))
}

func TestJobFailure(t *testing.T) {
	g := framingGraph(t, Config{}, newPacketSource(0, seq(1, 3)), &memSink{err: assert.AnError}, false)
	job := NewJob(7, g)
	job.Start()
	job.Start()

	err := job.Wait(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StatusFailed, job.Status())
}

func TestStopBeforeStart(t *testing.T) {
	g := framingGraph(t, Config{}, newPacketSource(0), &memSink{}, false)
	job := NewJob(1, g)
	job.Stop()
	assert.Equal(t, StatusStopped, job.Status())
}

func TestSchedulerJobsOrderedAndStopAll(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		src := newPacketSource(0, seq(1, 2))
		src.live = true
		s.AddJob(framingGraph(t, Config{IdleWait: time.Millisecond}, src, &memSink{}, false))
	}
	jobs := s.Jobs()
	require.Len(t, jobs, 3)
	for i, j := range jobs {
		assert.Equal(t, i+1, j.ID)
	}
	s.StopAll()
	assert.Empty(t, s.Jobs())
}

func TestGetSchedulerSingleton(t *testing.T) {
	assert.Same(t, GetScheduler(), GetScheduler())
}
