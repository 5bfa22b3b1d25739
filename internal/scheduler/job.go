package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"firestige.xyz/pktxmt/internal/core"
)

// Job status values.
const (
	StatusCreated = "created"
	StatusRunning = "running"
	StatusStopped = "stopped"
	StatusFailed  = "failed"
)

// Runner is anything that drives a flowgraph until it is done or ctx is
// cancelled. *Graph is a Runner.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Job runs one Runner on its own goroutine. The graph itself stays
// single-threaded: only the job goroutine ever invokes its blocks.
type Job struct {
	ID        int
	Name      string
	CreatedAt int64

	r Runner

	mu     sync.Mutex
	status string
	err    error

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewJob(id int, r Runner) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		ID:        id,
		Name:      r.Name(),
		CreatedAt: time.Now().UnixMilli(),
		r:         r,
		status:    StatusCreated,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (j *Job) String() string {
	return j.Name
}

func (j *Job) IDString() string {
	return strconv.Itoa(j.ID)
}

// Start launches the graph. Calling Start twice has no effect.
func (j *Job) Start() {
	j.mu.Lock()
	if j.status != StatusCreated {
		j.mu.Unlock()
		return
	}
	j.status = StatusRunning
	j.mu.Unlock()

	go func() {
		defer close(j.done)
		err := j.r.Run(j.ctx)

		j.mu.Lock()
		defer j.mu.Unlock()
		switch {
		case err == nil, errors.Is(err, core.ErrGraphStopped):
			j.status = StatusStopped
		default:
			j.status = StatusFailed
			j.err = err
		}
	}()
}

// Stop cancels the graph and waits up to 5s for it to return.
func (j *Job) Stop() {
	j.cancel()

	j.mu.Lock()
	started := j.status != StatusCreated
	if !started {
		j.status = StatusStopped
	}
	j.mu.Unlock()
	if !started {
		return
	}

	select {
	case <-j.done:
	case <-time.After(5 * time.Second):
	}
}

// Wait blocks until the graph returns or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the graph has returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) Status() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the error the graph failed with, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
