package scheduler

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Scheduler keeps track of running flowgraph jobs.
type Scheduler struct {
	jobs      map[int]*Job
	nextJobID int64 // monotonically increasing
	mu        sync.RWMutex
}

var (
	instance *Scheduler
	once     sync.Once
)

// GetScheduler returns the process-wide scheduler.
func GetScheduler() *Scheduler {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{jobs: make(map[int]*Job)}
}

// AddJob registers r and starts it.
func (s *Scheduler) AddJob(r Runner) *Job {
	jobID := int(atomic.AddInt64(&s.nextJobID, 1))

	job := NewJob(jobID, r)
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	job.Start()
	return job
}

func (s *Scheduler) RemoveJob(jobID int) bool {
	s.mu.Lock()
	job, exists := s.jobs[jobID]
	delete(s.jobs, jobID)
	s.mu.Unlock()

	if !exists {
		return false
	}
	job.Stop()
	return true
}

func (s *Scheduler) GetJob(jobID int) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	return job, exists
}

// Jobs lists the registered jobs ordered by ID.
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// StopAll stops and forgets every job.
func (s *Scheduler) StopAll() {
	for _, j := range s.Jobs() {
		s.RemoveJob(j.ID)
	}
}
