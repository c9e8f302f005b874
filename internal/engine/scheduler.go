package engine

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs posted work and frame ticks on a single goroutine. Work is
// only run between frames, never while a frame is being drawn.
type Scheduler struct {
	interval time.Duration

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func NewScheduler(fps int) *Scheduler {
	if fps <= 0 {
		fps = 60
	}
	return &Scheduler{
		interval: time.Second / time.Duration(fps),
		wake:     make(chan struct{}, 1),
	}
}

// Post queues fn for the scheduler goroutine. It never blocks, so it is safe
// to call from audio callbacks and from inside posted work.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Drain runs everything queued so far, in posting order, and returns how many
// functions ran. Work posted while draining runs in the same call.
func (s *Scheduler) Drain() int {
	ran := 0
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Run drains posted work as it arrives and calls tick at the configured
// rate until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Drain()
			return
		case <-s.wake:
			s.Drain()
		case <-ticker.C:
			s.Drain()
			tick()
		}
	}
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}
