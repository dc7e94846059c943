package icnet

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// taskQueueDepth is the per-worker depth of the spawn queue. A full queue is
// not an error: trySubmit fails and the caller evaluates the equation on the
// task it already runs.
const taskQueueDepth = 256

// scheduler is the task pool: a bounded queue of equations drained by a
// fixed set of workers. Tasks never block inside the pool; the only blocking
// point is wait, which parks the caller of Eval until every submitted task
// has completed.
type scheduler struct {
	workers int
	queue   chan *task
	pending sync.WaitGroup
	group   errgroup.Group
}

func newScheduler(workers int) *scheduler {
	if workers < 1 {
		workers = 1
	}
	return &scheduler{
		workers: workers,
		queue:   make(chan *task, workers*taskQueueDepth),
	}
}

func (s *scheduler) start(ev *evaluator) {
	for i := 0; i < s.workers; i++ {
		s.group.Go(func() error {
			for t := range s.queue {
				t.run(ev)
				s.pending.Done()
			}
			return nil
		})
	}
}

// submit enqueues a task, blocking if the queue is full. Only the evaluation
// driver may use it; workers never block, so the queue always drains.
func (s *scheduler) submit(t *task) {
	s.pending.Add(1)
	s.queue <- t
}

// trySubmit enqueues a task unless the queue is full.
func (s *scheduler) trySubmit(t *task) bool {
	s.pending.Add(1)
	select {
	case s.queue <- t:
		return true
	default:
		s.pending.Done()
		return false
	}
}

// wait blocks until every pending task has run, then shuts the workers down.
func (s *scheduler) wait() {
	s.pending.Wait()
	close(s.queue)
	_ = s.group.Wait()
}
