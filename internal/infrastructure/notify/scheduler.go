package notify

import (
	"context"
	"sync"
)

type Task func()

// Scheduler is a FIFO task queue used to deliver notifications after the
// operation that produced them has returned. Tasks run one at a time, in the
// order they were deferred, either on the Run goroutine or inside Flush.
type Scheduler struct {
	mu    sync.Mutex
	queue []Task
	wake  chan struct{}

	// held while tasks execute so delivery stays single-threaded
	drain sync.Mutex

	onPanic func(recovered any)
}

// NewScheduler creates an idle scheduler. onPanic, when set, receives the value
// recovered from a panicking task; the queue keeps draining afterwards.
func NewScheduler(onPanic func(recovered any)) *Scheduler {
	return &Scheduler{
		queue:   make([]Task, 0, 64),
		wake:    make(chan struct{}, 1),
		onPanic: onPanic,
	}
}

func (s *Scheduler) Defer(task Task) {
	if task == nil {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Run drains the queue whenever work arrives until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			s.Flush()
		}
	}
}

// Flush runs queued tasks on the calling goroutine until the queue is empty,
// including tasks deferred by the tasks it runs. It returns how many ran.
// Must not be called from inside a task.
func (s *Scheduler) Flush() int {
	s.drain.Lock()
	defer s.drain.Unlock()

	ran := 0
	for {
		task, ok := s.next()
		if !ok {
			return ran
		}
		s.execute(task)
		ran++
	}
}

func (s *Scheduler) next() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}

	task := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return task, true
}

func (s *Scheduler) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			if s.onPanic == nil {
				panic(r)
			}
			s.onPanic(r)
		}
	}()

	task()
}
