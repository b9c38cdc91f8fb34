package schedule

import (
	"sync"
	"time"
)

// TaskID identifies one pending scheduled effect.
type TaskID uint64

// Task is one declarative narrative beat: run Effect after Delay.
type Task struct {
	Delay  time.Duration
	Effect func()
}

// Scheduler owns the pending timers for one subsystem, so tearing the
// subsystem down is a single CancelAll rather than chasing individual
// handles. Effects fire on their own goroutine; callers serialize their
// own state behind their usual mutex, which preserves run-to-completion
// semantics per state machine.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[TaskID]*time.Timer
	nextID  TaskID
	stopped bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{timers: make(map[TaskID]*time.Timer)}
}

// After schedules effect to run once delay has elapsed.
func (s *Scheduler) After(delay time.Duration, effect func()) TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0
	}

	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, pending := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()

		// A timer that lost the race with Cancel/CancelAll must not
		// mutate state that is no longer relevant.
		if pending {
			effect()
		}
	})
	return id
}

// Sequence schedules a list of tasks, each delay measured from now.
func (s *Scheduler) Sequence(tasks []Task) []TaskID {
	ids := make([]TaskID, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, s.After(task.Delay, task.Effect))
	}
	return ids
}

// Cancel stops a single pending task. Unknown or already-fired IDs are
// no-ops.
func (s *Scheduler) Cancel(id TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

// CancelAll drains every pending task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Stop cancels all pending tasks and rejects new ones. Used at server
// shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Pending reports the number of tasks that have not fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
