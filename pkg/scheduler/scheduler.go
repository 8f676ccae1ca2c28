package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/assetnote/kitefetch/pkg/log"
)

const (
	// DefaultFrame is the tick cadence used by RunUntilIdle when no frame is provided
	DefaultFrame = 16 * time.Millisecond
)

// Func is a scheduled callback. dt is the time elapsed since the callback last ran
type Func func(dt time.Duration)

type entry struct {
	owner    interface{}
	interval time.Duration
	priority int
	last     time.Time
	fn       Func
	removed  bool
}

// Scheduler invokes registered callbacks on whichever goroutine drives Tick. It is the host loop
// requests report back on, so callbacks never run concurrently with each other.
// Registration and removal are safe from any goroutine
type Scheduler struct {
	mu      sync.Mutex
	entries map[interface{}]*entry
	now     func() time.Time
}

func New() *Scheduler {
	return &Scheduler{
		entries: make(map[interface{}]*entry),
		now:     time.Now,
	}
}

var (
	shared     *Scheduler
	sharedOnce sync.Once
)

// Shared returns the process wide scheduler, creating it on first use
func Shared() *Scheduler {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

// Schedule registers fn to run every interval for owner. An interval of 0 runs fn on every tick.
// Lower priorities run first. Scheduling an owner twice replaces the previous registration
func (s *Scheduler) Schedule(owner interface{}, interval time.Duration, priority int, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[owner]; ok {
		old.removed = true
	}
	s.entries[owner] = &entry{
		owner:    owner,
		interval: interval,
		priority: priority,
		last:     s.now(),
		fn:       fn,
	}
}

// Unschedule drops the registration for owner. It is safe to call from inside a callback,
// the entry will not fire again even if it was part of the current tick
func (s *Scheduler) Unschedule(owner interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[owner]; ok {
		e.removed = true
		delete(s.entries, owner)
	}
}

// IsScheduled returns whether owner currently has a registration
func (s *Scheduler) IsScheduled(owner interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[owner]
	return ok
}

// Len returns the number of registrations
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Tick runs every due callback in ascending priority order. Callbacks run without the lock held
// so they are free to schedule and unschedule
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	due := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.interval <= 0 || now.Sub(e.last) >= e.interval {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].priority < due[j].priority
	})

	for _, e := range due {
		s.mu.Lock()
		if e.removed {
			s.mu.Unlock()
			continue
		}
		dt := now.Sub(e.last)
		if dt < 0 {
			dt = 0
		}
		e.last = now
		s.mu.Unlock()

		e.fn(dt)
	}
}

// RunUntilIdle drives Tick on the calling goroutine every frame until nothing is scheduled or the context is done
func (s *Scheduler) RunUntilIdle(ctx context.Context, frame time.Duration) error {
	if frame <= 0 {
		frame = DefaultFrame
	}
	t := time.NewTicker(frame)
	defer t.Stop()

	for s.Len() > 0 {
		select {
		case <-ctx.Done():
			log.Debug().Int("pending", s.Len()).Msg("scheduler stopped before going idle")
			return ctx.Err()
		case now := <-t.C:
			s.Tick(now)
		}
	}
	return nil
}
