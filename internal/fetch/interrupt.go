package fetch

import (
	"context"
	"time"

	kcontext "github.com/assetnote/kitefetch/pkg/context"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/assetnote/kitefetch/pkg/scheduler"
)

const (
	interruptInterval = 50 * time.Millisecond
	// interruptPriority runs ahead of the request polls so a cancel is seen on the same tick
	interruptPriority = -10
)

// interruptWatcher cancels every in flight request once ctx is done. It lives on the scheduler so the
// cancellation happens on the same goroutine as every other request operation
type interruptWatcher struct {
	ctx       context.Context
	s         *scheduler.Scheduler
	inflight  map[*request.Request]struct{}
	cancelled bool
}

func newInterruptWatcher(ctx context.Context, s *scheduler.Scheduler) *interruptWatcher {
	w := &interruptWatcher{
		ctx:      ctx,
		s:        s,
		inflight: make(map[*request.Request]struct{}),
	}
	s.Schedule(w, interruptInterval, interruptPriority, w.check)
	return w
}

func (w *interruptWatcher) add(r *request.Request) {
	w.inflight[r] = struct{}{}
}

func (w *interruptWatcher) remove(r *request.Request) {
	delete(w.inflight, r)
}

// Interrupted reports whether the context was cancelled while requests were being run
func (w *interruptWatcher) Interrupted() bool {
	return w.cancelled
}

func (w *interruptWatcher) check(time.Duration) {
	if w.cancelled || !kcontext.Interrupted(w.ctx) {
		return
	}
	w.cancelled = true
	log.Info().Int("inflight", len(w.inflight)).Msg("cancelling in flight requests")
	for r := range w.inflight {
		if err := r.Cancel(); err != nil {
			log.Debug().Err(err).Str("id", r.ID()).Msg("failed to cancel request")
		}
	}
}

func (w *interruptWatcher) stop() {
	w.s.Unschedule(w)
}
