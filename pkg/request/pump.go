package request

import (
	"sync/atomic"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/dustin/go-humanize"
)

// teardownKey is the scheduler owner of the teardown poll, separate from the request's own registration
type teardownKey struct {
	r *Request
}

// update is the scheduler callback registered by Start. It raises progress events while the worker runs
// and performs the terminal transition once the worker published its result
func (r *Request) update(dt time.Duration) {
	select {
	case res := <-r.done:
		r.finish(res)
	default:
		if r.State() == InProgress {
			r.emit(EventProgress)
		}
	}
}

func (r *Request) finish(res *result) {
	r.scheduler.Unschedule(r)
	select {
	case <-r.exited:
	default:
		r.scheduler.Schedule(teardownKey{r}, teardownInterval, teardownPriority, r.checkTeardown)
	}

	next := Completed
	if res.code != http.CodeOK {
		next = Failed
	}
	// a cancellation that happened first always wins, and is not an error
	if atomic.CompareAndSwapInt32(&r.state, int32(InProgress), int32(next)) {
		r.res = res
		r.code = res.code
		r.message = res.message
	}

	state := r.State()
	log.Debug().
		Object("request", r).
		Int("sc", res.statusCode).
		Int("code", int(res.code)).
		Str("size", humanize.Bytes(uint64(res.data.Len()))).
		AnErr("cause", res.err).
		Msg("request finished")

	if r.notified {
		return
	}
	r.notified = true
	r.emit(eventForState(state))
}

// checkTeardown drops the teardown registration once the worker goroutine is gone
func (r *Request) checkTeardown(dt time.Duration) {
	select {
	case <-r.exited:
		r.scheduler.Unschedule(teardownKey{r})
		log.Trace().Str("id", r.ID()).Msg("worker exited")
	default:
	}
}

func (r *Request) emit(name string) {
	if r.listener == nil {
		return
	}
	dlTotal, dlNow, ulTotal, ulNow := r.Progress()
	r.listener.OnEvent(Event{
		Name:          name,
		Request:       r,
		DownloadTotal: dlTotal,
		Downloaded:    dlNow,
		UploadTotal:   ulTotal,
		Uploaded:      ulNow,
	})
}
