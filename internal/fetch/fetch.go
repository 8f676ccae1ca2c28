package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/assetnote/kitefetch/pkg/scheduler"
	"github.com/dustin/go-humanize"
)

var (
	ErrCancelled = fmt.Errorf("request cancelled")
)

func (o *Options) scheduler() *scheduler.Scheduler {
	if o.Scheduler == nil {
		o.Scheduler = scheduler.Shared()
	}
	return o.Scheduler
}

// Fetch performs a single request to url and drives the scheduler until it is done. The body goes to the output
// file when one is set, to Stdout otherwise. A cancelled ctx cancels the request
func Fetch(ctx context.Context, url string, opts ...Option) (Summary, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return Summary{}, err
	}
	s := o.scheduler()

	var bar *DownloadBar
	if o.ProgressBar && stderrIsTerminal() {
		bar = NewDownloadBar(url)
	}

	var (
		start    time.Time
		duration time.Duration
		watcher  = newInterruptWatcher(ctx, s)
	)
	defer watcher.stop()

	r, err := o.NewRequest(url, request.ListenerFunc(func(e request.Event) {
		bar.OnEvent(e)
		if e.Terminal() {
			duration = time.Since(start)
			watcher.remove(e.Request)
			watcher.stop()
		}
	}))
	if err != nil {
		return Summary{}, err
	}
	defer r.Clear()

	log.Debug().Str("options", o.String()).Msg("starting fetch")
	start = time.Now()
	if err := r.Start(); err != nil {
		return Summary{}, err
	}
	watcher.add(r)

	if err := s.RunUntilIdle(context.Background(), scheduler.DefaultFrame); err != nil {
		return Summary{}, err
	}

	sum := summarize(r, duration)
	if err := o.deliver(r, sum); err != nil {
		return sum, err
	}
	return sum, nil
}

// deliver hands a terminal request to the configured outputs
func (o *Options) deliver(r *request.Request, sum Summary) error {
	if o.WriteOut != "" {
		defer fmt.Fprint(o.Stdout, RenderWriteOut(o.WriteOut, sum))
	}

	switch r.State() {
	case request.Cancelled:
		return fmt.Errorf("%w: %s", ErrCancelled, r.URL())
	case request.Failed:
		return r.Err()
	}

	log.Info().
		Str("url", sum.URL).
		Int("status", sum.StatusCode).
		Str("size", humanize.Bytes(uint64(sum.Size))).
		Dur("duration", sum.Duration).
		Msg("fetch complete")

	if o.WarcDir != "" {
		w, err := NewWarcSink(o.WarcDir)
		if err != nil {
			return err
		}
		if err := w.Write(r); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}

	if o.OutputFile != "" {
		return saveOutput(r, o.OutputFile, o.Force)
	}
	body, err := r.ResponseData()
	if err != nil {
		return err
	}
	_, err = o.Stdout.Write(body)
	return err
}
