package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	errors2 "github.com/assetnote/kitefetch/pkg/errors"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/assetnote/kitefetch/pkg/scheduler"
	"github.com/dustin/go-humanize"
	"github.com/francoispqt/gojay"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
)

// Results is the outcome of a batch, in the order the urls were provided
type Results []Summary

func (s Summary) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("id", s.ID)
	enc.StringKey("url", s.URL)
	enc.StringKey("state", s.State)
	enc.IntKeyOmitEmpty("status", s.StatusCode)
	enc.IntKey("size", s.Size)
	enc.StringKeyOmitEmpty("content_type", s.ContentType)
	enc.IntKey("code", int(s.Code))
	enc.StringKeyOmitEmpty("message", s.Message)
	enc.Int64Key("duration_ms", s.Duration.Milliseconds())
}

func (s Summary) IsNil() bool {
	return false
}

func (r Results) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range r {
		enc.Object(v)
	}
}

func (r Results) IsNil() bool {
	return r == nil
}

// JSON encodes the results as a json array
func (r Results) JSON() ([]byte, error) {
	var b bytes.Buffer
	enc := gojay.BorrowEncoder(&b)
	defer enc.Release()
	if err := enc.EncodeArray(r); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Table renders the results as a text table to w
func (r Results) Table(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"url", "state", "status", "size", "code", "duration"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	for _, v := range r {
		status := ""
		if v.StatusCode != 0 {
			status = strconv.Itoa(v.StatusCode)
		}
		code := strconv.Itoa(int(v.Code))
		if v.Message != "" {
			code = fmt.Sprintf("%d (%s)", v.Code, v.Message)
		}
		table.Append([]string{v.URL, v.State, status, humanize.Bytes(uint64(v.Size)), code,
			v.Duration.Round(time.Millisecond).String()})
	}
	table.Render()
}

// batch tracks the progress of a Batch call. Everything in here is only touched on the scheduler goroutine
type batch struct {
	o        *Options
	urls     []string
	results  Results
	next     int
	inflight int
	merr     *multierror.Error
	watcher  *interruptWatcher
	progress *BatchProgress
	warc     *WarcSink
}

// Batch fetches every url, keeping at most MaxInFlight requests in flight, all of them reporting on the same
// scheduler. The returned error aggregates every request that did not complete
func Batch(ctx context.Context, urls []string, opts ...Option) (Results, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	s := o.scheduler()

	b := &batch{
		o:       o,
		urls:    urls,
		results: make(Results, len(urls)),
		watcher: newInterruptWatcher(ctx, s),
	}
	defer b.watcher.stop()

	if o.ProgressBar && stderrIsTerminal() {
		b.progress = NewBatchProgress()
	}
	if o.WarcDir != "" {
		if b.warc, err = NewWarcSink(o.WarcDir); err != nil {
			return nil, err
		}
		defer b.warc.Close()
	}

	start := time.Now()
	for b.inflight < o.MaxInFlight && b.next < len(urls) {
		b.launch()
	}
	if b.inflight == 0 {
		b.watcher.stop()
	}
	if err := s.RunUntilIdle(context.Background(), scheduler.DefaultFrame); err != nil {
		return b.results, err
	}
	b.progress.Wait()

	failed := 0
	if b.merr != nil {
		failed = len(b.merr.Errors)
	}
	log.Info().
		Int("requests", len(urls)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("batch complete")

	if o.JSON {
		data, err := b.results.JSON()
		if err != nil {
			return b.results, err
		}
		fmt.Fprintln(o.Stdout, string(data))
	} else {
		b.results.Table(o.Stdout)
	}

	return b.results, b.merr.ErrorOrNil()
}

// launch starts the next pending url. Urls that cannot be turned into a request are recorded as failed
// and the next one is tried
func (b *batch) launch() {
	for b.next < len(b.urls) {
		if b.watcher.Interrupted() {
			b.skipRemaining()
			return
		}
		i := b.next
		b.next++
		if b.start(i) {
			return
		}
	}
}

func (b *batch) start(i int) bool {
	url := b.urls[i]
	b.results[i] = Summary{URL: url, State: request.Idle.String()}

	var (
		begin time.Time
		bar   request.ListenerFunc
	)
	r, err := b.o.NewRequest(url, request.ListenerFunc(func(e request.Event) {
		bar(e)
		if e.Terminal() {
			b.done(i, e.Request, time.Since(begin))
		}
	}))
	if err != nil {
		b.results[i].Message = err.Error()
		b.merr = multierror.Append(b.merr, fmt.Errorf("%s: %w", url, err))
		return false
	}

	bar = b.progress.Track(url)
	begin = time.Now()
	if err := r.Start(); err != nil {
		b.results[i].Message = err.Error()
		b.merr = multierror.Append(b.merr, err)
		r.Clear()
		return false
	}
	b.inflight++
	b.watcher.add(r)
	return true
}

// done records a terminal request and refills the in flight window
func (b *batch) done(i int, r *request.Request, d time.Duration) {
	b.inflight--
	b.watcher.remove(r)
	b.results[i] = summarize(r, d)

	switch r.State() {
	case request.Completed:
		if b.warc != nil {
			if err := b.warc.Write(r); err != nil {
				log.Error().Err(err).Str("url", r.URL()).Msg("failed to archive response")
			}
		}
	case request.Failed:
		b.merr = multierror.Append(b.merr, r.Err())
	default:
		b.merr = multierror.Append(b.merr, fmt.Errorf("%w: %s", ErrCancelled, r.URL()))
	}
	if b.o.WriteOut != "" {
		fmt.Fprint(b.o.Stdout, RenderWriteOut(b.o.WriteOut, b.results[i]))
	}
	log.Debug().Object("request", r).Dur("duration", d).Msg("request finished")
	r.Clear()

	b.launch()
	if b.inflight == 0 {
		b.watcher.stop()
	}
}

func (b *batch) skipRemaining() {
	for ; b.next < len(b.urls); b.next++ {
		url := b.urls[b.next]
		b.results[b.next] = Summary{URL: url, State: request.Cancelled.String()}
		b.merr = multierror.Append(b.merr, fmt.Errorf("%w: %s", ErrCancelled, url))
	}
}

// PrintErrors logs every failure aggregated by Batch
func PrintErrors(err error) {
	if err == nil {
		return
	}
	log.Error().Msg("some requests did not complete")
	errors2.PrintError(err, 0)
}
