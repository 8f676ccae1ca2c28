package fetch

import (
	"fmt"
	"os"
	"time"

	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

// stderrIsTerminal gates every progress display, bars are never drawn into a pipe
func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// DownloadBar tracks the bytes of a single transfer
type DownloadBar struct {
	bar *progressbar.ProgressBar
}

func NewDownloadBar(description string) *DownloadBar {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetVisibility(true),
		progressbar.OptionSpinnerType(14),
	)
	return &DownloadBar{bar: bar}
}

// OnEvent updates the bar. A nil bar ignores every event
func (b *DownloadBar) OnEvent(e request.Event) {
	if b == nil {
		return
	}
	if e.DownloadTotal > 0 && e.DownloadTotal != b.bar.GetMax64() {
		b.bar.ChangeMax64(e.DownloadTotal)
	}
	b.bar.Set64(e.Downloaded)
	if e.Terminal() {
		b.bar.Finish()
	}
}

// BatchProgress draws one bar per in flight transfer
type BatchProgress struct {
	Pb *mpb.Progress
}

func NewBatchProgress() *BatchProgress {
	return &BatchProgress{
		Pb: mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(100*time.Millisecond),
		),
	}
}

// Track adds a bar for url and returns the listener keeping it up to date.
// A nil BatchProgress returns a listener that does nothing
func (b *BatchProgress) Track(url string) request.ListenerFunc {
	if b == nil {
		return func(request.Event) {}
	}
	bar := b.Pb.AddBar(0,
		mpb.PrependDecorators(decor.Name(url, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
	)
	return func(e request.Event) {
		if e.DownloadTotal > 0 {
			bar.SetTotal(e.DownloadTotal, false)
		}
		bar.SetCurrent(e.Downloaded)
		switch e.Name {
		case request.EventCompleted:
			bar.SetTotal(e.Downloaded, true)
		case request.EventCancelled, request.EventFailed, request.EventUnknown:
			bar.Abort(false)
		}
	}
}

// Wait blocks until every bar was completed or aborted
func (b *BatchProgress) Wait() {
	if b == nil {
		return
	}
	b.Pb.Wait()
}
