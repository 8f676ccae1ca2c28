package fetch

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/nlnwa/gowarc"
)

var (
	ErrFileExists = fmt.Errorf("output file exists")
)

// confirmOverwrite decides whether path may be written. Without force an existing file is only replaced after
// the user agreed to it, and never when nobody is there to ask
func confirmOverwrite(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrFileExists, path)
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Overwrite %s? [y/n]", path),
		IsConfirm: true,
		Stdout:    os.Stderr,
	}
	v, err := prompt.Run()
	if err != nil || strings.ToLower(v) != "y" {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	return nil
}

// saveOutput writes the body of a completed request to path
func saveOutput(r *request.Request, path string, force bool) error {
	if err := confirmOverwrite(path, force); err != nil {
		return err
	}
	n, err := r.SaveResponseData(path)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Str("size", humanize.Bytes(uint64(n))).Msg("saved response")
	return nil
}

// WarcSink archives completed responses as WARC response records
type WarcSink struct {
	writer *gowarc.WarcFileWriter
}

func NewWarcSink(directory string) (*WarcSink, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create warc directory: %w", err)
	}
	writer := gowarc.NewWarcFileWriter(gowarc.WithFileNameGenerator(&gowarc.PatternNameGenerator{
		Directory: directory,
		Pattern:   "kitefetch-%{ts}s-%04{serial}d.%{ext}s",
	}))
	return &WarcSink{writer: writer}, nil
}

// Write stores the final response of r. Only the header block of the last response in the redirect chain is kept
func (w *WarcSink) Write(r *request.Request) error {
	headers, err := r.ResponseHeaders()
	if err != nil {
		return err
	}
	body, err := r.ResponseData()
	if err != nil {
		return err
	}

	builder := gowarc.NewRecordBuilder(gowarc.Response)
	if _, err := builder.WriteString(finalHeaderBlock(headers)); err != nil {
		return err
	}
	if _, err := builder.Write(body); err != nil {
		return err
	}

	builder.AddWarcHeader(gowarc.WarcTargetURI, r.URL())
	builder.AddWarcHeaderTime(gowarc.WarcDate, time.Now())
	builder.AddWarcHeader(gowarc.ContentType, "application/http; msgtype=response")

	record, _, err := builder.Build()
	if err != nil {
		return err
	}
	w.writer.Write(record)
	log.Debug().Str("url", r.URL()).Int("size", len(body)).Msg("archived response")
	return nil
}

func (w *WarcSink) Close() error {
	return w.writer.Close()
}

// finalHeaderBlock returns the header lines of the last response, starting from its status line
func finalHeaderBlock(lines http.HeaderLines) string {
	start := 0
	for i, v := range lines {
		if strings.HasPrefix(v, "HTTP/") {
			start = i
		}
	}
	return lines[start:].String()
}
