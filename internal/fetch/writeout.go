package fetch

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/valyala/fasttemplate"
)

var writeOutEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r")

// Summary is what is known about a request once it reached a terminal state
type Summary struct {
	ID         string
	URL        string
	State      string
	StatusCode int
	Size       int
	Headers    int
	Code       http.ErrorCode
	Message    string
	Duration   time.Duration
	// ContentType is taken from the last response
	ContentType string
}

func summarize(r *request.Request, d time.Duration) Summary {
	s := Summary{
		ID:       r.ID(),
		URL:      r.URL(),
		State:    r.State().String(),
		Code:     r.ErrorCode(),
		Message:  r.ErrorMessage(),
		Duration: d,
	}
	if r.State() != request.Completed {
		return s
	}
	s.StatusCode, _ = r.StatusCode()
	s.Size, _ = r.ResponseDataLength()
	if lines, err := r.ResponseHeaders(); err == nil {
		s.Headers = len(lines)
		s.ContentType = lastHeader(lines, "Content-Type")
	}
	return s
}

func lastHeader(lines http.HeaderLines, key string) string {
	ret := ""
	for _, v := range lines {
		if h, ok := http.ParseHeaderLine(v); ok && strings.EqualFold(h.Key, key) {
			ret = h.Value
		}
	}
	return ret
}

// RenderWriteOut expands the %{variable} tags in tpl the same way curl --write-out does.
// Unknown variables are left empty
func RenderWriteOut(tpl string, s Summary) string {
	t := fasttemplate.New(writeOutEscapes.Replace(tpl), "%{", "}")
	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		switch tag {
		case "http_code", "response_code":
			return fmt.Fprintf(w, "%03d", s.StatusCode)
		case "size_download":
			return w.Write([]byte(strconv.Itoa(s.Size)))
		case "url", "url_effective":
			return w.Write([]byte(s.URL))
		case "content_type":
			return w.Write([]byte(s.ContentType))
		case "num_headers":
			return w.Write([]byte(strconv.Itoa(s.Headers)))
		case "exitcode":
			return w.Write([]byte(strconv.Itoa(int(s.Code))))
		case "errormsg":
			return w.Write([]byte(s.Message))
		case "time_total":
			return fmt.Fprintf(w, "%.6f", s.Duration.Seconds())
		case "state":
			return w.Write([]byte(s.State))
		case "request_id":
			return w.Write([]byte(s.ID))
		}
		return 0, nil
	})
}
