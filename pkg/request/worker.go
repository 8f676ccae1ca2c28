package request

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/google/uuid"
)

// job is the worker's private copy of the request configuration
type job struct {
	method         http.Method
	url            string
	headers        []string
	payload        payloadKind
	fields         map[string]string
	body           []byte
	form           []http.FormPart
	cookie         string
	acceptEncoding http.AcceptEncoding
	timeout        time.Duration
	connectTimeout time.Duration
}

// result is written only by the worker until it is sent on the done channel. From then on only
// the scheduler goroutine touches it
type result struct {
	statusCode int
	headers    http.HeaderLines
	data       *responseBuffer
	cookies    string
	code       http.ErrorCode
	message    string
	err        error
}

// transfer serializes the payload and builds what the transport needs
func (j *job) transfer() (*http.Transfer, error) {
	x := &http.Transfer{
		Method:         j.method,
		URL:            j.url,
		Headers:        j.headers,
		Cookie:         j.cookie,
		AcceptEncoding: j.acceptEncoding,
		Timeout:        j.timeout,
		ConnectTimeout: j.connectTimeout,
		// a POST is always sent with a body, even an empty one
		HasBody: j.method == http.POST,
	}

	switch j.payload {
	case payloadFields:
		x.Body = http.EncodeFields(j.fields)
		x.HasBody = true
	case payloadRaw:
		x.Body = j.body
		x.HasBody = true
	case payloadForm:
		body, ct, err := http.EncodeMultipart(j.form, "------------------------"+strings.ReplaceAll(uuid.New().String(), "-", ""))
		if err != nil {
			return nil, err
		}
		x.Body = body
		x.ContentType = ct
		x.HasBody = true
	}

	// a GET carrying a payload turns into a POST
	if x.HasBody && x.Method == http.GET {
		x.Method = http.POST
	}
	return x, nil
}

// work runs the transfer for one Start. The result is published on done before exited is closed,
// and every path publishes exactly one result
func work(j *job, transport http.Transport, progress func(dlTotal, dlNow, ulTotal, ulNow int64) bool,
	done chan<- *result, exited chan<- struct{}) {
	defer close(exited)

	res := &result{data: newResponseBuffer()}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("url", j.url).Bytes("stack", debug.Stack()).Msgf("transfer worker panicked: %v", p)
			res.code = http.CodeFailedInit
			res.message = res.code.String()
			res.err = fmt.Errorf("worker panic: %v", p)
		}
		done <- res
	}()

	x, err := j.transfer()
	if err != nil {
		log.Debug().Err(err).Str("url", j.url).Msg("failed to build request body")
		res.code = http.CodeReadError
		res.message = res.code.String()
		res.err = err
		return
	}

	out := transport.Perform(x, http.Callbacks{
		OnData: res.data.Write,
		OnHeader: func(line []byte) int {
			res.headers = append(res.headers, string(line))
			return len(line)
		},
		OnProgress: progress,
	})

	res.statusCode = out.StatusCode
	res.cookies = strings.Join(out.Cookies, "\n")
	res.code = out.Code
	res.message = out.Message
	res.err = out.Err
}
