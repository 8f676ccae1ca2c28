package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	errors2 "github.com/assetnote/kitefetch/pkg/errors"
	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/scheduler"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/stretchr/testify/assert"

	nethttp "net/http"
)

func testServer() *httptest.Server {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/ok", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello kitefetch"))
	})
	mux.HandleFunc("/missing", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte("nope"))
	})
	mux.HandleFunc("/echo", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		w.Header().Set("X-Cookie", r.Header.Get("Cookie"))
		w.Write(body)
	})
	mux.HandleFunc("/hang", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	})
	return httptest.NewServer(mux)
}

// testOptions isolates every test on its own scheduler and captures stdout
func testOptions(out *bytes.Buffer, extra ...Option) []Option {
	return append([]Option{
		WithScheduler(scheduler.New()),
		Stdout(out),
	}, extra...)
}

func TestFetchStdout(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	var out bytes.Buffer
	sum, err := Fetch(context.Background(), srv.URL+"/ok", testOptions(&out)...)
	assert.Nil(t, err)
	assert.Equal(t, "hello kitefetch", out.String())
	assert.Equal(t, 200, sum.StatusCode)
	assert.Equal(t, len("hello kitefetch"), sum.Size)
	assert.Equal(t, "text/plain", sum.ContentType)
	assert.Equal(t, "completed", sum.State)
	assert.NotEmpty(t, sum.ID)
	assert.Greater(t, int64(sum.Duration), int64(0))
}

func TestFetchNotFoundIsNotAnError(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	var out bytes.Buffer
	sum, err := Fetch(context.Background(), srv.URL+"/missing", testOptions(&out, WriteOut(`\n%{http_code}`))...)
	assert.Nil(t, err)
	assert.Equal(t, 404, sum.StatusCode)
	assert.Equal(t, "nope\n404", out.String())
}

func TestFetchPayloadAndHeaders(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	tests := []struct {
		name string
		opts []Option
		body string
	}{
		{
			name: "raw data",
			opts: []Option{Data(`{"a":1}`), AddHeaders([]string{"Content-Type: application/json"})},
			body: `{"a":1}`,
		},
		{name: "fields", opts: []Option{AddFields([]string{"b=2", "a=1"})}, body: "a=1&b=2"},
		{name: "put", opts: []Option{Method("put"), Data("x")}, body: "x"},
		{name: "delete", opts: []Option{Method("DELETE")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				out  bytes.Buffer
				opts = testOptions(&out, append(tt.opts,
					AddHeaders([]string{"X-Custom: yes"}),
					Cookie("a=1"),
					WriteOut("|%{content_type}"))...)
			)
			sum, err := Fetch(context.Background(), srv.URL+"/echo", opts...)
			assert.Nil(t, err)
			assert.Equal(t, 200, sum.StatusCode)
			assert.Equal(t, tt.body+"|text/plain", out.String())
		})
	}
}

func TestFetchEchoHeaders(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	var (
		out   bytes.Buffer
		s     = scheduler.New()
		opts  = []Option{WithScheduler(s), Stdout(&out)}
		extra = []Option{AddForms([]string{"user=bob"}), AddHeaders([]string{"X-Custom: yes"}), Cookie("a=1")}
	)
	o, err := applyOptions(append(opts, extra...))
	assert.Nil(t, err)

	r, err := o.NewRequest(srv.URL+"/echo", nil)
	assert.Nil(t, err)
	assert.Nil(t, r.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.Nil(t, s.RunUntilIdle(ctx, time.Millisecond))

	headers, err := r.ResponseHeadersString()
	assert.Nil(t, err)
	assert.Contains(t, headers, "X-Method: POST")
	assert.Contains(t, headers, "X-Custom: yes")
	assert.Contains(t, headers, "X-Cookie: a=1")
	assert.Contains(t, headers, "X-Content-Type: multipart/form-data; boundary=------------------------")

	body, err := r.ResponseString()
	assert.Nil(t, err)
	assert.Contains(t, body, `name="user"`)
	assert.Contains(t, body, "bob")
}

func TestFetchOutputFile(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	dir, err := ioutil.TempDir("", "kitefetch")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "out.txt")

	var out bytes.Buffer
	_, err = Fetch(context.Background(), srv.URL+"/ok", testOptions(&out, OutputFile(path))...)
	assert.Nil(t, err)
	assert.Empty(t, out.String())

	data, err := ioutil.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "hello kitefetch", string(data))

	// overwriting needs --force
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		_, err = Fetch(context.Background(), srv.URL+"/missing", testOptions(&out, OutputFile(path))...)
		assert.True(t, errors.Is(err, ErrFileExists), err)
	}

	_, err = Fetch(context.Background(), srv.URL+"/missing", testOptions(&out, OutputFile(path), Force(true))...)
	assert.Nil(t, err)
	data, err = ioutil.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "nope", string(data))
}

func TestFetchWarc(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	dir, err := ioutil.TempDir("", "kitefetch-warc")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	var out bytes.Buffer
	_, err = Fetch(context.Background(), srv.URL+"/ok", testOptions(&out, WarcDir(dir))...)
	assert.Nil(t, err)

	files, err := ioutil.ReadDir(dir)
	assert.Nil(t, err)
	if assert.Len(t, files, 1) {
		assert.True(t, strings.HasPrefix(files[0].Name(), "kitefetch-"), files[0].Name())
		assert.Greater(t, files[0].Size(), int64(0))
	}
}

func TestFetchFailure(t *testing.T) {
	var out bytes.Buffer
	sum, err := Fetch(context.Background(), "http://127.0.0.1:1/", testOptions(&out, WriteOut("%{exitcode}"))...)

	var terr *errors2.TransferError
	if assert.True(t, errors.As(err, &terr), err) {
		assert.Equal(t, int(http.CodeCouldntConnect), terr.Code)
		assert.Equal(t, "http://127.0.0.1:1/", terr.URL)
	}
	assert.Equal(t, "failed", sum.State)
	assert.Equal(t, "7", out.String())
}

func TestFetchTimeout(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	var out bytes.Buffer
	_, err := Fetch(context.Background(), srv.URL+"/hang", testOptions(&out, Timeout(500*time.Millisecond))...)

	var terr *errors2.TransferError
	if assert.True(t, errors.As(err, &terr), err) {
		assert.Equal(t, int(http.CodeOperationTimedOut), terr.Code)
	}
}

func TestFetchInterrupted(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	var out bytes.Buffer
	start := time.Now()
	sum, err := Fetch(ctx, srv.URL+"/hang", testOptions(&out)...)
	assert.True(t, errors.Is(err, ErrCancelled), err)
	assert.Equal(t, "cancelled", sum.State)
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second))
}

func TestFetchInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "method", opts: []Option{Method("PATCH")}},
		{name: "encoding", opts: []Option{Compressed("br")}},
		{name: "data and fields", opts: []Option{Data("x"), AddFields([]string{"a=1"})}},
		{name: "fields and forms", opts: []Option{AddFields([]string{"a=1"}), AddForms([]string{"b=2"})}},
		{name: "bad field", opts: []Option{AddFields([]string{"nope"})}},
		{name: "bad header", opts: []Option{AddHeaders([]string{"nope"})}},
		{name: "timeout", opts: []Option{Timeout(-time.Second)}},
		{name: "in flight", opts: []Option{MaxInFlight(0)}},
		{name: "missing data file", opts: []Option{Data("@/nonexistent/kitefetch")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := Fetch(context.Background(), "http://example.com", testOptions(&out, tt.opts...)...)
			assert.Error(t, err)
		})
	}
}

func TestFetchEmptyURL(t *testing.T) {
	var out bytes.Buffer
	_, err := Fetch(context.Background(), "", testOptions(&out)...)
	assert.True(t, errors.Is(err, errors2.ErrInvalidArgument), err)
}

func TestBatch(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	urls := []string{
		srv.URL + "/ok",
		srv.URL + "/missing",
		"http://127.0.0.1:1/",
		srv.URL + "/ok",
		"",
	}

	var out bytes.Buffer
	res, err := Batch(context.Background(), urls, testOptions(&out, MaxInFlight(2), JSONSummary(true))...)
	var merr *multierror.Error
	if assert.True(t, errors.As(err, &merr), err) {
		assert.Len(t, merr.Errors, 2)
	}

	if assert.Len(t, res, len(urls)) {
		assert.Equal(t, "completed", res[0].State)
		assert.Equal(t, 200, res[0].StatusCode)
		assert.Equal(t, 404, res[1].StatusCode)
		assert.Equal(t, "failed", res[2].State)
		assert.Equal(t, http.CodeCouldntConnect, res[2].Code)
		assert.Equal(t, "completed", res[3].State)
		assert.Equal(t, "idle", res[4].State)
		assert.NotEmpty(t, res[4].Message)
	}

	var decoded []map[string]interface{}
	assert.Nil(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	if assert.Len(t, decoded, len(urls)) {
		assert.Equal(t, float64(200), decoded[0]["status"])
		assert.Equal(t, "text/plain", decoded[0]["content_type"])
		assert.Equal(t, float64(7), decoded[2]["code"])
	}
}

func TestBatchInFlightLimit(t *testing.T) {
	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		current--
		mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = srv.URL + "/"
	}

	var out bytes.Buffer
	res, err := Batch(context.Background(), urls, testOptions(&out, MaxInFlight(3))...)
	assert.Nil(t, err)
	assert.Len(t, res, len(urls))
	for _, v := range res {
		assert.Equal(t, "completed", v.State)
	}
	mu.Lock()
	assert.LessOrEqual(t, peak, 3)
	mu.Unlock()
	assert.Contains(t, out.String(), "URL")
	assert.Contains(t, out.String(), "completed")
}

func TestBatchInterrupted(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	urls := []string{srv.URL + "/hang", srv.URL + "/hang", srv.URL + "/hang"}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	var out bytes.Buffer
	res, err := Batch(ctx, urls, testOptions(&out, MaxInFlight(1))...)
	var merr *multierror.Error
	if assert.True(t, errors.As(err, &merr), err) {
		assert.Len(t, merr.Errors, len(urls))
		for _, v := range merr.Errors {
			assert.True(t, errors.Is(v, ErrCancelled), v)
		}
	}
	for _, v := range res {
		assert.Equal(t, "cancelled", v.State)
	}
}

func TestBatchWarc(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	dir, err := ioutil.TempDir("", "kitefetch-warc")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	var out bytes.Buffer
	_, err = Batch(context.Background(), []string{srv.URL + "/ok", srv.URL + "/missing"},
		testOptions(&out, WarcDir(dir))...)
	assert.Nil(t, err)

	files, err := ioutil.ReadDir(dir)
	assert.Nil(t, err)
	assert.NotEmpty(t, files)
}
