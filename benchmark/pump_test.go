package benchmark

import (
	"testing"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/assetnote/kitefetch/pkg/scheduler"
	"github.com/stretchr/testify/assert"
)

// nopTransport completes every transfer immediately with a fixed body
type nopTransport struct {
	body []byte
}

func (t nopTransport) Perform(x *http.Transfer, cb http.Callbacks) http.Outcome {
	cb.OnHeader([]byte("HTTP/1.1 200 OK\r\n"))
	cb.OnHeader([]byte("\r\n"))
	cb.OnData(t.body)
	cb.OnProgress(int64(len(t.body)), int64(len(t.body)), 0, 0)
	return http.Outcome{StatusCode: 200}
}

type args struct {
	requests int
	inflight int
	body     int
}

type test struct {
	name  string
	input args
}

// runPump starts requests on a single scheduler keeping at most inflight of them running,
// and ticks until all of them reported. It returns how many completed
func runPump(requests, inflight, body int) int {
	var (
		s         = scheduler.New()
		transport = nopTransport{body: make([]byte, body)}
		started   = 0
		running   = 0
		completed = 0
	)

	var start func()
	listener := request.ListenerFunc(func(e request.Event) {
		if !e.Terminal() {
			return
		}
		if e.Name == request.EventCompleted {
			completed++
		}
		running--
		e.Request.Clear()
		start()
	})
	start = func() {
		for running < inflight && started < requests {
			r, err := request.New(listener, "http://bench.local/", http.GET,
				request.WithScheduler(s), request.WithTransport(transport))
			if err != nil {
				panic(err)
			}
			started++
			running++
			r.Start()
		}
	}

	start()
	for s.Len() > 0 {
		s.Tick(time.Now())
	}
	return completed
}

func TestRunPump(t *testing.T) {
	assert.Equal(t, 100, runPump(100, 10, 16))
	assert.Equal(t, 5, runPump(5, 50, 0))
}

func BenchmarkPump(b *testing.B) {
	log.SetLevelString("error")
	tests := []test{
		{"serial", args{100, 1, 1024}},
		{"parallel", args{100, 10, 1024}},
		{"wide", args{1000, 100, 1024}},
		{"large bodies", args{100, 10, 1024 * 1024}},
	}
	for _, test := range tests {
		b.Run(test.name, func(b *testing.B) {
			b.ReportAllocs()
			var res int
			for i := 0; i < b.N; i++ {
				res = runPump(test.input.requests, test.input.inflight, test.input.body)
			}
			if res != test.input.requests {
				b.Fatal("not every request completed", res)
			}
		})
	}
}
