package http

import (
	"net"
	"testing"
	"time"

	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/reuseport"
)

type fataler interface {
	Fatal(args ...interface{})
}

func benchServer(t fataler, handler fasthttp.RequestHandler) net.Listener {
	ln, err := reuseport.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal("failed to listen", err)
	}
	s := &fasthttp.Server{Handler: handler}
	go s.Serve(ln)
	return ln
}

func benchPerform(b *testing.B, path string, handler fasthttp.RequestHandler, wantBody int) {
	log.SetLevelString("error")
	b.ReportAllocs()

	var (
		ln        = benchServer(b, handler)
		transport = NewTransport(&Config{
			Timeout:         time.Second,
			ConnectTimeout:  time.Second,
			FollowRedirects: true,
			MaxRedirects:    2,
		})
		x  = &Transfer{Method: GET, URL: "http://" + ln.Addr().String() + path}
		n  int
		cb = Callbacks{
			OnData: func(p []byte) int {
				n += len(p)
				return len(p)
			},
			OnProgress: func(dlTotal, dlNow, ulTotal, ulNow int64) bool { return false },
		}
	)
	defer ln.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n = 0
		out := transport.Perform(x, cb)
		if out.Code != CodeOK {
			b.Fatal("bad outcome", out.Code, out.Err)
		}
		if n != wantBody {
			b.Fatal("bad length", n)
		}
	}
}

func BenchmarkPerform(b *testing.B) {
	benchPerform(b, "/foo", func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.AddBytesKV([]byte("x-custom-header"), []byte("key"))
		ctx.Response.AppendBodyString("foo")
	}, 3)
}

func BenchmarkPerformGzip(b *testing.B) {
	body := fasthttp.AppendGzipBytes(nil, make([]byte, 64*1024))
	benchPerform(b, "/foo", func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
		ctx.SetBody(body)
	}, 64*1024)
}

func BenchmarkPerformRedirect(b *testing.B) {
	benchPerform(b, "/foo", func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/foo" {
			ctx.Response.SetStatusCode(302)
			ctx.Response.Header.AddBytesKV([]byte("location"), []byte("/bar"))
			return
		}
		ctx.Response.AppendBodyString("bar")
	}, 3)
}
