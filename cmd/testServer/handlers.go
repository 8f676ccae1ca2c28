package main

import (
	"bufio"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

const (
	maxRedirectChain = 50
	maxLargeSize     = 1 << 30
)

var (
	requestCount count32
)

type count32 struct {
	val uint32
}

func (c *count32) increment() {
	atomic.AddUint32(&c.val, 1)
}

func (c *count32) get() uint32 {
	return atomic.LoadUint32(&c.val)
}

func PreRequest() {
	requestCount.increment()
}

func Index(ctx *fasthttp.RequestCtx) {
	PreRequest()

	ctx.WriteString("ok")
}

// SlowResponder answers after the delay in the path, e.g. /slow/2s
func SlowResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	d, err := time.ParseDuration(ctx.UserValue("delay").(string))
	if err != nil {
		ctx.Error("invalid delay", fasthttp.StatusBadRequest)
		return
	}
	time.Sleep(d)
	fmt.Fprintf(ctx, "slept %s\n", d)
}

// HangResponder sends the headers then trickles one byte every second, forever
func HangResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for {
			if _, err := w.WriteString("."); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			time.Sleep(time.Second)
		}
	})
}

// RedirectResponder redirects n times before answering, setting a cookie on every hop
func RedirectResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	n, err := strconv.Atoi(ctx.UserValue("n").(string))
	if err != nil || n < 0 || n > maxRedirectChain {
		ctx.Error("invalid redirect count", fasthttp.StatusBadRequest)
		return
	}
	if n == 0 {
		fmt.Fprintf(ctx, "landed. cookie: %s\n", ctx.Request.Header.Peek(fasthttp.HeaderCookie))
		return
	}

	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey("hop" + strconv.Itoa(n))
	c.SetValue(strconv.Itoa(n))
	c.SetPath("/")
	ctx.Response.Header.SetCookie(c)

	ctx.Redirect("/redirect/"+strconv.Itoa(n-1), fasthttp.StatusFound)
}

func CookieResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey("session")
	c.SetValue("kitefetch")
	c.SetHTTPOnly(true)
	c.SetPath("/")
	ctx.Response.Header.SetCookie(c)
	ctx.WriteString("cookie set\n")
}

func GzipResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	body := []byte("this body was gzipped on the wire\n")
	ctx.Response.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
	ctx.SetBody(fasthttp.AppendGzipBytes(nil, body))
}

// EchoResponder writes back the method, the request headers and the body
func EchoResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	fmt.Fprintf(ctx, "%s %s\n", ctx.Method(), ctx.RequestURI())
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		fmt.Fprintf(ctx, "%s: %s\n", k, v)
	})
	ctx.WriteString("\n")
	ctx.Write(ctx.PostBody())
}

// LargeResponder streams the number of bytes in the path, e.g. /large/10485760
func LargeResponder(ctx *fasthttp.RequestCtx) {
	PreRequest()

	size, err := strconv.Atoi(ctx.UserValue("size").(string))
	if err != nil || size < 0 || size > maxLargeSize {
		ctx.Error("invalid size", fasthttp.StatusBadRequest)
		return
	}
	chunk := make([]byte, 32*1024)
	for i := range chunk {
		chunk[i] = 'a' + byte(i%26)
	}
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for left := size; left > 0; {
			n := len(chunk)
			if left < n {
				n = left
			}
			if _, err := w.Write(chunk[:n]); err != nil {
				return
			}
			left -= n
		}
	})
	ctx.Response.Header.SetContentLength(size)
}

func newRouter() *router.Router {
	r := router.New()
	r.GET("/", Index)
	r.GET("/slow/{delay}", SlowResponder)
	r.GET("/hang", HangResponder)
	r.GET("/redirect/{n}", RedirectResponder)
	r.POST("/redirect/{n}", RedirectResponder)
	r.GET("/cookie", CookieResponder)
	r.GET("/gzip", GzipResponder)
	r.GET("/large/{size}", LargeResponder)
	r.Handle("*", "/echo", EchoResponder)
	return r
}
