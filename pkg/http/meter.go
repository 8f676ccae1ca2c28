package http

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

var (
	// aLongTimeAgo is used to unblock reads and writes on abort
	aLongTimeAgo = time.Unix(1, 0)
)

// meter tracks the byte counters of a single transfer and is the only place the progress callback is invoked from.
// Every connection dialed for the transfer is tracked so an abort can unblock it
type meter struct {
	mu       sync.Mutex
	cb       func(dlTotal, dlNow, ulTotal, ulNow int64) bool
	dlTotal  int64
	dlNow    int64
	ulTotal  int64
	ulNow    int64
	conns    []net.Conn
	deadline time.Time

	aborted int32
}

func newMeter(cb func(dlTotal, dlNow, ulTotal, ulNow int64) bool, ulTotal int64, deadline time.Time) *meter {
	return &meter{cb: cb, ulTotal: ulTotal, deadline: deadline}
}

func (m *meter) isAborted() bool {
	return atomic.LoadInt32(&m.aborted) == 1
}

func (m *meter) expired() bool {
	return !m.deadline.IsZero() && !time.Now().Before(m.deadline)
}

// progress invokes the callback with the current counters and reports whether the transfer should stop
func (m *meter) progress() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isAborted() {
		return true
	}
	if m.cb != nil && m.cb(m.dlTotal, m.dlNow, m.ulTotal, m.ulNow) {
		atomic.StoreInt32(&m.aborted, 1)
		for _, c := range m.conns {
			c.SetDeadline(aLongTimeAgo)
		}
	}
	return m.isAborted()
}

func (m *meter) downloadTotal(n int64) {
	if n < 0 {
		// -1 is chunked, -2 is identity until close. neither tells us anything
		n = 0
	}
	m.mu.Lock()
	m.dlTotal = n
	m.mu.Unlock()
}

func (m *meter) downloaded(n int) {
	m.mu.Lock()
	m.dlNow += int64(n)
	m.mu.Unlock()
}

func (m *meter) uploaded(n int) {
	m.mu.Lock()
	// the wire bytes include the request line and headers, the counter only tracks the body
	m.ulNow += int64(n)
	if m.ulNow > m.ulTotal {
		m.ulNow = m.ulTotal
	}
	m.mu.Unlock()
}

func (m *meter) track(c net.Conn) {
	m.mu.Lock()
	m.conns = append(m.conns, c)
	m.mu.Unlock()
}

// close closes every connection the transfer dialed. It is safe to call more than once
func (m *meter) close() {
	m.mu.Lock()
	for _, c := range m.conns {
		c.Close()
	}
	m.conns = m.conns[:0]
	m.mu.Unlock()
}

// clamp makes sure nobody pushes a connection deadline past the transfer deadline
func (m *meter) clamp(t time.Time) time.Time {
	if m.isAborted() {
		return aLongTimeAgo
	}
	if m.deadline.IsZero() {
		return t
	}
	if t.IsZero() || t.After(m.deadline) {
		return m.deadline
	}
	return t
}

// watch invokes the progress callback every interval until the returned stop function is called.
// This lets a cancellation interrupt a read that is blocked on a silent server
func (m *meter) watch(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if m.progress() {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// dialer returns a fasthttp.DialFunc that bounds the dial by the connect timeout and the transfer deadline
func (m *meter) dialer(connectTimeout time.Duration) fasthttp.DialFunc {
	return func(addr string) (net.Conn, error) {
		if m.progress() {
			return nil, errAborted
		}
		timeout := connectTimeout
		if !m.deadline.IsZero() {
			remaining := time.Until(m.deadline)
			if remaining <= 0 {
				return nil, fasthttp.ErrDialTimeout
			}
			if timeout <= 0 || remaining < timeout {
				timeout = remaining
			}
		}

		var (
			conn net.Conn
			err  error
		)
		if timeout > 0 {
			conn, err = fasthttp.DialTimeout(addr, timeout)
		} else {
			conn, err = fasthttp.Dial(addr)
		}
		if err != nil {
			return nil, err
		}
		if !m.deadline.IsZero() {
			conn.SetDeadline(m.deadline)
		}
		m.track(conn)
		return &meteredConn{Conn: conn, m: m}, nil
	}
}

// meteredConn checks for aborts around every read and write and counts uploaded bytes
type meteredConn struct {
	net.Conn
	m *meter
}

func (c *meteredConn) Read(p []byte) (int, error) {
	if c.m.progress() {
		return 0, errAborted
	}
	return c.Conn.Read(p)
}

func (c *meteredConn) Write(p []byte) (int, error) {
	if c.m.progress() {
		return 0, errAborted
	}
	n, err := c.Conn.Write(p)
	c.m.uploaded(n)
	return n, err
}

func (c *meteredConn) SetDeadline(t time.Time) error {
	return c.Conn.SetDeadline(c.m.clamp(t))
}

func (c *meteredConn) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(c.m.clamp(t))
}

func (c *meteredConn) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(c.m.clamp(t))
}

// countingReader counts raw body bytes as they come off the wire
type countingReader struct {
	r   io.Reader
	m   *meter
	err error // err holds the last non-EOF read error so decoding errors can be told apart
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.m.progress() {
		c.err = errAborted
		return 0, errAborted
	}
	n, err := c.r.Read(p)
	if n > 0 {
		c.m.downloaded(n)
		c.m.progress()
	}
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}
