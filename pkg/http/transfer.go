package http

import (
	"time"

	"github.com/rs/zerolog"
)

// Transfer describes one complete request/response exchange handed to a Transport.
// The transport must not retain any of the slices after Perform returns
type Transfer struct {
	Method  Method
	URL     string
	Headers []string // Headers are raw "Name: value" lines in wire order

	// Body is sent as is. HasBody distinguishes an empty POST body from no body at all
	Body        []byte
	HasBody     bool
	ContentType string // ContentType is used when no Content-Type header line was supplied

	Cookie         string
	AcceptEncoding AcceptEncoding

	// Timeout and ConnectTimeout override the transport config when non-zero. A Timeout of NoTimeout
	// lets the transfer run unbounded
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// NoTimeout disables the total transfer timeout
const NoTimeout time.Duration = -1

func (t *Transfer) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", t.Method.String()).
		Str("url", t.URL).
		Strs("headers", t.Headers).
		Int("body", len(t.Body)).
		Str("encoding", t.AcceptEncoding.String()).
		Dur("timeout", t.Timeout)
}

// Callbacks are invoked synchronously by the transport while a transfer is running.
// OnProgress may additionally be invoked from a watcher goroutine, so it must be safe for concurrent use
type Callbacks struct {
	// OnData receives each decoded body chunk. Returning anything other than len(p) aborts the transfer
	OnData func(p []byte) int
	// OnHeader receives every raw header line, including the status line and the blank terminator,
	// for every response in a redirect chain
	OnHeader func(line []byte) int
	// OnProgress receives the current byte counters. Returning true aborts the transfer
	OnProgress func(dlTotal, dlNow, ulTotal, ulNow int64) bool
}

// Outcome is the result of a transfer. Code is CodeOK when the exchange completed, regardless of the status code
type Outcome struct {
	StatusCode int
	Cookies    []string // Cookies are Netscape cookie-file lines for every cookie received
	Code       ErrorCode
	Message    string // Message is empty on success
	Err        error  // Err is the underlying error, only kept for logging
}

func (o Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Int("sc", o.StatusCode).
		Int("code", int(o.Code)).
		Str("message", o.Message).
		Int("cookies", len(o.Cookies))
	if o.Err != nil {
		e.Err(o.Err)
	}
}

// Transport performs a transfer, blocking until the exchange is over.
// Implementations must release every resource they acquired before returning, on every path
type Transport interface {
	Perform(t *Transfer, cb Callbacks) Outcome
}
