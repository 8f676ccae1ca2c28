package http

import (
	"bytes"
	"crypto/tls"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/valyala/fasthttp"
)

const (
	// readChunkSize is the size of the slices handed to the data callback
	readChunkSize = 16 * 1024
	// readBufferSize bounds the size of a response header block
	readBufferSize = 16 * 1024
)

var (
	bHTTP  = []byte("http")
	bHTTPS = []byte("https")
)

// FastTransport performs transfers with fasthttp. Every transfer gets its own fasthttp.Client, so no connection
// is ever reused across transfers. The transport itself holds no per transfer state and is safe for concurrent use
type FastTransport struct {
	config    *Config
	tlsConfig *tls.Config
}

var _ Transport = &FastTransport{}

// NewTransport creates a transport using the provided config. A nil config uses NewDefaultConfig
func NewTransport(config *Config) *FastTransport {
	if config == nil {
		config = NewDefaultConfig()
	}
	config.Validate()
	return &FastTransport{
		config: config,
		tlsConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}
}

// Config returns the transport config. Changes only apply to transfers started afterwards
func (t *FastTransport) Config() *Config {
	return t.config
}

// Perform runs the transfer to completion. The response body is streamed through cb.OnData in chunks as it
// arrives, decoded according to its Content-Encoding. Every resource acquired for the transfer is released
// before Perform returns, including the connection
func (t *FastTransport) Perform(x *Transfer, cb Callbacks) Outcome {
	timeout := x.Timeout
	switch {
	case timeout == NoTimeout:
		timeout = 0
	case timeout <= 0:
		timeout = t.config.Timeout
	}
	connectTimeout := x.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = t.config.ConnectTimeout
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	var (
		m    = newMeter(cb.OnProgress, int64(len(x.Body)), deadline)
		jar  = &cookieJar{}
		req  = fasthttp.AcquireRequest()
		resp = fasthttp.AcquireResponse()

		client = &fasthttp.Client{
			Dial:                          m.dialer(connectTimeout),
			TLSConfig:                     t.tlsConfig,
			NoDefaultUserAgentHeader:      true,
			MaxConnsPerHost:               1,
			MaxIdemponentCallAttempts:     1,
			ReadBufferSize:                readBufferSize,
			DisableHeaderNamesNormalizing: true,
			DisablePathNormalizing:        true,
			StreamResponseBody:            true,
		}
	)

	stop := m.watch(t.config.ProgressInterval)
	defer func() {
		stop()
		resp.CloseBodyStream()
		fasthttp.ReleaseResponse(resp)
		fasthttp.ReleaseRequest(req)
		client.CloseIdleConnections()
		m.close()
	}()

	out := t.exchange(client, req, resp, x, m, jar, cb)
	out.Cookies = jar.lines()
	log.Trace().Object("transfer", x).Object("outcome", out).Msg("transfer finished")
	return out
}

// exchange sends the request, following redirects if configured to
func (t *FastTransport) exchange(client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response,
	x *Transfer, m *meter, jar *cookieJar, cb Callbacks) Outcome {
	headers, err := t.prepare(req, x)
	if err != nil {
		return failure(err, m, 0)
	}
	base, _ := headers.get(fasthttp.HeaderCookie)

	var sent requestHeaders
	for hops := 0; ; hops++ {
		jar.apply(&headers, req.URI(), base)
		headers.write(&req.Header, sent)
		sent = append(sent[:0], headers...)

		if err := client.Do(req, resp); err != nil {
			return failure(err, m, 0)
		}

		statusCode := resp.StatusCode()
		jar.capture(&resp.Header, string(req.URI().Host()))
		if cb.OnHeader != nil {
			for _, line := range splitHeaderBlock(resp.Header.Header()) {
				if cb.OnHeader(line) != len(line) {
					return failure(errWriteCallback, m, statusCode)
				}
			}
		}

		location := resp.Header.PeekBytes(strLocation)
		if !t.config.FollowRedirects || !StatusCodeIsRedirect(statusCode) || len(location) == 0 {
			m.downloadTotal(int64(resp.Header.ContentLength()))
			if err := readBody(resp, m, cb.OnData); err != nil {
				return failure(err, m, statusCode)
			}
			return Outcome{StatusCode: statusCode}
		}

		if hops >= t.config.MaxRedirects {
			log.Trace().Int("hops", hops).Msg("bailing out. reached max redirects")
			return failure(fasthttp.ErrTooManyRedirects, m, statusCode)
		}

		// the location points into the response, which gets reset below
		location = append([]byte(nil), location...)
		if err := discardBody(resp, m); err != nil {
			return failure(err, m, statusCode)
		}
		resp.Reset()

		if redirectDropsBody(statusCode, req.Header.Method()) {
			req.Header.SetMethod(fasthttp.MethodGet)
			req.ResetBody()
			headers.del(fasthttp.HeaderContentType)
			headers.del(fasthttp.HeaderContentLength)
		}
		if !updateRedirectURL(req.URI(), location) {
			// never leak credentials to a different origin
			req.Header.Del(fasthttp.HeaderAuthorization)
			headers.del(fasthttp.HeaderAuthorization)
			headers.set(fasthttp.HeaderHost, string(req.URI().Host()))
		}

		log.Trace().
			Bytes("location", location).
			Int("status", statusCode).
			Msg("following redirect")
	}
}

// prepare sets the method and url on the fasthttp request and builds the header list. fasthttp's own handling
// of Host, User-Agent, Content-Type, Content-Length and Cookie is disabled so that the list is the wire order.
// The transport's headers come first, a caller line naming one of them takes its place
func (t *FastTransport) prepare(req *fasthttp.Request, x *Transfer) (requestHeaders, error) {
	req.Header.DisableNormalizing()
	req.Header.DisableSpecialHeader()
	req.SetRequestURI(x.URL)

	uri := req.URI()
	scheme := bytes.ToLower(uri.Scheme())
	if !bytes.Equal(scheme, bHTTP) && !bytes.Equal(scheme, bHTTPS) {
		return nil, errUnsupportedProto
	}
	if len(uri.Host()) == 0 {
		return nil, errMissingHost
	}
	req.Header.SetMethod(x.Method.String())

	var headers requestHeaders
	headers.add(fasthttp.HeaderHost, string(uri.Host()))
	if t.config.UserAgent != "" {
		headers.add(fasthttp.HeaderUserAgent, t.config.UserAgent)
	}
	if x.AcceptEncoding != Identity {
		headers.add(fasthttp.HeaderAcceptEncoding, x.AcceptEncoding.String())
	}
	if x.Cookie != "" {
		headers.add(fasthttp.HeaderCookie, x.Cookie)
	}
	if x.HasBody {
		req.SetBody(x.Body)
		ct := x.ContentType
		if ct == "" {
			ct = ContentTypeFormEncoded
		}
		headers.add(fasthttp.HeaderContentType, ct)
		headers.add(fasthttp.HeaderContentLength, strconv.Itoa(len(x.Body)))
	}

	defaults := make(map[string]bool, len(headers))
	for _, h := range headers {
		defaults[strings.ToLower(h.Key)] = true
	}
	for _, line := range x.Headers {
		h, ok := ParseHeaderLine(line)
		if !ok {
			log.Debug().Str("line", line).Msg("skipping malformed header line")
			continue
		}
		name := strings.ToLower(h.Key)
		if h.Remove {
			headers.del(h.Key)
			delete(defaults, name)
			continue
		}
		if defaults[name] {
			headers.del(h.Key)
			delete(defaults, name)
		}
		headers.add(h.Key, h.Value)
	}
	return headers, nil
}

// readBody streams the body through onData
func readBody(resp *fasthttp.Response, m *meter, onData func(p []byte) int) error {
	var stream io.Reader = resp.BodyStream()
	if stream == nil {
		stream = bytes.NewReader(resp.Body())
	}
	src := &countingReader{r: stream, m: m}

	dec, err := decodeBody(resp.Header.Peek(fasthttp.HeaderContentEncoding), src)
	if err != nil {
		if src.err != nil {
			return src.err
		}
		return errContentEncoding
	}
	if dec == nil {
		return nil
	}
	defer dec.Close()

	buf := make([]byte, readChunkSize)
	for {
		n, err := dec.Read(buf)
		if n > 0 && onData != nil {
			if onData(buf[:n]) != n {
				return errWriteCallback
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if src.err != nil {
				return src.err
			}
			// the wire was fine, so the decoder choked on the content
			return errContentEncoding
		}
	}
}

// discardBody drains the body of a response we are not interested in, e.g. a redirect
func discardBody(resp *fasthttp.Response, m *meter) error {
	if stream := resp.BodyStream(); stream != nil {
		buf := make([]byte, readChunkSize)
		for {
			if m.progress() {
				return errAborted
			}
			_, err := stream.Read(buf)
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
	}
	return resp.CloseBodyStream()
}

func failure(err error, m *meter, statusCode int) Outcome {
	code := classify(err, m)
	return Outcome{
		StatusCode: statusCode,
		Code:       code,
		Message:    code.String(),
		Err:        err,
	}
}
