package request

import (
	"fmt"
	"sync/atomic"
	"time"

	errors2 "github.com/assetnote/kitefetch/pkg/errors"
	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/assetnote/kitefetch/pkg/scheduler"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

const (
	// updatePriority runs the progress poll ahead of the teardown polls
	updatePriority   = 0
	teardownPriority = 100
	teardownInterval = 50 * time.Millisecond
)

var requestCount uint64

// RequestCount returns how many requests were started by this process
func RequestCount() uint64 {
	return atomic.LoadUint64(&requestCount)
}

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadFields
	payloadRaw
	payloadForm
)

// Request is a single asynchronous HTTP exchange. A Request is configured on the scheduler goroutine,
// started once, and reports back to its listener through the scheduler. It cannot be restarted.
type Request struct {
	id        ksuid.KSUID
	listener  Listener
	scheduler *scheduler.Scheduler
	transport http.Transport
	config    *http.Config

	url            string
	method         http.Method
	headers        []string
	payload        payloadKind
	fields         map[string]string
	body           []byte
	form           []http.FormPart
	cookie         string
	acceptEncoding http.AcceptEncoding
	timeout        time.Duration
	connectTimeout time.Duration

	state   int32
	dlTotal int64
	dlNow   int64
	ulTotal int64
	ulNow   int64

	// done and exited belong to the worker of the current Start
	done   chan *result
	exited chan struct{}

	res      *result // res is only set once the request Completed or Failed
	code     http.ErrorCode
	message  string
	notified bool
}

// Option configures a Request at construction time
type Option func(r *Request)

// WithScheduler sets the scheduler the request reports on. Defaults to scheduler.Shared()
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(r *Request) {
		r.scheduler = s
	}
}

// WithTransport sets the transport used to perform the transfer. Defaults to a FastTransport using the request config
func WithTransport(t http.Transport) Option {
	return func(r *Request) {
		r.transport = t
	}
}

// WithConfig sets the config the per request defaults (timeouts) are taken from
func WithConfig(c *http.Config) Option {
	return func(r *Request) {
		r.config = c
	}
}

// New creates an Idle request. The listener may be nil
func New(listener Listener, url string, method http.Method, opts ...Option) (*Request, error) {
	r := &Request{
		id:       ksuid.New(),
		listener: listener,
	}
	for _, o := range opts {
		o(r)
	}

	if r.config == nil {
		r.config = http.NewDefaultConfig()
	}
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors2.ErrInvalidArgument, err)
	}
	if r.scheduler == nil {
		r.scheduler = scheduler.Shared()
	}
	if r.transport == nil {
		r.transport = http.NewTransport(r.config)
	}

	if err := r.Configure(url, method); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", r.ID()).
		Str("method", r.method.String()).
		Str("url", r.url).
		Str("state", r.State().String())
}

func (r *Request) ID() string {
	return r.id.String()
}

func (r *Request) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Request) URL() string {
	return r.url
}

func (r *Request) Method() http.Method {
	return r.method
}

// Progress returns the last counters reported by the transport
func (r *Request) Progress() (dlTotal, dlNow, ulTotal, ulNow int64) {
	return atomic.LoadInt64(&r.dlTotal), atomic.LoadInt64(&r.dlNow),
		atomic.LoadInt64(&r.ulTotal), atomic.LoadInt64(&r.ulNow)
}

// violation builds the error for an operation used outside its lifecycle window
func (r *Request) violation(op string, want ...State) error {
	err := &errors2.StateError{
		Op:    op,
		State: r.State().String(),
		Want:  stateNames(want),
	}
	assertState(err)
	return err
}

func (r *Request) requireIdle(op string) error {
	if r.State() != Idle {
		return r.violation(op, Idle)
	}
	return nil
}

// Configure points the request at url using method and resets the transfer options
// (timeouts, cookie, accept encoding) to the config defaults. Headers and payload are kept
func (r *Request) Configure(url string, method http.Method) error {
	if err := r.requireIdle("Configure"); err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("%w: empty url", errors2.ErrInvalidArgument)
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %v", errors2.ErrInvalidArgument, method)
	}

	r.url = url
	r.method = method
	r.cookie = ""
	r.acceptEncoding = http.Identity
	r.timeout = r.config.Timeout
	r.connectTimeout = r.config.ConnectTimeout
	return nil
}

func (r *Request) SetURL(url string) error {
	if err := r.requireIdle("SetURL"); err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("%w: empty url", errors2.ErrInvalidArgument)
	}
	r.url = url
	return nil
}

// AddHeader appends a raw "Name: value" line. Lines are sent in the order they were added
func (r *Request) AddHeader(line string) error {
	if err := r.requireIdle("AddHeader"); err != nil {
		return err
	}
	r.headers = append(r.headers, line)
	return nil
}

// AddPostField adds an url encoded form field, replacing any raw body or multipart parts
func (r *Request) AddPostField(key, value string) error {
	if err := r.requireIdle("AddPostField"); err != nil {
		return err
	}
	if r.payload != payloadFields {
		r.clearPayload()
		r.payload = payloadFields
		r.fields = make(map[string]string)
	}
	r.fields[key] = value
	return nil
}

// SetBody sets a raw request body, replacing any form fields or multipart parts. The slice is copied
func (r *Request) SetBody(body []byte) error {
	if err := r.requireIdle("SetBody"); err != nil {
		return err
	}
	r.clearPayload()
	r.payload = payloadRaw
	r.body = append([]byte{}, body...)
	return nil
}

// AddFormFile adds a multipart part read from path when the request starts. An empty contentType
// is sent as application/octet-stream
func (r *Request) AddFormFile(name, path, contentType string) error {
	if err := r.requireIdle("AddFormFile"); err != nil {
		return err
	}
	if name == "" || path == "" {
		return fmt.Errorf("%w: form file needs a name and a path", errors2.ErrInvalidArgument)
	}
	r.addFormPart(http.FormPart{Name: name, FilePath: path, ContentType: contentType})
	return nil
}

// AddFormContents adds a plain multipart field
func (r *Request) AddFormContents(name, value string) error {
	if err := r.requireIdle("AddFormContents"); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: form field needs a name", errors2.ErrInvalidArgument)
	}
	r.addFormPart(http.FormPart{Name: name, Value: value})
	return nil
}

func (r *Request) addFormPart(p http.FormPart) {
	if r.payload != payloadForm {
		r.clearPayload()
		r.payload = payloadForm
	}
	r.form = append(r.form, p)
}

func (r *Request) clearPayload() {
	r.payload = payloadNone
	r.fields = nil
	r.body = nil
	r.form = nil
}

// SetCookie sets the raw Cookie header value, e.g. "a=1; b=2"
func (r *Request) SetCookie(cookie string) error {
	if err := r.requireIdle("SetCookie"); err != nil {
		return err
	}
	r.cookie = cookie
	return nil
}

func (r *Request) SetAcceptEncoding(enc http.AcceptEncoding) error {
	if err := r.requireIdle("SetAcceptEncoding"); err != nil {
		return err
	}
	r.acceptEncoding = enc
	return nil
}

// SetTimeout bounds the whole transfer. Zero lets the transfer run without a time limit
func (r *Request) SetTimeout(d time.Duration) error {
	if err := r.requireIdle("SetTimeout"); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("%w: negative timeout", errors2.ErrInvalidArgument)
	}
	r.timeout = d
	return nil
}

// SetConnectTimeout bounds the dial. It never extends past the total timeout
func (r *Request) SetConnectTimeout(d time.Duration) error {
	if err := r.requireIdle("SetConnectTimeout"); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("%w: negative connect timeout", errors2.ErrInvalidArgument)
	}
	r.connectTimeout = d
	return nil
}

// Start spawns the transfer worker and registers the request with its scheduler.
// It returns immediately; the outcome is delivered to the listener
func (r *Request) Start() error {
	if !atomic.CompareAndSwapInt32(&r.state, int32(Idle), int32(InProgress)) {
		return r.violation("Start", Idle)
	}
	atomic.AddUint64(&requestCount, 1)

	j := r.job()
	r.done = make(chan *result, 1)
	r.exited = make(chan struct{})
	go work(j, r.transport, r.progress, r.done, r.exited)

	r.scheduler.Schedule(r, 0, updatePriority, r.update)
	log.Debug().Object("request", r).Msg("request started")
	return nil
}

// job snapshots the configuration for the worker. The configuration is immutable from here on,
// Clear only drops the references
func (r *Request) job() *job {
	j := &job{
		method:         r.method,
		url:            r.url,
		headers:        r.headers,
		payload:        r.payload,
		body:           r.body,
		form:           r.form,
		cookie:         r.cookie,
		acceptEncoding: r.acceptEncoding,
		timeout:        r.timeout,
		connectTimeout: r.connectTimeout,
	}
	if j.timeout == 0 {
		j.timeout = http.NoTimeout
	}
	if r.payload == payloadFields {
		j.fields = make(map[string]string, len(r.fields))
		for k, v := range r.fields {
			j.fields[k] = v
		}
	}
	return j
}

// progress is invoked by the transport, off the scheduler goroutine. It is the only place
// a cancellation actually interrupts the transfer
func (r *Request) progress(dlTotal, dlNow, ulTotal, ulNow int64) bool {
	atomic.StoreInt64(&r.dlTotal, dlTotal)
	atomic.StoreInt64(&r.dlNow, dlNow)
	atomic.StoreInt64(&r.ulTotal, ulTotal)
	atomic.StoreInt64(&r.ulNow, ulNow)

	s := r.State()
	return s == Cancelled || s == Cleared
}

// Cancel asks an Idle or InProgress request to stop. A running transfer stops at its next progress
// callback and the listener receives a cancelled event once the worker unwound
func (r *Request) Cancel() error {
	for {
		s := r.State()
		if s != Idle && s != InProgress {
			return r.violation("Cancel", Idle, InProgress)
		}
		if atomic.CompareAndSwapInt32(&r.state, int32(s), int32(Cancelled)) {
			log.Debug().Object("request", r).Msg("request cancelled")
			return nil
		}
	}
}

// Clear releases the request buffers and detaches it from the scheduler and its listener.
// An in flight transfer is aborted and its result discarded. Clear is valid in any state
func (r *Request) Clear() {
	prev := State(atomic.SwapInt32(&r.state, int32(Cleared)))
	if r.scheduler != nil {
		r.scheduler.Unschedule(r)
		r.scheduler.Unschedule(teardownKey{r})
	}

	r.listener = nil
	r.headers = nil
	r.clearPayload()
	r.res = nil
	log.Trace().Str("id", r.ID()).Str("prev", prev.String()).Msg("request cleared")
}

// Err returns the transfer failure of a Failed request, nil otherwise
func (r *Request) Err() error {
	if r.State() != Failed || r.code == http.CodeOK {
		return nil
	}
	return &errors2.TransferError{
		Code:    int(r.code),
		Message: r.message,
		URL:     r.url,
	}
}
