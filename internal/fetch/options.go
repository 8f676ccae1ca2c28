package fetch

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/request"
	"github.com/assetnote/kitefetch/pkg/scheduler"
)

const (
	DefaultMaxInFlight = 10
)

// Options carries everything the fetch and batch commands need to build and run requests
type Options struct {
	Method         string
	Headers        []string
	Data           string
	HasData        bool
	Fields         []string // Fields are key=value pairs sent url encoded
	Forms          []string // Forms are name=value or name=@path[;type=ct] multipart parts
	Cookie         string
	Compressed     string
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MaxRedirects   int
	NoRedirects    bool
	UserAgent      string
	SecureTLS      bool

	OutputFile  string
	Force       bool
	WarcDir     string
	WriteOut    string
	ProgressBar bool
	JSON        bool
	MaxInFlight int

	// Stdout receives response bodies, write-out output and summaries
	Stdout io.Writer
	// Transport overrides the transport built from the options. Mostly useful for tests
	Transport http.Transport
	// Scheduler defaults to scheduler.Shared()
	Scheduler *scheduler.Scheduler
}

type Option func(o *Options) error

func NewDefaultOptions() *Options {
	return &Options{
		Method:         "",
		Timeout:        http.DefaultTimeout,
		ConnectTimeout: http.DefaultConnectTimeout,
		MaxRedirects:   http.DefaultMaxRedirects,
		UserAgent:      http.DefaultUserAgent,
		MaxInFlight:    DefaultMaxInFlight,
		Stdout:         os.Stdout,
	}
}

// Validate checks the options are sane once every flag was applied
func (o *Options) Validate() error {
	if _, err := http.MethodFromString(o.Method); err != nil {
		return err
	}
	if _, err := http.AcceptEncodingFromString(o.Compressed); err != nil {
		return err
	}
	if o.HasData && (len(o.Fields) > 0 || len(o.Forms) > 0) || len(o.Fields) > 0 && len(o.Forms) > 0 {
		return fmt.Errorf("only one of --data, --field and --form can be used")
	}
	if o.MaxInFlight < 1 {
		return fmt.Errorf("max in flight is too low (%d)", o.MaxInFlight)
	}
	for _, v := range o.Fields {
		if _, _, err := ParseField(v); err != nil {
			return err
		}
	}
	for _, v := range o.Forms {
		if _, err := ParseFormPart(v); err != nil {
			return err
		}
	}
	return o.HTTPConfig().Validate()
}

// HTTPConfig converts the options into the transport config
func (o *Options) HTTPConfig() *http.Config {
	c := http.NewDefaultConfig()
	c.Timeout = o.Timeout
	c.ConnectTimeout = o.ConnectTimeout
	c.MaxRedirects = o.MaxRedirects
	c.FollowRedirects = !o.NoRedirects
	c.UserAgent = o.UserAgent
	c.InsecureSkipVerify = !o.SecureTLS
	return c
}

func (o *Options) String() string {
	ret := []string{
		fmt.Sprintf("Method: %s", o.Method),
		fmt.Sprintf("Headers: %v", o.Headers),
		fmt.Sprintf("Fields: %d", len(o.Fields)),
		fmt.Sprintf("Forms: %d", len(o.Forms)),
		fmt.Sprintf("Data: %v", o.HasData),
		fmt.Sprintf("Compressed: %s", o.Compressed),
		fmt.Sprintf("Timeout: %s", o.Timeout),
		fmt.Sprintf("ConnectTimeout: %s", o.ConnectTimeout),
		fmt.Sprintf("MaxRedirects: %d", o.MaxRedirects),
		fmt.Sprintf("UserAgent: %s", o.UserAgent),
		fmt.Sprintf("OutputFile: %s", o.OutputFile),
		fmt.Sprintf("WarcDir: %s", o.WarcDir),
	}
	return strings.Join(ret, "\n")
}

// NewRequest builds an Idle request for url configured from the options
func (o *Options) NewRequest(url string, l request.Listener) (*request.Request, error) {
	method, err := http.MethodFromString(o.Method)
	if err != nil {
		return nil, err
	}
	enc, err := http.AcceptEncodingFromString(o.Compressed)
	if err != nil {
		return nil, err
	}

	config := o.HTTPConfig()
	transport := o.Transport
	if transport == nil {
		transport = http.NewTransport(config)
	}
	r, err := request.New(l, url, method,
		request.WithConfig(config),
		request.WithTransport(transport),
		request.WithScheduler(o.scheduler()),
	)
	if err != nil {
		return nil, err
	}

	for _, h := range o.Headers {
		if err := r.AddHeader(h); err != nil {
			return nil, err
		}
	}
	if o.HasData {
		if err := r.SetBody([]byte(o.Data)); err != nil {
			return nil, err
		}
	}
	for _, v := range o.Fields {
		k, val, err := ParseField(v)
		if err != nil {
			return nil, err
		}
		if err := r.AddPostField(k, val); err != nil {
			return nil, err
		}
	}
	for _, v := range o.Forms {
		p, err := ParseFormPart(v)
		if err != nil {
			return nil, err
		}
		if p.FilePath != "" {
			err = r.AddFormFile(p.Name, p.FilePath, p.ContentType)
		} else {
			err = r.AddFormContents(p.Name, p.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	if o.Cookie != "" {
		if err := r.SetCookie(o.Cookie); err != nil {
			return nil, err
		}
	}
	if err := r.SetAcceptEncoding(enc); err != nil {
		return nil, err
	}
	return r, nil
}

func Method(v string) Option {
	return func(o *Options) error {
		o.Method = v
		return nil
	}
}

func AddHeaders(hs []string) Option {
	return func(o *Options) error {
		for _, h := range hs {
			if _, ok := http.ParseHeaderLine(h); !ok {
				return fmt.Errorf("invalid header format: %s", h)
			}
			o.Headers = append(o.Headers, h)
		}
		return nil
	}
}

// Data sets a raw body. A value starting with @ is read from that file
func Data(v string) Option {
	return func(o *Options) error {
		if strings.HasPrefix(v, "@") {
			b, err := readFile(v[1:])
			if err != nil {
				return err
			}
			v = string(b)
		}
		o.Data = v
		o.HasData = true
		return nil
	}
}

func AddFields(v []string) Option {
	return func(o *Options) error {
		o.Fields = append(o.Fields, v...)
		return nil
	}
}

func AddForms(v []string) Option {
	return func(o *Options) error {
		o.Forms = append(o.Forms, v...)
		return nil
	}
}

func Cookie(v string) Option {
	return func(o *Options) error {
		o.Cookie = v
		return nil
	}
}

func Compressed(v string) Option {
	return func(o *Options) error {
		o.Compressed = v
		return nil
	}
}

func Timeout(n time.Duration) Option {
	return func(o *Options) error {
		o.Timeout = n
		return nil
	}
}

func ConnectTimeout(n time.Duration) Option {
	return func(o *Options) error {
		o.ConnectTimeout = n
		return nil
	}
}

func MaxRedirects(n int) Option {
	return func(o *Options) error {
		o.MaxRedirects = n
		return nil
	}
}

func NoRedirects(v bool) Option {
	return func(o *Options) error {
		o.NoRedirects = v
		return nil
	}
}

func UserAgent(v string) Option {
	return func(o *Options) error {
		o.UserAgent = v
		return nil
	}
}

func SecureTLS(v bool) Option {
	return func(o *Options) error {
		o.SecureTLS = v
		return nil
	}
}

func OutputFile(v string) Option {
	return func(o *Options) error {
		o.OutputFile = v
		return nil
	}
}

func Force(v bool) Option {
	return func(o *Options) error {
		o.Force = v
		return nil
	}
}

func WarcDir(v string) Option {
	return func(o *Options) error {
		o.WarcDir = v
		return nil
	}
}

func WriteOut(v string) Option {
	return func(o *Options) error {
		o.WriteOut = v
		return nil
	}
}

func ProgressBarEnabled(v bool) Option {
	return func(o *Options) error {
		o.ProgressBar = v
		return nil
	}
}

func JSONSummary(v bool) Option {
	return func(o *Options) error {
		o.JSON = v
		return nil
	}
}

func MaxInFlight(n int) Option {
	return func(o *Options) error {
		o.MaxInFlight = n
		return nil
	}
}

func Stdout(w io.Writer) Option {
	return func(o *Options) error {
		o.Stdout = w
		return nil
	}
}

func WithTransport(t http.Transport) Option {
	return func(o *Options) error {
		o.Transport = t
		return nil
	}
}

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(o *Options) error {
		o.Scheduler = s
		return nil
	}
}

func applyOptions(opts []Option) (*Options, error) {
	o := NewDefaultOptions()
	for _, v := range opts {
		if err := v(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return o, nil
}
