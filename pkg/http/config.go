package http

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultConnectTimeout is how long to wait to establish a connection to the server
	DefaultConnectTimeout = 10 * time.Second
	// DefaultTimeout bounds the whole transfer, from dialing to the last body byte
	DefaultTimeout = 30 * time.Second
	// DefaultProgressInterval is how often the progress callback is invoked while the transfer is blocked
	DefaultProgressInterval = 100 * time.Millisecond
	DefaultMaxRedirects     = 10
	DefaultUserAgent        = "kitefetch"
)

// Config provides the transport level options used for every transfer performed by a FastTransport.
// Per request values (e.g. a request specific timeout) are carried on the Transfer and take precedence
type Config struct {
	// Timeout is the default total time allowed for a transfer
	Timeout time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout"`
	// ConnectTimeout is the default time allowed for the dial. This is always clamped to the remaining Timeout
	ConnectTimeout time.Duration `toml:"connect_timeout" json:"connect_timeout" mapstructure:"connect_timeout"`
	// FollowRedirects will follow 3xx responses with a location header, up to MaxRedirects hops
	FollowRedirects bool `toml:"follow_redirects" json:"follow_redirects" mapstructure:"follow_redirects"`
	MaxRedirects    int  `toml:"max_redirects" json:"max_redirects" mapstructure:"max_redirects"`
	// UserAgent is sent unless the request carries its own User-Agent header
	UserAgent string `toml:"user_agent" json:"user_agent" mapstructure:"user_agent"`
	// InsecureSkipVerify disables TLS certificate verification. This is on by default
	InsecureSkipVerify bool `toml:"insecure" json:"insecure" mapstructure:"insecure"`
	// ProgressInterval is the cadence the progress callback is invoked at while no data is flowing.
	// This bounds how long a cancellation takes to interrupt a blocked read
	ProgressInterval time.Duration `toml:"progress_interval" json:"progress_interval" mapstructure:"progress_interval"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Timeout:            DefaultTimeout,
		ConnectTimeout:     DefaultConnectTimeout,
		FollowRedirects:    true,
		MaxRedirects:       DefaultMaxRedirects,
		UserAgent:          DefaultUserAgent,
		InsecureSkipVerify: true,
		ProgressInterval:   DefaultProgressInterval,
	}
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("config has invalid values in: %v", strings.Join(e.fields, ", "))
}

// Validate checks the config for values that cannot be used. A zero ProgressInterval is replaced with the default
func (c *Config) Validate() error {
	badFields := make([]string, 0)
	if c.Timeout < 0 {
		badFields = append(badFields, "Timeout")
	}
	if c.ConnectTimeout < 0 {
		badFields = append(badFields, "ConnectTimeout")
	}
	if c.MaxRedirects < 0 {
		badFields = append(badFields, "MaxRedirects")
	}
	if len(badFields) != 0 {
		return &ErrBadConfig{fields: badFields}
	}

	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	return nil
}
