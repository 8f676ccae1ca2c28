package cmd

import (
	"time"

	"github.com/assetnote/kitefetch/internal/fetch"
	"github.com/spf13/cobra"
)

// transfer flags shared by fetch and batch
var (
	method         = ""
	headers        = []string{}
	data           = ""
	fields         = []string{}
	forms          = []string{}
	cookie         = ""
	compressed     = ""
	timeout        time.Duration
	connectTimeout time.Duration
	maxRedirects   int
	noRedirects    = false
	userAgent      = ""
	secure         = false
	warcDir        = ""
	writeOut       = ""
	progressBar    = true
)

func addTransferFlags(c *cobra.Command) {
	c.Flags().StringVarP(&method, "request", "X", method, "method to use. can be GET,POST,PUT,DELETE. a GET with a body is sent as POST")
	c.Flags().StringSliceVarP(&headers, "header", "H", headers, "raw header lines to add to the request. 'Name:' removes a default header")
	c.Flags().StringVarP(&data, "data", "d", data, "raw body to send. @file reads the body from file")
	c.Flags().StringSliceVarP(&fields, "field", "F", fields, "url encoded form field, key=value. can be repeated")
	c.Flags().StringSliceVar(&forms, "form", forms, "multipart part, name=value or name=@path[;type=content/type]. can be repeated")
	c.Flags().StringVarP(&cookie, "cookie", "b", cookie, "cookie header value to send, e.g. 'a=1; b=2'")
	c.Flags().StringVar(&compressed, "compressed", compressed, "accept encoding to request. can be gzip,deflate")
	c.Flags().DurationVarP(&timeout, "timeout", "t", 0, "timeout for the whole transfer (default from config, 30s)")
	c.Flags().DurationVar(&connectTimeout, "connect-timeout", 0, "timeout to establish the connection (default from config, 10s)")
	c.Flags().IntVar(&maxRedirects, "max-redirects", 0, "maximum number of redirects to follow (default from config, 10)")
	c.Flags().BoolVar(&noRedirects, "no-redirects", noRedirects, "do not follow redirects")
	c.Flags().StringVarP(&userAgent, "user-agent", "A", userAgent, "user agent to send (default from config, kitefetch)")
	c.Flags().BoolVar(&secure, "secure", secure, "verify tls certificates")
	c.Flags().StringVar(&warcDir, "warc", warcDir, "directory to archive completed responses to as warc files")
	c.Flags().StringVarP(&writeOut, "write-out", "w", writeOut, "template printed after each transfer, e.g. '%{http_code} %{size_download}\\n'")
	c.Flags().BoolVar(&progressBar, "progress", progressBar, "show progress bars. only drawn when stderr is a terminal")
}

// transferOptions converts the shared flags into fetch options. Flags left unset fall back to the
// config file values
func transferOptions(c *cobra.Command) []fetch.Option {
	if !c.Flags().Changed("timeout") {
		timeout = httpDefaults.Timeout
	}
	if !c.Flags().Changed("connect-timeout") {
		connectTimeout = httpDefaults.ConnectTimeout
	}
	if !c.Flags().Changed("max-redirects") {
		maxRedirects = httpDefaults.MaxRedirects
	}
	if !c.Flags().Changed("no-redirects") {
		noRedirects = !httpDefaults.FollowRedirects
	}
	if !c.Flags().Changed("user-agent") {
		userAgent = httpDefaults.UserAgent
	}
	if !c.Flags().Changed("secure") {
		secure = !httpDefaults.InsecureSkipVerify
	}

	opts := []fetch.Option{
		fetch.Method(method),
		fetch.AddHeaders(headers),
		fetch.AddFields(fields),
		fetch.AddForms(forms),
		fetch.Cookie(cookie),
		fetch.Compressed(compressed),
		fetch.Timeout(timeout),
		fetch.ConnectTimeout(connectTimeout),
		fetch.MaxRedirects(maxRedirects),
		fetch.NoRedirects(noRedirects),
		fetch.UserAgent(userAgent),
		fetch.SecureTLS(secure),
		fetch.WarcDir(warcDir),
		fetch.WriteOut(writeOut),
		fetch.ProgressBarEnabled(progressBar),
	}
	if c.Flags().Changed("data") {
		opts = append(opts, fetch.Data(data))
	}
	return opts
}
