package http

import (
	"bytes"

	"github.com/valyala/fasthttp"
)

var (
	strLocation = []byte(fasthttp.HeaderLocation)
)

// StatusCodeIsRedirect returns true if the status code indicates a redirect.
func StatusCodeIsRedirect(statusCode int) bool {
	return statusCode == fasthttp.StatusMovedPermanently ||
		statusCode == fasthttp.StatusFound ||
		statusCode == fasthttp.StatusSeeOther ||
		statusCode == fasthttp.StatusTemporaryRedirect ||
		statusCode == fasthttp.StatusPermanentRedirect
}

// updateRedirectURL will move the base URI to the location header. This will also return if the
// redirect is on the same host or not.
func updateRedirectURL(base *fasthttp.URI, location []byte) bool {
	// preserve the old values to determine whether our scheme/host has changed
	var (
		host   = append([]byte{}, base.Host()...)
		scheme = append([]byte{}, base.Scheme()...)
	)
	base.UpdateBytes(location)
	// we need to compare the host (including port) and the scheme (protocol), otherwise we'll be replaying
	// cookies and auth against a different origin
	return bytes.Equal(host, base.Host()) && bytes.Equal(scheme, base.Scheme())
}

// redirectDropsBody reports whether following the redirect turns the request into a body-less GET.
// 303 always does, 301 and 302 do it for POST like browsers and curl
func redirectDropsBody(statusCode int, method []byte) bool {
	if statusCode == fasthttp.StatusSeeOther {
		return !bytes.Equal(method, []byte(fasthttp.MethodHead))
	}
	if statusCode == fasthttp.StatusMovedPermanently || statusCode == fasthttp.StatusFound {
		return bytes.Equal(method, []byte(fasthttp.MethodPost))
	}
	return false
}
