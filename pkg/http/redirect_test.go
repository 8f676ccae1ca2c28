package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestStatusCodeIsRedirect(t *testing.T) {
	for _, sc := range []int{301, 302, 303, 307, 308} {
		assert.True(t, StatusCodeIsRedirect(sc), sc)
	}
	for _, sc := range []int{200, 204, 300, 304, 404} {
		assert.False(t, StatusCodeIsRedirect(sc), sc)
	}
}

func Test_updateRedirectURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		location string
		want     string
		sameHost bool
	}{
		{"relative", "http://example.com/a/b", "/c", "http://example.com/c", true},
		{"relative sibling", "http://example.com/a/b", "c", "http://example.com/a/c", true},
		{"absolute same", "http://example.com/a", "http://example.com/b", "http://example.com/b", true},
		{"other host", "http://example.com/a", "http://other.com/b", "http://other.com/b", false},
		{"scheme change", "http://example.com/a", "https://example.com/a", "https://example.com/a", false},
		{"port change", "http://example.com/a", "http://example.com:8080/a", "http://example.com:8080/a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := fasthttp.AcquireURI()
			defer fasthttp.ReleaseURI(u)
			assert.Nil(t, u.Parse(nil, []byte(tt.base)))

			got := updateRedirectURL(u, []byte(tt.location))
			assert.Equal(t, tt.sameHost, got)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func Test_redirectDropsBody(t *testing.T) {
	tests := []struct {
		statusCode int
		method     string
		want       bool
	}{
		{303, "POST", true},
		{303, "PUT", true},
		{303, "HEAD", false},
		{302, "POST", true},
		{301, "POST", true},
		{302, "PUT", false},
		{307, "POST", false},
		{308, "POST", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redirectDropsBody(tt.statusCode, []byte(tt.method)), "%d %s", tt.statusCode, tt.method)
	}
}
