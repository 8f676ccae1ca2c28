package fetch

import (
	"testing"
	"time"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestRenderWriteOut(t *testing.T) {
	s := Summary{
		ID:          "abc",
		URL:         "http://example.com/",
		State:       "completed",
		StatusCode:  200,
		Size:        1234,
		Headers:     5,
		ContentType: "text/html",
		Duration:    1500 * time.Millisecond,
	}
	failed := Summary{
		URL:     "http://example.com/",
		State:   "failed",
		Code:    http.CodeOperationTimedOut,
		Message: "timeout was reached",
	}

	tests := []struct {
		name string
		tpl  string
		s    Summary
		want string
	}{
		{name: "status and size", tpl: "%{http_code} %{size_download}", s: s, want: "200 1234"},
		{name: "escaped newline", tpl: `%{url_effective}\n`, s: s, want: "http://example.com/\n"},
		{name: "time", tpl: "%{time_total}", s: s, want: "1.500000"},
		{name: "content type", tpl: "%{content_type}|%{num_headers}", s: s, want: "text/html|5"},
		{name: "unknown tag", tpl: "[%{nope}]", s: s, want: "[]"},
		{name: "no status", tpl: "%{http_code}", s: failed, want: "000"},
		{name: "error", tpl: "%{exitcode}: %{errormsg} (%{state})", s: failed, want: "28: timeout was reached (failed)"},
		{name: "plain text", tpl: "done", s: s, want: "done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderWriteOut(tt.tpl, tt.s))
		})
	}
}

func TestLastHeader(t *testing.T) {
	lines := http.HeaderLines{
		"HTTP/1.1 302 Found\r\n",
		"Content-Type: text/plain\r\n",
		"\r\n",
		"HTTP/1.1 200 OK\r\n",
		"content-type: application/json\r\n",
		"\r\n",
	}
	assert.Equal(t, "application/json", lastHeader(lines, "Content-Type"))
	assert.Equal(t, "", lastHeader(lines, "Location"))
	assert.Equal(t, "HTTP/1.1 200 OK\r\ncontent-type: application/json\r\n\r\n", finalHeaderBlock(lines))
}
