package http

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
)

func gzipped(t *testing.T, in string) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte(in))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zlibbed(t *testing.T, in string) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte(in))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func deflated(t *testing.T, in string) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(in))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeBody(t *testing.T) {
	const payload = "the quick brown fox jumps over the lazy dog"
	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", []byte(payload)},
		{"unknown passthrough", "br", []byte(payload)},
		{"gzip", "gzip", gzipped(t, payload)},
		{"x-gzip", "x-gzip", gzipped(t, payload)},
		{"gzip case", " GZIP ", gzipped(t, payload)},
		{"zlib deflate", "deflate", zlibbed(t, payload)},
		{"raw deflate", "deflate", deflated(t, payload)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeBody([]byte(tt.encoding), bytes.NewReader(tt.body))
			if !assert.Nil(t, err) || !assert.NotNil(t, r) {
				return
			}
			defer r.Close()
			got, err := io.ReadAll(r)
			assert.Nil(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestDecodeBodyEmpty(t *testing.T) {
	for _, enc := range []string{"gzip", "deflate"} {
		r, err := decodeBody([]byte(enc), bytes.NewReader(nil))
		assert.Nil(t, err, enc)
		assert.Nil(t, r, enc)
	}
}

func TestDecodeBodyCorrupt(t *testing.T) {
	_, err := decodeBody([]byte("gzip"), bytes.NewReader([]byte("definitely not gzip")))
	assert.NotNil(t, err)
}

func TestAcceptEncodingFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    AcceptEncoding
		wantErr bool
	}{
		{"", Identity, false},
		{"identity", Identity, false},
		{"GZIP", Gzip, false},
		{"deflate", Deflate, false},
		{"br", Identity, true},
	}
	for _, tt := range tests {
		got, err := AcceptEncodingFromString(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "gzip", Gzip.String())
	assert.Equal(t, "identity", AcceptEncoding(9).String())
}

func TestMethodFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", GET, false},
		{"get", GET, false},
		{"POST", POST, false},
		{"put", PUT, false},
		{"DELETE", DELETE, false},
		{"PATCH", GET, true},
	}
	for _, tt := range tests {
		got, err := MethodFromString(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.True(t, DELETE.Valid())
	assert.False(t, Method(7).Valid())
	assert.Equal(t, "Method(7)", Method(7).String())
}
