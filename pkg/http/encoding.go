package http

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// AcceptEncoding selects the Accept-Encoding header sent with the request. The numbering is stable
type AcceptEncoding int

const (
	Identity AcceptEncoding = iota
	Gzip
	Deflate
)

var (
	ErrUnsupportedEncoding = fmt.Errorf("unsupported accept encoding")
)

func (a AcceptEncoding) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	}
	return "identity"
}

func AcceptEncodingFromString(in string) (AcceptEncoding, error) {
	switch strings.ToLower(in) {
	case "identity", "":
		return Identity, nil
	case "gzip":
		return Gzip, nil
	case "deflate":
		return Deflate, nil
	}
	return Identity, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, in)
}

var (
	bGzip    = []byte("gzip")
	bXGzip   = []byte("x-gzip")
	bDeflate = []byte("deflate")
)

// decodeBody wraps r with a decoder for the given Content-Encoding. Unknown encodings are passed through untouched.
// A nil reader with a nil error means the encoded stream was empty
func decodeBody(contentEncoding []byte, r io.Reader) (io.ReadCloser, error) {
	enc := bytes.TrimSpace(contentEncoding)
	switch {
	case bytes.EqualFold(enc, bGzip), bytes.EqualFold(enc, bXGzip):
		zr, err := gzip.NewReader(r)
		if err == io.EOF {
			return nil, nil
		}
		return zr, err
	case bytes.EqualFold(enc, bDeflate):
		// "deflate" is meant to be zlib wrapped, but plenty of servers send raw deflate
		br := bufio.NewReader(r)
		head, err := br.Peek(2)
		if err == io.EOF && len(head) == 0 {
			return nil, nil
		}
		if len(head) == 2 && isZlibHeader(head[0], head[1]) {
			return zlib.NewReader(br)
		}
		return flate.NewReader(br), nil
	}
	return io.NopCloser(r), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
