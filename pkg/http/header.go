package http

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

// Header encapsulates a header key value entry
type Header struct {
	Key   string
	Value string
	// Remove marks a line of the form "Name:" which drops a header the transport would otherwise send
	Remove bool
}

func (h Header) MarshalZerologObject(e *zerolog.Event) {
	e.Str("k", h.Key).
		Str("v", h.Value)
}

func (h *Header) AppendBytes(b []byte) []byte {
	b = append(b, h.Key...)
	b = append(b, ": "...)
	b = append(b, h.Value...)
	return b
}

func (h *Header) String() string {
	w := bytebufferpool.Get()
	ret := string(h.AppendBytes(w.B))
	bytebufferpool.Put(w)
	return ret
}

// ParseHeaderLine splits a raw "Name: value" line. The conventions match what curl users expect
//
//	"Name: value" sends the header
//	"Name:"       removes a header the transport would add on its own
//	"Name;"       sends the header with an empty value
//
// ok is false when the line has no name
func ParseHeaderLine(line string) (h Header, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.IndexByte(line, ':'); i > 0 {
		h.Key = strings.TrimSpace(line[:i])
		h.Value = strings.TrimSpace(line[i+1:])
		h.Remove = h.Value == ""
		return h, h.Key != ""
	}
	if strings.HasSuffix(line, ";") {
		h.Key = strings.TrimSpace(strings.TrimSuffix(line, ";"))
		return h, h.Key != ""
	}
	return h, false
}

// requestHeaders is the header list of an outgoing request, in wire order. Names match case insensitively
type requestHeaders []Header

func (rh requestHeaders) index(key string) int {
	for i := range rh {
		if strings.EqualFold(rh[i].Key, key) {
			return i
		}
	}
	return -1
}

func (rh requestHeaders) get(key string) (string, bool) {
	if i := rh.index(key); i >= 0 {
		return rh[i].Value, true
	}
	return "", false
}

// set replaces the value of the first header named key, keeping its position, or appends it
func (rh *requestHeaders) set(key, value string) {
	if i := rh.index(key); i >= 0 {
		(*rh)[i].Value = value
		return
	}
	rh.add(key, value)
}

func (rh *requestHeaders) add(key, value string) {
	*rh = append(*rh, Header{Key: key, Value: value})
}

// del drops every header named key
func (rh *requestHeaders) del(key string) {
	kept := (*rh)[:0]
	for _, h := range *rh {
		if !strings.EqualFold(h.Key, key) {
			kept = append(kept, h)
		}
	}
	*rh = kept
}

// write replaces the headers previously written from prev with rh. The fasthttp header must have its
// special header handling disabled, so that every line is sent from the same ordered list
func (rh requestHeaders) write(h *fasthttp.RequestHeader, prev requestHeaders) {
	for _, p := range prev {
		h.Del(p.Key)
	}
	for _, v := range rh {
		h.Add(v.Key, v.Value)
	}
}

// HeaderLines is an ordered list of raw header lines, including their line terminators
type HeaderLines []string

func (hl HeaderLines) MarshalZerologArray(a *zerolog.Array) {
	for _, v := range hl {
		a.Str(strings.TrimRight(v, "\r\n"))
	}
}

// String joins the lines verbatim
func (hl HeaderLines) String() string {
	w := bytebufferpool.Get()
	for _, v := range hl {
		w.B = append(w.B, v...)
	}
	ret := string(w.B)
	bytebufferpool.Put(w)
	return ret
}

var (
	bLF = []byte("\n")
)

// splitHeaderBlock breaks a serialized header block into lines, keeping each terminator
func splitHeaderBlock(raw []byte) [][]byte {
	lines := bytes.SplitAfter(raw, bLF)
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}
