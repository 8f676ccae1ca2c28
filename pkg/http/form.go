package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	ContentTypeFormEncoded = "application/x-www-form-urlencoded"
	ContentTypeOctetStream = "application/octet-stream"
)

// FormPart is a single part of a multipart/form-data body. If FilePath is set the part content is read from the
// file when the body is encoded, otherwise Value is used
type FormPart struct {
	Name        string
	Value       string
	FilePath    string
	ContentType string
}

// EncodeFields url-encodes the fields into a form body. Keys are emitted in sorted order so the body is stable
func EncodeFields(fields map[string]string) []byte {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	for _, k := range keys {
		args.Add(k, fields[k])
	}
	return args.AppendBytes(nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeMultipart builds a multipart/form-data body using the provided boundary.
// File parts are read fully into memory
func EncodeMultipart(parts []FormPart, boundary string) (body []byte, contentType string, err error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	w := multipart.NewWriter(buf)
	if boundary != "" {
		if err := w.SetBoundary(boundary); err != nil {
			return nil, "", fmt.Errorf("failed to set boundary: %w", err)
		}
	}

	for _, p := range parts {
		if p.FilePath == "" {
			if err := w.WriteField(p.Name, p.Value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", p.Name, err)
			}
			continue
		}
		if err := writeFilePart(w, p); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return append([]byte(nil), buf.B...), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, p FormPart) error {
	f, err := os.Open(p.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open form file %s: %w", p.FilePath, err)
	}
	defer f.Close()

	ct := p.ContentType
	if ct == "" {
		ct = ContentTypeOctetStream
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.Name), quoteEscaper.Replace(filepath.Base(p.FilePath))))
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form part %s: %w", p.Name, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy form file %s: %w", p.FilePath, err)
	}
	return nil
}
