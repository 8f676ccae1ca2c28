package request

import (
	"fmt"
	"os"

	"github.com/assetnote/kitefetch/pkg/http"
)

// completed returns the adopted result, or a state error when the request has not Completed
func (r *Request) completed(op string) (*result, error) {
	if r.State() != Completed || r.res == nil {
		return nil, r.violation(op, Completed)
	}
	return r.res, nil
}

func (r *Request) StatusCode() (int, error) {
	res, err := r.completed("StatusCode")
	if err != nil {
		return 0, err
	}
	return res.statusCode, nil
}

// ResponseData returns a copy of the response body
func (r *Request) ResponseData() ([]byte, error) {
	res, err := r.completed("ResponseData")
	if err != nil {
		return nil, err
	}
	return append([]byte{}, res.data.Bytes()...), nil
}

func (r *Request) ResponseString() (string, error) {
	res, err := r.completed("ResponseString")
	if err != nil {
		return "", err
	}
	return string(res.data.Bytes()), nil
}

func (r *Request) ResponseDataLength() (int, error) {
	res, err := r.completed("ResponseDataLength")
	if err != nil {
		return 0, err
	}
	return res.data.Len(), nil
}

// ResponseHeaders returns the raw header lines of every response received, in the order received
func (r *Request) ResponseHeaders() (http.HeaderLines, error) {
	res, err := r.completed("ResponseHeaders")
	if err != nil {
		return nil, err
	}
	return append(http.HeaderLines{}, res.headers...), nil
}

func (r *Request) ResponseHeadersString() (string, error) {
	res, err := r.completed("ResponseHeadersString")
	if err != nil {
		return "", err
	}
	return res.headers.String(), nil
}

// ResponseCookies returns the received cookies as newline separated Netscape cookie-file lines
func (r *Request) ResponseCookies() (string, error) {
	res, err := r.completed("ResponseCookies")
	if err != nil {
		return "", err
	}
	return res.cookies, nil
}

// ErrorCode is valid in every state. It only differs from CodeOK once the request Failed
func (r *Request) ErrorCode() http.ErrorCode {
	return r.code
}

// ErrorMessage is valid in every state. It is empty on success
func (r *Request) ErrorMessage() string {
	return r.message
}

// SaveResponseData writes the response body to path, truncating it, and returns the number of bytes written
func (r *Request) SaveResponseData(path string) (int, error) {
	res, err := r.completed("SaveResponseData")
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := f.Write(res.data.Bytes())
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return n, nil
}
