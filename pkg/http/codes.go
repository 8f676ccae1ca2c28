package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/valyala/fasthttp"
)

// ErrorCode is the numeric outcome of a transfer. The values follow the libcurl CURLcode numbering
type ErrorCode int

const (
	CodeOK                  ErrorCode = 0
	CodeUnsupportedProtocol ErrorCode = 1
	CodeFailedInit          ErrorCode = 2
	CodeURLMalformat        ErrorCode = 3
	CodeCouldntResolveHost  ErrorCode = 6
	CodeCouldntConnect      ErrorCode = 7
	CodeWriteError          ErrorCode = 23
	CodeReadError           ErrorCode = 26
	CodeOperationTimedOut   ErrorCode = 28
	CodeSSLConnectError     ErrorCode = 35
	CodeAbortedByCallback   ErrorCode = 42
	CodeTooManyRedirects    ErrorCode = 47
	CodeGotNothing          ErrorCode = 52
	CodeSendError           ErrorCode = 55
	CodeRecvError           ErrorCode = 56
	CodeBadContentEncoding  ErrorCode = 61
)

var codeMessages = map[ErrorCode]string{
	CodeOK:                  "No error",
	CodeUnsupportedProtocol: "Unsupported protocol",
	CodeFailedInit:          "Failed initialization",
	CodeURLMalformat:        "URL using bad/illegal format or missing URL",
	CodeCouldntResolveHost:  "Couldn't resolve host name",
	CodeCouldntConnect:      "Couldn't connect to server",
	CodeWriteError:          "Failed writing received data to disk/application",
	CodeReadError:           "Failed to open/read local data from file/application",
	CodeOperationTimedOut:   "Timeout was reached",
	CodeSSLConnectError:     "SSL connect error",
	CodeAbortedByCallback:   "Operation was aborted by an application callback",
	CodeTooManyRedirects:    "Number of redirects hit maximum amount",
	CodeGotNothing:          "Server returned nothing (no headers, no data)",
	CodeSendError:           "Failed sending data to the peer",
	CodeRecvError:           "Failure when receiving data from the peer",
	CodeBadContentEncoding:  "Unrecognized or bad HTTP Content or Transfer-Encoding",
}

func (c ErrorCode) String() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return fmt.Sprintf("Unknown error (%d)", int(c))
}

var (
	errAborted          = fmt.Errorf("transfer aborted by progress callback")
	errWriteCallback    = fmt.Errorf("data callback did not consume the chunk")
	errContentEncoding  = fmt.Errorf("bad content encoding")
	errMissingHost      = fmt.Errorf("missing host in url")
	errUnsupportedProto = fmt.Errorf("unsupported protocol")
)

// classify maps a transport error onto an ErrorCode. The meter has the final say on aborts and deadlines
// since fasthttp does not always preserve the underlying error
func classify(err error, m *meter) ErrorCode {
	if err == nil {
		return CodeOK
	}
	if m != nil && m.isAborted() || errors.Is(err, errAborted) {
		return CodeAbortedByCallback
	}

	switch {
	case errors.Is(err, errWriteCallback):
		return CodeWriteError
	case errors.Is(err, errContentEncoding):
		return CodeBadContentEncoding
	case errors.Is(err, errMissingHost):
		return CodeURLMalformat
	case errors.Is(err, errUnsupportedProto):
		return CodeUnsupportedProtocol
	case errors.Is(err, fasthttp.ErrTooManyRedirects):
		return CodeTooManyRedirects
	}

	if isTimeout(err) || m != nil && m.expired() {
		return CodeOperationTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeCouldntResolveHost
	}

	if isTLSError(err) {
		return CodeSSLConnectError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return CodeCouldntConnect
		case "write":
			return CodeSendError
		}
		return CodeRecvError
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, fasthttp.ErrConnectionClosed) {
		return CodeGotNothing
	}
	return CodeRecvError
}

func isTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSError(err error) bool {
	var (
		recordErr  tls.RecordHeaderError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		certErr    x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &unknownErr) || errors.As(err, &hostErr) || errors.As(err, &certErr) {
		return true
	}
	// handshake failures are mostly plain errors prefixed by the tls package
	return strings.Contains(err.Error(), "tls: ")
}
