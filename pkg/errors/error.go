package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidArgument is returned when a request is configured with malformed values, e.g. an empty url
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	// ErrInvalidState is returned when an operation is attempted outside of its legal lifecycle window.
	// This is a programming error on the caller's side
	ErrInvalidState = fmt.Errorf("invalid state")
)

// prefixfromDepth will create the indent prefix for a certain depth
// of string, e.g. 2 will yield "  " * 2 -> "    "
func prefixFromDepth(depth int) string {
	var p []byte
	for i := 0; i < depth; i++ {
		p = append(p, "  "...)
	}
	return string(p)
}

// PrintError will attempt to traverse the nested error and
// recursively print out any nested TransferErrors found
// If a multierror.Error is found, we will recurisvely print out
// each error found
func PrintError(err error, depth int) {
	var (
		merr *multierror.Error
		terr *TransferError
		serr *StateError
	)

	if errors.As(err, &merr) {
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
	} else if errors.As(err, &terr) {
		terr.LogError(depth)
	} else if errors.As(err, &serr) {
		log.Debug().
			Str("op", serr.Op).
			Str("state", serr.State).
			Strs("want", serr.Want).
			Msg(prefixFromDepth(depth) + "state violation")
	} else {
		log.Debug().Err(err).Msg(prefixFromDepth(depth) + "error")
	}
}

// StateError describes an operation that was called while the request was in a state that does not
// permit it. It always unwraps to ErrInvalidState
type StateError struct {
	Op    string   // Op is the name of the rejected operation, e.g. AddHeader
	State string   // State is the lifecycle state the request was in
	Want  []string // Want lists the states the operation is valid in
}

func (s *StateError) Error() string {
	return fmt.Sprintf("%s: %s not allowed in state %s (want %s)",
		ErrInvalidState, s.Op, s.State, strings.Join(s.Want, "|"))
}

func (s *StateError) Unwrap() error {
	return ErrInvalidState
}

// TransferError encapsulates a transport level failure. Code follows the libcurl numbering so callers that
// are used to CURLcode values can switch on it directly.
// A non-2xx status code is never a TransferError, only failures to complete the exchange are
type TransferError struct {
	Code    int
	Message string
	URL     string // URL is optional context on which transfer failed
}

func (t *TransferError) Error() string {
	if t.URL == "" {
		return fmt.Sprintf("transfer error (%d): %s", t.Code, t.Message)
	}
	return fmt.Sprintf("transfer error (%d) %s: %s", t.Code, t.URL, t.Message)
}

// LogError will log to Debug() the context surrounding the error.
// the depth argument modifies the indentation depth of the pretty printed error
func (t *TransferError) LogError(depth int) {
	log.Debug().
		Int("code", t.Code).
		Str("url", t.URL).
		Str("message", t.Message).
		Msg(prefixFromDepth(depth) + "transfer failed")
}
