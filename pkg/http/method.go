package http

import (
	"fmt"
	"strings"
)

// Method is the verb used for a transfer. The numbering is stable and can be persisted
type Method int

const (
	GET Method = iota
	POST
	PUT
	DELETE
)

var (
	ErrUnsupportedMethod = fmt.Errorf("unsupported method")
)

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid returns whether the method is one of the supported verbs
func (m Method) Valid() bool {
	return m >= GET && m <= DELETE
}

func MethodFromString(m string) (Method, error) {
	switch strings.ToUpper(m) {
	case "GET", "":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "DELETE":
		return DELETE, nil
	}
	return GET, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
}
