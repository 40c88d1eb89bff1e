package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why a backend call failed.
type Kind int

const (
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP Kind = iota + 1
	// KindNetwork means the backend could not be reached.
	KindNetwork
	// KindMalformed means a 2xx answer whose body is not valid JSON or
	// lacks required fields.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned for every failed backend call.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	StatusText string
	// Message is the human readable message supplied by the backend, if any.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Message != "" {
			return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.StatusText)
	case KindNetwork:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	case KindMalformed:
		return fmt.Sprintf("%s %s: malformed response: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Malformed reports a 2xx payload that does not carry what the caller needs.
func Malformed(method, path string, err error) *Error {
	return &Error{Kind: KindMalformed, Method: method, Path: path, Err: err}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an HTTP error with the given status code.
func IsStatus(err error, code int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindHTTP && apiErr.StatusCode == code
}

func IsNetwork(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNetwork
}

func IsMalformed(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindMalformed
}

// errorBody covers the error envelopes the backend produces.
// errorBody holds the fields a backend error may carry. Each is kept raw
// because only string values are shown.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Detail  json.RawMessage `json:"detail"`
	Message json.RawMessage `json:"message"`
}

func httpError(method, path string, resp *http.Response, body []byte) *Error {
	return &Error{
		Kind:       KindHTTP,
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Message:    backendMessage(body),
	}
}

func statusText(resp *http.Response) string {
	// resp.Status is "401 Unauthorized"
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func backendMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}

	// detail is a plain string for handled errors and a list of
	// validation problems otherwise.
	for _, raw := range []json.RawMessage{eb.Error, eb.Detail, eb.Message} {
		if msg := stringValue(raw); msg != "" {
			return msg
		}
	}

	return ""
}

func stringValue(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
