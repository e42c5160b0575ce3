// Package remote classifies responses from the external services the engine
// talks to (reassembly endpoint, extraction service, catalog comparison).
//
// Hosting platforms answer some failures with HTML or plain-text pages
// instead of JSON. Those are reported as their own kinds so callers never
// surface a JSON syntax error to the user.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxResponseBytes caps how much of a response body is read.
const MaxResponseBytes = 4 << 20

// Kind classifies a failed call.
type Kind string

const (
	KindPayloadTooLarge Kind = "payload_too_large"
	KindGatewayTimeout  Kind = "gateway_timeout"
	KindNonJSON         Kind = "non_json"
	KindRemote          Kind = "remote"
	KindProtocol        Kind = "protocol"
	KindTransport       Kind = "transport"
)

// Error is a classified failure talking to an external service.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Snippet holds the start of an unparseable body for diagnostics.
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusCode returns the upstream status, 0 for transport failures.
func (e *Error) HTTPStatusCode() int { return e.StatusCode }

// UserMessage is the actionable text shown to whoever started the operation.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindPayloadTooLarge:
		return "file too large"
	case KindGatewayTimeout:
		return "extraction timed out — retry"
	case KindNonJSON:
		return fmt.Sprintf("unexpected response from server (http %d)", e.StatusCode)
	case KindTransport:
		return "could not reach server"
	default:
		if e.Message != "" {
			return e.Message
		}
		return "request failed"
	}
}

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindGatewayTimeout:
		return true
	case KindPayloadTooLarge, KindProtocol:
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// IsKind reports whether err is a remote error of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == kind
}

// IsRetryable reports whether err is a retryable remote error.
func IsRetryable(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Retryable()
}

// Transport wraps a failure that happened before any response arrived.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// Protocolf reports a well-formed response that breaks the expected contract.
func Protocolf(format string, args ...any) *Error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Decode reads resp and decodes a successful JSON body into out. Failures are
// returned as *Error. The body is always closed.
func Decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return Transport(fmt.Errorf("reading response: %w", err))
	}

	switch resp.StatusCode {
	case http.StatusRequestEntityTooLarge:
		return &Error{Kind: KindPayloadTooLarge, StatusCode: resp.StatusCode, Snippet: snippet(body)}
	case http.StatusGatewayTimeout:
		return &Error{Kind: KindGatewayTimeout, StatusCode: resp.StatusCode, Snippet: snippet(body)}
	}

	if len(body) > MaxResponseBytes {
		return &Error{Kind: KindNonJSON, StatusCode: resp.StatusCode, Message: "response too large"}
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return &Error{
			Kind:       KindNonJSON,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("content-type %q", resp.Header.Get("Content-Type")),
			Snippet:    snippet(body),
		}
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(trimmed, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Kind: KindRemote, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Kind: KindProtocol, StatusCode: resp.StatusCode, Message: "decoding response", Err: err}
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
