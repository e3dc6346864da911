// Package submit delivers the edited document to the backend and normalizes
// the failure payloads the backend answers with: either a flat message for
// the form banner, or a structured per-field map distributed back onto the
// matching fields.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Method selects the write verb.
type Method string

const (
	// MethodCreate posts a new document.
	MethodCreate Method = http.MethodPost
	// MethodUpdate replaces an existing document.
	MethodUpdate Method = http.MethodPut
)

// Error is a failed submission. Either Message is set (a form-level banner)
// or Fields maps dotted field paths to machine error codes, re-opening those
// fields' error slots even though they passed client-side validation.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("submit: %s", e.Message)
	}
	return fmt.Sprintf("submit: %d field errors (status %d)", len(e.Fields), e.Status)
}

// Sink accepts a finished document. Implementations return *Error for
// backend rejections and plain errors for transport failures. Failed
// submissions are never retried automatically.
type Sink interface {
	Submit(ctx context.Context, path string, method Method, document map[string]any) error
}

// HTTPSink submits documents as JSON over HTTP.
type HTTPSink struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// HTTPOption customizes an HTTPSink.
type HTTPOption func(*HTTPSink)

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(s *HTTPSink) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(s *HTTPSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSink builds a sink rooted at a base URL.
func NewHTTPSink(base string, opts ...HTTPOption) *HTTPSink {
	s := &HTTPSink{
		base:   base,
		client: http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends the document and decodes any rejection payload.
func (s *HTTPSink) Submit(ctx context.Context, path string, method Method, document map[string]any) error {
	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("submit: encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), s.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("submit: read failure payload: %w", err)
	}
	s.logger.Warn("submit: backend rejected document",
		zap.String("path", path),
		zap.String("method", string(method)),
		zap.Int("status", resp.StatusCode))
	return decodeFailure(resp.StatusCode, payload)
}

// decodeFailure classifies a rejection body: a JSON string or non-JSON text
// is a flat message; a JSON object is walked into per-field codes.
func decodeFailure(status int, payload []byte) *Error {
	var parsed any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return &Error{Status: status, Message: string(payload)}
	}
	switch v := parsed.(type) {
	case string:
		return &Error{Status: status, Message: v}
	case map[string]any:
		fields := FieldErrors(v)
		if len(fields) == 0 {
			return &Error{Status: status, Message: string(payload)}
		}
		return &Error{Status: status, Fields: fields}
	default:
		return &Error{Status: status, Message: string(payload)}
	}
}

// FieldErrors flattens a structured failure payload into dotted field paths.
// Nested objects extend the path per key; arrays extend it per index; string
// leaves are the machine error codes.
func FieldErrors(payload map[string]any) map[string]string {
	out := make(map[string]string)
	walkFieldErrors("", payload, out)
	return out
}

func walkFieldErrors(prefix string, value any, out map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			walkFieldErrors(joinPath(prefix, key), child, out)
		}
	case []any:
		for idx, child := range v {
			walkFieldErrors(joinPath(prefix, strconv.Itoa(idx)), child, out)
		}
	case string:
		if prefix != "" {
			out[prefix] = v
		}
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
