// Package api implements a resilient HTTP client for the voice analysis
// service.
//
// This package contains:
//   - RequestDescriptor/ResponseEnvelope: the per-call data model
//   - Classify: maps transport outcomes into an error taxonomy
//   - RetryPolicy: retry eligibility and exponential backoff
//   - Client: the request executor with transparent retries
//   - Upload: multipart uploads with progress reporting
//   - Monitor: the connection health monitor
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestDescriptor describes one logical request. It is created per call
// and discarded on completion; the attempt counter is advanced only by the
// executor's retry loop.
type RequestDescriptor struct {
	ID          string
	Method      string
	Path        string
	Body        []byte
	ContentType string // empty for bodies that carry no explicit content type
	Headers     map[string]string
	Timeout     time.Duration

	attempt    int
	onProgress func(int)
}

// NewRequest creates a descriptor for a bodyless request.
func NewRequest(method, path string) *RequestDescriptor {
	return &RequestDescriptor{
		ID:     uuid.NewString(),
		Method: method,
		Path:   path,
	}
}

// NewJSONRequest creates a descriptor with a JSON-encoded body.
func NewJSONRequest(method, path string, body any) (*RequestDescriptor, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	d := NewRequest(method, path)
	d.Body = data
	d.ContentType = "application/json"
	return d, nil
}

// Attempt returns how many retries the executor has performed so far.
func (d *RequestDescriptor) Attempt() int {
	return d.attempt
}

// ResponseEnvelope is the uniform result of a protocol-level successful
// request, regardless of the HTTP status carried.
type ResponseEnvelope struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
	Request    *RequestDescriptor
}

// DecodeJSON unmarshals the response body into v.
func (e *ResponseEnvelope) DecodeJSON(v any) error {
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
