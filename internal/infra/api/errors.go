package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"unicode/utf8"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	// KindNetwork means no response was received at all: connection
	// refused, DNS failure, or an elapsed timeout.
	KindNetwork ErrorKind = iota
	// KindResponse means a response was received but carried an error
	// status.
	KindResponse
	// KindGeneric covers everything else: malformed input, oversized
	// payloads, programming errors.
	KindGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindResponse:
		return "response"
	default:
		return "generic"
	}
}

// ErrorRecord is the terminal error surfaced to callers. Kind, Status and
// Retryable are stable and inspectable; Message is human-readable.
type ErrorRecord struct {
	Kind      ErrorKind
	Message   string
	Status    int // valid only for KindResponse
	Cause     error
	Retryable bool
}

func (e *ErrorRecord) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ErrorRecord) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is an ErrorRecord marked retryable.
func IsRetryable(err error) bool {
	var rec *ErrorRecord
	if errors.As(err, &rec) {
		return rec.Retryable
	}
	return false
}

// ClassifyTransportError maps a failure of the transport call itself into
// an ErrorRecord. Any timeout or connection failure is treated uniformly
// as Network; transport-specific error codes are not inspected.
func ClassifyTransportError(err error) *ErrorRecord {
	if isNetworkError(err) {
		return &ErrorRecord{
			Kind:      KindNetwork,
			Message:   err.Error(),
			Cause:     err,
			Retryable: true,
		}
	}

	return &ErrorRecord{
		Kind:      KindGeneric,
		Message:   err.Error(),
		Cause:     err,
		Retryable: false,
	}
}

// ClassifyStatus maps an error status into an ErrorRecord. Statuses >= 500
// and 429 are retryable; every other error status is not.
func ClassifyStatus(status int, body []byte) *ErrorRecord {
	retryable := status >= http.StatusInternalServerError ||
		status == http.StatusTooManyRequests

	msg := http.StatusText(status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, truncate(string(body), 200))
	}

	return &ErrorRecord{
		Kind:      KindResponse,
		Message:   msg,
		Status:    status,
		Retryable: retryable,
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// http.Client wraps dial and DNS failures in *url.Error
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back up to a rune boundary so the cut never splits a multi-byte rune
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
