// Package apierror describes failed HTTP responses, from upstream services
// and to clients of the lookup server.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyText limits how much of a response body is kept in an error.
const maxBodyText = 256

// Error is the type of error produced for a non-success upstream response.
// It carries the HTTP status code so that callers can classify the failure.
type Error struct {
	err    error
	status int
}

func New(err error, status int) *Error {
	return &Error{
		err:    err,
		status: status,
	}
}

// FromResponse builds an error from a response status and body. Only the
// start of a long body is kept.
func FromResponse(status int, body []byte) error {
	var err error
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodyText {
		text = text[:maxBodyText] + "..."
	}
	if text != "" {
		err = errors.New(text)
	}
	if status == 0 {
		return err
	}
	return New(err, status)
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.status == 0 {
		return ""
	}
	// If there is only status, then return status text
	if text := http.StatusText(e.status); text != "" {
		return fmt.Sprintf("%d %s", e.status, text)
	}
	return fmt.Sprintf("%d", e.status)
}

func (e *Error) Status() int {
	return e.status
}

// Text returns the status code, status text, and message together.
func (e *Error) Text() string {
	parts := make([]string, 0, 5)
	if e.status != 0 {
		parts = append(parts, fmt.Sprintf("%d", e.status))
		text := http.StatusText(e.status)
		if text != "" {
			parts = append(parts, " ")
			parts = append(parts, text)
		}
	}
	if e.err != nil {
		if len(parts) != 0 {
			parts = append(parts, ": ")
		}
		parts = append(parts, e.err.Error())
	}

	return strings.Join(parts, "")
}

func (e *Error) Unwrap() error {
	return e.err
}

// IsRateLimited reports whether err is, or wraps, an upstream response with
// status 429 Too Many Requests.
func IsRateLimited(err error) bool {
	return HasStatus(err, http.StatusTooManyRequests)
}

// HasStatus reports whether err is, or wraps, an upstream response with the
// given status.
func HasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status() == status
}
