package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRequestFailed matches every RequestFailure with errors.Is.
var ErrRequestFailed = errors.New("API request failed")

// RequestFailure reports a call to the animation service that did not yield
// a usable response.
type RequestFailure struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *RequestFailure) Error() string {
	if e.Status != 0 && e.Reason == "" {
		return fmt.Sprintf("API request failed with status %d", e.Status)
	}
	if e.Reason != "" {
		return "API request failed: " + e.Reason
	}
	if e.Err != nil {
		return "API request failed: " + e.Err.Error()
	}
	return "API request failed"
}

func (e *RequestFailure) Unwrap() error { return e.Err }

func (e *RequestFailure) Is(target error) bool { return target == ErrRequestFailed }

// Temporary reports whether retrying later could succeed.
func (e *RequestFailure) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var rf *RequestFailure
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

// isBreakerFailure counts transport errors and server errors against the
// breaker. Client errors and malformed bodies do not.
func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	var rf *RequestFailure
	if errors.As(err, &rf) {
		return rf.Temporary()
	}
	return true
}
