package fetcher

import (
	"fmt"
	"net/http"
)

// ErrorType classifies fetch failures.
type ErrorType string

const (
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// LogLevel is the severity a FetchError should be logged at.
type LogLevel int

const (
	LevelWarn LogLevel = iota
	LevelError
)

// FetchError is a classified fetch failure.
type FetchError struct {
	Type       ErrorType
	Level      LogLevel
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("fetch %s: %s for %s", e.Type, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Transient reports whether another attempt in the same cycle may succeed.
func (e *FetchError) Transient() bool {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeUpstream, ErrTypeRateLimited:
		return true
	case ErrTypeForbidden, ErrTypeNotFound, ErrTypeGone, ErrTypeUnexpected:
		return false
	default:
		return false
	}
}

// ClassifyHTTPStatus creates a FetchError from a non-success status code.
func ClassifyHTTPStatus(statusCode int, url string) *FetchError {
	cause := fmt.Errorf("HTTP %d", statusCode)
	fe := &FetchError{Level: LevelWarn, StatusCode: statusCode, URL: url, Cause: cause}

	switch {
	case statusCode == http.StatusTooManyRequests:
		fe.Type = ErrTypeRateLimited
	case statusCode == http.StatusForbidden:
		fe.Type = ErrTypeForbidden
	case statusCode == http.StatusNotFound:
		fe.Type = ErrTypeNotFound
	case statusCode == http.StatusGone:
		fe.Type = ErrTypeGone
		fe.Level = LevelError
	case statusCode >= http.StatusInternalServerError && statusCode <= 599:
		fe.Type = ErrTypeUpstream
	default:
		fe.Type = ErrTypeUnexpected
		fe.Level = LevelError
	}

	return fe
}

// ClassifyNetworkError creates a FetchError for transport failures (DNS, timeout, reset).
func ClassifyNetworkError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeNetwork, Level: LevelWarn, URL: url, Cause: cause}
}

func isSuccess(statusCode int) bool {
	return statusCode == http.StatusOK || statusCode == http.StatusNotModified
}
