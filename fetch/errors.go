package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport covers network failures and non-success HTTP statuses.
	ErrTransport = errors.New("transport error")
	// ErrProtocol is returned when a well-formed response lacks a required section.
	ErrProtocol = errors.New("protocol error")
	// ErrParse is returned for malformed XML.
	ErrParse = errors.New("parse error")
	// ErrValidation is returned for caller input that cannot be served, such as an empty search term.
	ErrValidation = errors.New("validation error")
)

// StatusError reports a non-2xx HTTP response. It unwraps to ErrTransport.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// Permanent reports whether retrying the same request cannot succeed: malformed
// documents and client errors other than 408 and 429.
func Permanent(err error) bool {
	if errors.Is(err, ErrParse) || errors.Is(err, ErrValidation) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 400 && status.Code < 500 &&
			status.Code != http.StatusRequestTimeout && status.Code != http.StatusTooManyRequests
	}
	return false
}
