package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHeaderSyntax = fmt.Errorf("invalid header syntax")
	ErrMissingNextLink     = fmt.Errorf("cannot derive next link")
	ErrPackagingFailure    = fmt.Errorf("packaging failed")
	ErrMuxingFailure       = fmt.Errorf("muxing failed")
	ErrShortPayload        = fmt.Errorf("payload is shorter than signature")
	ErrFragmentExists      = fmt.Errorf("fragment file already exists")
	ErrPageNotFound        = fmt.Errorf("page not found")
	ErrUnknownFlow         = fmt.Errorf("unknown flow mode")
	ErrInvalidRange        = fmt.Errorf("invalid numeric range")
	ErrNoTargets           = fmt.Errorf("no targets found")
	ErrInvalidSelector     = fmt.Errorf("invalid selector")
	ErrNoPlaceholder       = fmt.Errorf("pattern has no placeholder")
	ErrLinkCycle           = fmt.Errorf("next link points to a visited page")
)

// HTTPStatusError is returned when the origin answers outside of 2xx/3xx.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Code)
}

// TransportError wraps DNS, connection and timeout failures.
type TransportError struct {
	URL    string
	Reason error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Reason)
}

func (e *TransportError) Unwrap() error {
	return e.Reason
}

// IsRetryable reports whether err is a fetch failure worth another attempt.
func IsRetryable(err error) bool {
	var (
		statusErr    *HTTPStatusError
		transportErr *TransportError
	)

	return errors.As(err, &statusErr) || errors.As(err, &transportErr)
}
