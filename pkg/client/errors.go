package client

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a successful response body is not valid JSON.
var ErrDecode = errors.New("decode response")

// RemoteFetchError reports a failed call to one of the remote endpoints.
// Status is 0 when no HTTP response was received.
type RemoteFetchError struct {
	Status     int
	Identifier string
	Endpoint   string
	Class      ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *RemoteFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request for %s failed (%s): %v",
			e.Endpoint, e.Identifier, e.Class, e.Err)
	}
	return fmt.Sprintf("%s HTTP %d for %s", e.Endpoint, e.Status, e.Identifier)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by a RemoteFetchError in err's chain,
// or 0 if there is none.
func StatusOf(err error) int {
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return rfe.Status
	}
	return 0
}
