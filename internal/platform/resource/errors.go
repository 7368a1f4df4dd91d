package resource

import (
	"errors"
	"fmt"
)

// Failure classifies why an upstream call did not succeed.
type Failure string

const (
	FailureNone        Failure = ""
	FailureTransport   Failure = "transport"
	FailureStatus      Failure = "status"
	FailureDecode      Failure = "decode"
	FailureUnsupported Failure = "unsupported"
)

var errUnsupported = errors.New("backend has no item endpoint")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// DecodeError is returned when a 2xx body cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AsStatusError unwraps err into a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Classify returns the failure kind of err. Anything that is neither a
// status nor a decode failure counts as transport.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if _, ok := AsStatusError(err); ok {
		return FailureStatus
	}
	if errors.Is(err, errUnsupported) {
		return FailureUnsupported
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return FailureDecode
	}
	return FailureTransport
}
