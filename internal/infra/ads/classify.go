package ads

import (
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Class buckets an error by how the executor should respond to it.
type Class int

const (
	ClassRetryable Class = iota // transient, retry with exponential backoff
	ClassFatal                  // permanent, surface immediately
	ClassUnknown                // no status code, retry with the flat base delay
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// retryableCodes are the status codes the remote API emits under load or
// partial outage.
var retryableCodes = map[codes.Code]bool{
	codes.ResourceExhausted: true,
	codes.DeadlineExceeded:  true,
	codes.Internal:          true,
	codes.Unavailable:       true,
}

// Classify buckets a non-nil error by its gRPC status code. Errors carrying
// no status at all are ClassUnknown.
func Classify(err error) Class {
	st, ok := status.FromError(err)
	if !ok {
		return ClassUnknown
	}
	if retryableCodes[st.Code()] {
		return ClassRetryable
	}
	return ClassFatal
}

// RetryHint returns the server-suggested backoff attached to err through a
// RetryInfo status detail, if any.
func RetryHint(err error) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return 0, false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.RetryInfo); ok {
			if delay := info.GetRetryDelay(); delay != nil {
				return delay.AsDuration(), true
			}
		}
	}
	return 0, false
}
