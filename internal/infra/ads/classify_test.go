package ads

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect Class
	}{
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), ClassRetryable},
		{"deadline exceeded", status.Error(codes.DeadlineExceeded, "timeout"), ClassRetryable},
		{"internal", status.Error(codes.Internal, "server error"), ClassRetryable},
		{"unavailable", status.Error(codes.Unavailable, "down"), ClassRetryable},
		{"permission denied", status.Error(codes.PermissionDenied, "no access"), ClassFatal},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad query"), ClassFatal},
		{"not found", status.Error(codes.NotFound, "missing"), ClassFatal},
		{"unauthenticated", status.Error(codes.Unauthenticated, "token"), ClassFatal},
		{"plain error", errors.New("connection reset by peer"), ClassUnknown},
		{"wrapped status", fmt.Errorf("list campaigns: %w", status.Error(codes.Unavailable, "down")), ClassRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expect {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestRetryHint(t *testing.T) {
	st := status.New(codes.ResourceExhausted, "quota")
	st, err := st.WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(2 * time.Second),
	})
	if err != nil {
		t.Fatalf("WithDetails failed: %v", err)
	}

	hint, ok := RetryHint(st.Err())
	if !ok {
		t.Fatal("Expected a retry hint")
	}
	if hint != 2*time.Second {
		t.Errorf("Expected 2s hint, got %v", hint)
	}
}

func TestRetryHint_Absent(t *testing.T) {
	if _, ok := RetryHint(status.Error(codes.Unavailable, "down")); ok {
		t.Error("Expected no hint on a bare status error")
	}
	if _, ok := RetryHint(errors.New("plain")); ok {
		t.Error("Expected no hint on a plain error")
	}
}
