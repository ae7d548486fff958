package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRejection(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrCircuitOpen, true},
		{ErrRateLimitExceeded, true},
		{ErrBulkheadFull, true},
		{fmt.Errorf("fetch images: %w", ErrBulkheadFull), true},
		{ErrTimeout, false},
		{errors.New("origin 503"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsRejection(tt.err); got != tt.want {
			t.Errorf("IsRejection(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
