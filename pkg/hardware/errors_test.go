package hardware

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewRigError(t *testing.T) {
	err := NewRigError(6)
	if err.Code != StatusIO {
		t.Errorf("Expected code %d, got %d", StatusIO, err.Code)
	}
	if err.Error() != "IO error" {
		t.Errorf("Expected hamlib text, got %q", err.Error())
	}

	unknown := NewRigError(-42)
	if unknown.Error() != "Unknown error code -42" {
		t.Errorf("Unexpected text %q", unknown.Error())
	}
}

func TestErrorDetail(t *testing.T) {
	if ErrorDetail(nil) != "" {
		t.Error("Expected empty detail for nil")
	}
	multi := errors.New("Communication timed out\r\nwhile reading frequency")
	if got := ErrorDetail(multi); got != "Communication timed out" {
		t.Errorf("Expected first line, got %q", got)
	}
	wrapped := fmt.Errorf("get freq: %w", NewRigError(StatusTimeout))
	if got := ErrorDetail(wrapped); got != "get freq: Communication timed out" {
		t.Errorf("Unexpected detail %q", got)
	}
}

func TestIsNotAvailable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{NewRigError(StatusNotAvail), true},
		{NewRigError(StatusNotImpl), true},
		{fmt.Errorf("wrapped: %w", NewRigError(StatusNotAvail)), true},
		{ErrNotAvailable, true},
		{NewRigError(StatusIO), false},
		{ErrNotOpen, false},
	}
	for _, tt := range tests {
		if got := IsNotAvailable(tt.err); got != tt.want {
			t.Errorf("IsNotAvailable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
