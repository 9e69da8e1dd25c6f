package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError(t *testing.T) {
	err := NewAppError("SOME_CODE", "something broke", errors.New("root cause"))

	expected := "something broke: root cause"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}

	bare := NewValidationError("minute must be >= 0")
	if bare.Error() != "minute must be >= 0" {
		t.Errorf("Unexpected message for cause-less error: '%s'", bare.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := NewMatchClosedError("finished")

	if !IsCode(err, CodeMatchClosed) {
		t.Error("Expected IsCode to match MATCH_CLOSED")
	}
	if IsCode(err, CodeValidation) {
		t.Error("Expected IsCode to reject a different code")
	}

	// 包装后仍可识别
	wrapped := fmt.Errorf("append rejected: %w", err)
	if !IsCode(wrapped, CodeMatchClosed) {
		t.Error("Expected IsCode to unwrap wrapped errors")
	}

	if IsCode(errors.New("plain"), CodeMatchClosed) {
		t.Error("Expected IsCode to reject plain errors")
	}
}

func TestNotFoundUnwrap(t *testing.T) {
	err := NewNotFoundError("match")
	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected not-found errors to unwrap to ErrNotFound")
	}
}
