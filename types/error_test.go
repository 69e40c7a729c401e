package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrIncompleteDoneValue, "value still streaming").
		WithCause(root).
		WithRetryable(true).
		WithPath("<root>.age")

	if GetErrorCode(err) != ErrIncompleteDoneValue {
		t.Fatalf("expected code %s, got %s", ErrIncompleteDoneValue, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got != "[INCOMPLETE_DONE_VALUE] <root>.age: value still streaming: root" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := NewError(ErrMissingNeededFields, "missing")
	wrapped := fmt.Errorf("validate: %w", NewError(ErrMissingNeededFields, "class Foo"))

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("expected code match through wrapping")
	}
	if errors.Is(wrapped, NewError(ErrExpectedClass, "")) {
		t.Fatalf("different codes must not match")
	}
	if GetErrorCode(wrapped) != ErrMissingNeededFields {
		t.Fatalf("expected code lookup through wrapping")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are never retryable")
	}
}
