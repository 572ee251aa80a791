package catgo

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{InvalidShape, "InvalidShape"},
		{OutOfBounds, "OutOfBounds"},
		{BadBufferSize, "BadBufferSize"},
		{BadAxis, "BadAxis"},
		{NotSqueezable, "NotSqueezable"},
		{NotCaterva, "NotCaterva"},
		{StoreError, "StoreError"},
		{OOM, "OOM"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	e1 := newErr(OutOfBounds, "region out of bounds at axis 0")
	e2 := newErr(OutOfBounds, "a completely different message")
	e3 := newErr(BadAxis, "region out of bounds at axis 0")

	if !errors.Is(e1, e2) {
		t.Error("expected two OutOfBounds errors with different messages to match via errors.Is")
	}
	if errors.Is(e1, e3) {
		t.Error("expected OutOfBounds and BadAxis errors not to match")
	}
}

func TestWrapErrUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	wrapped := wrapErr(StoreError, "append chunk", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	kind, ok := KindOf(wrapped)
	if !ok || kind != StoreError {
		t.Errorf("KindOf(wrapped) = (%v,%v), want (StoreError,true)", kind, ok)
	}
}

func TestKindOfNonCatgoError(t *testing.T) {
	if _, ok := KindOf(fmt.Errorf("plain error")); ok {
		t.Error("expected KindOf to return false for a non-catgo error")
	}
}
