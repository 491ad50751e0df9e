package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Validationf("action %d out of range", 9)
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation kind, got %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty kind for plain error")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Externalf(cause, "broadcast commit tx")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if !IsKind(err, KindExternal) {
		t.Fatalf("expected external kind")
	}
	// Kind survives further fmt wrapping by callers.
	outer := fmt.Errorf("submit: %w", err)
	if !IsKind(outer, KindExternal) {
		t.Fatalf("expected kind to survive wrapping")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindExternal, nil, "noop") != nil {
		t.Fatalf("expected nil for nil cause")
	}
}
