package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPropertyReadErrorUnwrapsBothCauses(t *testing.T) {
	direct := fmt.Errorf("truncated stream")
	err := &PropertyReadError{
		Path:     "/parts/a1.psm",
		Direct:   direct,
		Fallback: ErrUnavailable,
	}

	if !errors.Is(err, ErrUnavailable) {
		t.Error("fallback cause not reachable via errors.Is")
	}
	if !errors.Is(err, direct) {
		t.Error("direct cause not reachable via errors.Is")
	}

	msg := err.Error()
	for _, want := range []string{"/parts/a1.psm", "truncated stream", "automation server unavailable"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestPropertyReadErrorViaErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("a1: %w", &PropertyReadError{Path: "/parts/a1.psm"})
	var pre *PropertyReadError
	if !errors.As(wrapped, &pre) {
		t.Fatal("errors.As failed to find PropertyReadError")
	}
	if pre.Path != "/parts/a1.psm" {
		t.Fatalf("Path = %q", pre.Path)
	}
}
