package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSectionNotFoundError(t *testing.T) {
	err := &SectionNotFoundError{
		Path:          "api/auth.md",
		Ref:           "overview/auth/missing",
		Reason:        ReasonNoSuchSegment,
		PartialMatch:  true,
		MatchedPrefix: "overview/auth",
		Suggestions:   []string{"oauth", "jwt"},
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected SectionNotFoundError to match ErrNotFound")
	}
	msg := err.Error()
	for _, want := range []string{"overview/auth/missing", "overview/auth", "oauth", "jwt", ReasonNoSuchSegment} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestAmbiguousSectionError(t *testing.T) {
	err := &AmbiguousSectionError{
		Path:       "guide.md",
		Ref:        "setup/step",
		Segment:    "step",
		Candidates: []string{"step-1", "step-2"},
	}
	if !errors.Is(err, ErrAmbiguous) {
		t.Error("expected AmbiguousSectionError to match ErrAmbiguous")
	}
	if !strings.Contains(err.Error(), "step-1") {
		t.Errorf("expected candidates in message, got %q", err.Error())
	}
}

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{NewDocumentNotFoundError("a.md"), ErrNotFound},
		{NewInvalidAddressError("##", "double hash"), ErrInvalidAddress},
		{&StructuralConflictError{Path: "a.md", Ref: "x", Operation: "remove", Message: "gone"}, ErrStructuralConflict},
		{&TooManyHeadingsError{Path: "a.md", Count: 2000, Limit: 1000}, ErrStructuralConflict},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("expected %T to match %v", tt.err, tt.sentinel)
		}
	}
}

func TestWrappedSentinelStillMatches(t *testing.T) {
	err := fmt.Errorf("resolving section: %w", NewDocumentNotFoundError("b.md"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected wrapped error to match ErrNotFound")
	}
	var dnf *DocumentNotFoundError
	if !errors.As(err, &dnf) || dnf.Path != "b.md" {
		t.Error("expected to recover DocumentNotFoundError with path")
	}
}
