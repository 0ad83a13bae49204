// Package errors defines the failure taxonomy shared by the caches, matcher
// and mutation engine. Every failure carries machine-checkable kind (via
// errors.Is against the sentinels) plus enough context for a caller to retry
// correctly.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the four failure kinds
var (
	// ErrNotFound is returned when a document or section is absent
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when a hierarchical path matches multiple candidates
	ErrAmbiguous = errors.New("ambiguous reference")

	// ErrInvalidAddress is returned for malformed address input
	ErrInvalidAddress = errors.New("invalid address")

	// ErrStructuralConflict is returned when a mutation target is invalid for the requested operation
	ErrStructuralConflict = errors.New("structural conflict")
)

// Match failure reasons carried by SectionNotFoundError.
const (
	ReasonNoSuchSegment = "no-such-segment"
	ReasonAmbiguous     = "ambiguous-without-suffix"
	ReasonEmptyDocument = "empty-document"
)

// DocumentNotFoundError reports an absent document with its path
type DocumentNotFoundError struct {
	Path string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document '%s' not found", e.Path)
}

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewDocumentNotFoundError creates a new DocumentNotFoundError
func NewDocumentNotFoundError(path string) *DocumentNotFoundError {
	return &DocumentNotFoundError{Path: path}
}

// SectionNotFoundError reports a failed section lookup with the longest
// matched prefix and nearby slugs so the caller can correct the reference
type SectionNotFoundError struct {
	Path          string   // Document path
	Ref           string   // Reference as given
	Reason        string   // One of the Reason* constants
	PartialMatch  bool     // True when a prefix of the path matched
	MatchedPrefix string   // Longest matching ancestor path
	Suggestions   []string // Nearby slugs, at most 5
}

func (e *SectionNotFoundError) Error() string {
	msg := fmt.Sprintf("section '%s' not found in '%s' (%s)", e.Ref, e.Path, e.Reason)
	if e.PartialMatch {
		msg += fmt.Sprintf(", matched up to '%s'", e.MatchedPrefix)
	}
	if len(e.Suggestions) > 0 {
		msg += ", did you mean: " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

func (e *SectionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AmbiguousSectionError reports a path segment that matches several sibling
// headings, none of them exactly
type AmbiguousSectionError struct {
	Path       string
	Ref        string
	Segment    string
	Candidates []string
}

func (e *AmbiguousSectionError) Error() string {
	return fmt.Sprintf("segment '%s' of '%s' is ambiguous in '%s', candidates: %s",
		e.Segment, e.Ref, e.Path, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousSectionError) Is(target error) bool {
	return target == ErrAmbiguous
}

// InvalidAddressError reports malformed address input
type InvalidAddressError struct {
	Raw    string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address '%s': %s", e.Raw, e.Reason)
}

func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// NewInvalidAddressError creates a new InvalidAddressError
func NewInvalidAddressError(raw, reason string) *InvalidAddressError {
	return &InvalidAddressError{Raw: raw, Reason: reason}
}

// StructuralConflictError reports a mutation whose target is invalid for the
// requested operation
type StructuralConflictError struct {
	Path      string
	Ref       string
	Operation string
	Message   string
}

func (e *StructuralConflictError) Error() string {
	return fmt.Sprintf("cannot %s at '%s' in '%s': %s", e.Operation, e.Ref, e.Path, e.Message)
}

func (e *StructuralConflictError) Is(target error) bool {
	return target == ErrStructuralConflict
}

// TooManyHeadingsError reports a document exceeding the heading-count bound
type TooManyHeadingsError struct {
	Path  string
	Count int
	Limit int
}

func (e *TooManyHeadingsError) Error() string {
	return fmt.Sprintf("document '%s' has %d headings, limit is %d", e.Path, e.Count, e.Limit)
}

func (e *TooManyHeadingsError) Is(target error) bool {
	return target == ErrStructuralConflict
}
