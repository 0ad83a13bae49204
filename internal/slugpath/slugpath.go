// Package slugpath provides slug derivation and slash-path helpers shared by
// the parser, matcher and addressing layers. Everything here is a pure string
// function.
package slugpath

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug from a heading title: lowercase, runs of
// non-alphanumeric characters collapse to a single hyphen, edges trimmed.
// An empty or all-symbol title yields "untitled".
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// Normalize canonicalizes a section reference: whitespace trimmed, a single
// leading '#' stripped, slashes deduplicated and trimmed from both ends,
// lowercased. An empty input stays empty.
func Normalize(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "#")
	segs := Split(ref)
	return strings.Join(segs, "/")
}

// Split breaks a slash path into its non-empty segments.
func Split(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Join is the inverse of Split.
func Join(segs []string) string {
	return strings.Join(segs, "/")
}

// Parent returns the path with its leaf removed, or "" for a top-level slug.
func Parent(path string) string {
	segs := Split(path)
	if len(segs) <= 1 {
		return ""
	}
	return Join(segs[:len(segs)-1])
}

// Leaf returns the final segment of a path, or "" for an empty path.
func Leaf(path string) string {
	segs := Split(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Depth returns the number of segments in a path.
func Depth(path string) int {
	return len(Split(path))
}
