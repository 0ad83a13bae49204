// Package matcher resolves path-like section references against one
// document's heading list. The index is built once per parse: a single pass
// produces the parent->children map and a cache of every full ancestor path,
// so lookups are map hits rather than per-candidate ancestor walks.
package matcher

import (
	"sort"
	"strings"

	"github.com/Blakeem/mdstore/internal/doctree"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
	"github.com/Blakeem/mdstore/internal/slugpath"
)

// maxSuggestions bounds how many nearby slugs a failure carries.
const maxSuggestions = 5

// Failure is the structured result of an unsuccessful resolution. A bare
// absence signal is useless to someone hand-writing hierarchical slugs, so
// every failure says how far the path got and what was nearby.
type Failure struct {
	Reason        string   // no-such-segment, ambiguous-without-suffix or empty-document
	Segment       string   // The segment that failed
	PartialMatch  bool     // True when at least one segment matched
	MatchedPrefix string   // Longest matching ancestor path
	Suggestions   []string // Slugs adjacent to the last matched ancestor
	Candidates    []string // For ambiguous segments, the competing slugs
}

// Err converts the failure into the taxonomy error for the given document.
func (f *Failure) Err(docPath, ref string) error {
	if f.Reason == mderrors.ReasonAmbiguous {
		return &mderrors.AmbiguousSectionError{
			Path:       docPath,
			Ref:        ref,
			Segment:    f.Segment,
			Candidates: f.Candidates,
		}
	}
	return &mderrors.SectionNotFoundError{
		Path:          docPath,
		Ref:           ref,
		Reason:        f.Reason,
		PartialMatch:  f.PartialMatch,
		MatchedPrefix: f.MatchedPrefix,
		Suggestions:   f.Suggestions,
	}
}

// Index is the per-document hierarchy index. Built when a document's
// structural record is built and discarded with it.
type Index struct {
	headings []doctree.Heading
	children map[int][]int  // parent heading index (-1 for roots) -> children
	paths    map[string]int // full ancestor slug path -> heading index
	slugs    map[string]int // flat slug -> heading index
}

// Build constructs the index in one O(n) pass over the heading list.
func Build(headings []doctree.Heading) *Index {
	ix := &Index{
		headings: headings,
		children: make(map[int][]int),
		paths:    make(map[string]int, len(headings)),
		slugs:    make(map[string]int, len(headings)),
	}
	// Running path per depth avoids re-walking ancestors for each heading.
	fullPaths := make([]string, len(headings))
	for i, h := range headings {
		ix.children[h.ParentIndex] = append(ix.children[h.ParentIndex], i)
		if h.ParentIndex < 0 {
			fullPaths[i] = h.Slug
		} else {
			fullPaths[i] = fullPaths[h.ParentIndex] + "/" + h.Slug
		}
		ix.paths[fullPaths[i]] = i
		ix.slugs[h.Slug] = i
	}
	return ix
}

// FullPath returns the cached ancestor path of heading i.
func (ix *Index) FullPath(i int) string {
	return doctree.FullPath(ix.headings, i)
}

// BySlug looks a heading up by its flat slug.
func (ix *Index) BySlug(slug string) (int, bool) {
	i, ok := ix.slugs[slug]
	return i, ok
}

// Resolve maps a reference like "overview/setup/step-2" to a heading index.
// The exact path is tried first; each segment then falls back to
// disambiguation-suffix matching (a bare "step" matches a lone "step-1").
func (ix *Index) Resolve(ref string) (int, *Failure) {
	if len(ix.headings) == 0 {
		return -1, &Failure{Reason: mderrors.ReasonEmptyDocument, Segment: ref}
	}
	norm := slugpath.Normalize(ref)
	segs := slugpath.Split(norm)
	if len(segs) == 0 {
		return -1, &Failure{Reason: mderrors.ReasonNoSuchSegment, Segment: ref}
	}

	if i, ok := ix.paths[norm]; ok {
		return i, nil
	}

	cur := -1
	var matched []string
	for si, seg := range segs {
		next, fail := ix.matchSegment(cur, seg)
		if fail == nil {
			cur = next
			matched = append(matched, ix.headings[next].Slug)
			continue
		}
		// A reference may start below the document root ("auth/oauth" for
		// a heading whose full path is "overview/auth/oauth"). If the first
		// segment names a unique slug anywhere, restart the walk there.
		if si == 0 {
			if i, ok := ix.slugs[seg]; ok {
				cur = i
				matched = append(matched, ix.headings[i].Slug)
				continue
			}
		}
		fail.PartialMatch = len(matched) > 0
		fail.MatchedPrefix = strings.Join(matched, "/")
		if fail.Reason == mderrors.ReasonNoSuchSegment {
			fail.Suggestions = ix.suggest(cur)
		}
		return -1, fail
	}
	return cur, nil
}

// matchSegment finds seg among the children of parent, exact slug first, then
// by disambiguation suffix.
func (ix *Index) matchSegment(parent int, seg string) (int, *Failure) {
	var suffixed []int
	for _, c := range ix.children[parent] {
		slug := ix.headings[c].Slug
		if slug == seg {
			return c, nil
		}
		if isSuffixedForm(slug, seg) {
			suffixed = append(suffixed, c)
		}
	}
	switch len(suffixed) {
	case 0:
		return -1, &Failure{Reason: mderrors.ReasonNoSuchSegment, Segment: seg}
	case 1:
		return suffixed[0], nil
	default:
		candidates := make([]string, len(suffixed))
		for i, c := range suffixed {
			candidates[i] = ix.headings[c].Slug
		}
		return -1, &Failure{
			Reason:     mderrors.ReasonAmbiguous,
			Segment:    seg,
			Candidates: candidates,
		}
	}
}

// suggest returns up to maxSuggestions child slugs of the last matched
// ancestor, sorted for stable error messages.
func (ix *Index) suggest(parent int) []string {
	kids := ix.children[parent]
	slugs := make([]string, 0, len(kids))
	for _, c := range kids {
		slugs = append(slugs, ix.headings[c].Slug)
	}
	sort.Strings(slugs)
	if len(slugs) > maxSuggestions {
		slugs = slugs[:maxSuggestions]
	}
	return slugs
}

// isSuffixedForm reports whether slug is seg plus a numeric disambiguation
// suffix ("step-2" for "step").
func isSuffixedForm(slug, seg string) bool {
	rest, ok := strings.CutPrefix(slug, seg+"-")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
