// Package doctree holds the structural model of a parsed markdown document:
// the ordered heading list and its tree projection. A parse always produces a
// fresh heading list; nothing here is patched in place.
package doctree

import (
	"strconv"
	"strings"

	"github.com/Blakeem/mdstore/internal/slugpath"
)

// Heading is one entry in a document's ordered heading list. Immutable once
// produced by a parse.
type Heading struct {
	Index       int    // Ordinal position in the document
	Depth       int    // 1-6
	Title       string // Raw heading text
	Slug        string // Unique within the document (duplicate titles get -1, -2, ...)
	ParentIndex int    // Index of the nearest enclosing heading of lesser depth, -1 for none
	Line        int    // 1-based source line of the heading marker
	Start       int    // Byte offset of the start of the heading line
	BodyStart   int    // Byte offset just past the heading line(s)
}

// TocNode is the tree projection of the heading list. Derived, never mutated
// independently: rebuilding the headings rebuilds the TOC.
type TocNode struct {
	Index    int        `json:"index"`
	Depth    int        `json:"depth"`
	Title    string     `json:"title"`
	Slug     string     `json:"slug"`
	Children []*TocNode `json:"children,omitempty"`
}

// Document is a parse result: headings plus their TOC form.
type Document struct {
	Headings []Heading
	Toc      []*TocNode
}

// BuildToc projects the heading list into parent->children tree form.
func BuildToc(headings []Heading) []*TocNode {
	nodes := make([]*TocNode, len(headings))
	for i, h := range headings {
		nodes[i] = &TocNode{Index: h.Index, Depth: h.Depth, Title: h.Title, Slug: h.Slug}
	}
	var roots []*TocNode
	for i, h := range headings {
		if h.ParentIndex < 0 {
			roots = append(roots, nodes[i])
		} else {
			p := nodes[h.ParentIndex]
			p.Children = append(p.Children, nodes[i])
		}
	}
	return roots
}

// FullPath returns the slash-joined ancestor slug path of heading i.
func FullPath(headings []Heading, i int) string {
	var segs []string
	for j := i; j >= 0; j = headings[j].ParentIndex {
		segs = append(segs, headings[j].Slug)
	}
	for l, r := 0, len(segs)-1; l < r; l, r = l+1, r-1 {
		segs[l], segs[r] = segs[r], segs[l]
	}
	return strings.Join(segs, "/")
}

// SubtreeEnd returns the byte offset where heading i's subtree ends: the start
// of the next heading of equal-or-lesser depth (the boundary heading), or the
// document length. The boundary heading itself is never part of the subtree.
func SubtreeEnd(headings []Heading, i, textLen int) int {
	for j := i + 1; j < len(headings); j++ {
		if headings[j].Depth <= headings[i].Depth {
			return headings[j].Start
		}
	}
	return textLen
}

// BodyEnd returns the byte offset where heading i's immediate body ends: the
// start of the next heading of any depth, or the document length. Body-only
// edits use this so child sections stay untouched.
func BodyEnd(headings []Heading, i, textLen int) int {
	if i+1 < len(headings) {
		return headings[i+1].Start
	}
	return textLen
}

// IsDescendant reports whether heading i sits strictly below heading ancestor.
func IsDescendant(headings []Heading, i, ancestor int) bool {
	for j := headings[i].ParentIndex; j >= 0; j = headings[j].ParentIndex {
		if j == ancestor {
			return true
		}
	}
	return false
}

// UniqueSlug returns title's slug, suffixed with -1, -2, ... when the base
// form is already taken. seen tracks how many times each base was handed out.
func UniqueSlug(title string, seen map[string]int) string {
	base := slugpath.Slugify(title)
	n := seen[base]
	seen[base] = n + 1
	if n == 0 {
		return base
	}
	// The suffixed form could itself collide with a literal title; burn
	// candidates until a free one appears.
	for {
		candidate := base + "-" + strconv.Itoa(n)
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
		n++
	}
}
