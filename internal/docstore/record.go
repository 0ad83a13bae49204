package docstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Blakeem/mdstore/internal/doctree"
	"github.com/Blakeem/mdstore/internal/matcher"
	"github.com/Blakeem/mdstore/internal/parser"
	"github.com/Blakeem/mdstore/internal/slugpath"
)

// TasksSlug is the reserved heading slug whose descendants are tasks.
const TasksSlug = "tasks"

// Record is the cached structural form of one document: identity (path,
// title, mtime, hash, revision), structure (headings, TOC, hierarchy index),
// the flat slug index, and a lazily populated section-content cache. Records
// are replaced wholesale on change, never patched.
type Record struct {
	Path        string
	Title       string
	Revision    string // ULID, new on every rebuild
	ModTime     time.Time
	ContentHash string
	Text        string

	Headings  []doctree.Heading
	Toc       []*doctree.TocNode
	SlugIndex map[string]int
	Hierarchy *matcher.Index

	sections *sectionCache
}

// sectionCache is the dual-keyed section body cache. Entries appear lazily on
// first read and die with the record; they are never patched.
type sectionCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newRecord(path, text string, doc *doctree.Document, modTime time.Time, hash string) *Record {
	slugIndex := make(map[string]int, len(doc.Headings))
	title := ""
	for i, h := range doc.Headings {
		slugIndex[h.Slug] = i
		if title == "" && h.Depth == 1 {
			title = h.Title
		}
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	return &Record{
		Path:        path,
		Title:       title,
		Revision:    newRevision(),
		ModTime:     modTime,
		ContentHash: hash,
		Text:        text,
		Headings:    doc.Headings,
		Toc:         doc.Toc,
		SlugIndex:   slugIndex,
		Hierarchy:   matcher.Build(doc.Headings),
		sections:    &sectionCache{m: make(map[string]string)},
	}
}

// BuildRecord parses text into a standalone structural record, outside any
// manager. Useful for working on document text that is not (or not yet) on
// disk, e.g. previewing a mutation.
func BuildRecord(path string, text []byte) (*Record, error) {
	doc, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return newRecord(path, string(text), doc, time.Time{}, contentHashHex(text)), nil
}

// withModTime returns a copy of the record carrying a fresh mtime. Used when
// a file was touched but its content hash is unchanged, so the parse (and the
// section cache) can be reused instead of rebuilt.
func (r *Record) withModTime(mt time.Time) *Record {
	c := *r
	c.ModTime = mt
	return &c
}

// ResolveRef maps a section reference (flat slug or hierarchical path) to a
// heading index. The flat slug index answers single-segment lookups directly;
// everything else goes through the hierarchy index.
func (r *Record) ResolveRef(ref string) (int, *matcher.Failure) {
	norm := slugpath.Normalize(ref)
	if !strings.Contains(norm, "/") {
		if i, ok := r.SlugIndex[norm]; ok {
			return i, nil
		}
	}
	return r.Hierarchy.Resolve(norm)
}

// SectionContent returns the rendered body of the referenced section: the
// text from past the heading line to the boundary heading. The result is
// cached under both the full hierarchical path and the flat leaf slug, so the
// next read under either addressing style is a map hit.
func (r *Record) SectionContent(ref string) (string, bool, *matcher.Failure) {
	norm := slugpath.Normalize(ref)

	r.sections.mu.Lock()
	if body, ok := r.sections.m[norm]; ok {
		r.sections.mu.Unlock()
		return body, true, nil
	}
	r.sections.mu.Unlock()

	idx, fail := r.ResolveRef(norm)
	if fail != nil {
		return "", false, fail
	}
	h := r.Headings[idx]
	end := doctree.SubtreeEnd(r.Headings, idx, len(r.Text))
	body := strings.TrimSpace(r.Text[h.BodyStart:end])

	r.sections.mu.Lock()
	r.sections.m[doctree.FullPath(r.Headings, idx)] = body
	r.sections.m[h.Slug] = body
	r.sections.mu.Unlock()

	return body, false, nil
}

// TasksRoot returns the index of the reserved tasks heading, if present.
func (r *Record) TasksRoot() (int, bool) {
	i, ok := r.SlugIndex[TasksSlug]
	return i, ok
}

// Tasks returns the headings sitting strictly below the reserved tasks
// heading. Task identity is structural: it is the parent relationship that
// makes a heading a task, never its name.
func (r *Record) Tasks() []doctree.Heading {
	root, ok := r.TasksRoot()
	if !ok {
		return nil
	}
	var tasks []doctree.Heading
	for i := range r.Headings {
		if doctree.IsDescendant(r.Headings, i, root) {
			tasks = append(tasks, r.Headings[i])
		}
	}
	return tasks
}
