package addressing

import (
	"strings"

	"github.com/Blakeem/mdstore/internal/docstore"
	"github.com/Blakeem/mdstore/internal/doctree"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
	"github.com/Blakeem/mdstore/internal/slugpath"
)

// Resolver turns raw address strings into Addresses, consulting the cache
// first and the document cache's structural records on a miss. It is
// constructed with its dependencies; nothing here reaches for globals.
type Resolver struct {
	cache *Cache
	docs  *docstore.Manager
}

// NewResolver wires a resolver to its caches.
func NewResolver(cache *Cache, docs *docstore.Manager) *Resolver {
	return &Resolver{cache: cache, docs: docs}
}

// Resolve dispatches on kind. contextDoc supplies the document for section
// and task references written without one ("overview", "#overview", "a/b");
// the combined "doc.md#section" form carries its own.
func (r *Resolver) Resolve(raw string, kind Kind, contextDoc string) (Address, error) {
	switch kind {
	case KindDocument:
		return r.ResolveDocument(raw)
	case KindSection:
		return r.ResolveSection(raw, contextDoc)
	case KindTask:
		return r.ResolveTask(raw, contextDoc)
	default:
		return Address{}, mderrors.NewInvalidAddressError(raw, "unknown address kind "+string(kind))
	}
}

// ResolveDocument validates a document path and confirms the document exists.
func (r *Resolver) ResolveDocument(raw string) (Address, error) {
	doc, sec := splitCombined(raw)
	if sec != "" {
		return Address{}, mderrors.NewInvalidAddressError(raw, "document address must not carry a section")
	}
	rec, err := r.docs.GetDocument(doc)
	if err != nil {
		return Address{}, err
	}
	addr := Address{Kind: KindDocument, DocumentPath: rec.Path, HeadingIndex: -1}
	r.cache.Put(addr.Key(), addr)
	return addr, nil
}

// ResolveSection resolves any of the accepted section forms — bare slug,
// "#slug", hierarchical path, "doc.md#section" — to one heading. All four
// normalize into the same slug space, so equal targets yield equal addresses.
func (r *Resolver) ResolveSection(raw, contextDoc string) (Address, error) {
	doc, ref, err := r.splitSection(raw, contextDoc)
	if err != nil {
		return Address{}, err
	}

	if addr, ok := r.cache.Get(cacheKey(KindSection, doc, ref)); ok {
		return addr, nil
	}

	rec, idx, err := r.resolveHeading(doc, ref, raw)
	if err != nil {
		return Address{}, err
	}
	addr := Address{
		Kind:         KindSection,
		DocumentPath: rec.Path,
		SlugPath:     doctree.FullPath(rec.Headings, idx),
		HeadingIndex: idx,
	}
	// Cache under the normalized request key and the canonical key, so both
	// the short form and the full path hit next time.
	r.cache.Put(cacheKey(KindSection, doc, ref), addr)
	r.cache.Put(addr.Key(), addr)
	return addr, nil
}

// ResolveTask resolves a section reference and additionally requires the
// heading to sit strictly below the reserved tasks heading. The constraint is
// structural; a heading does not become a task by being named like one.
func (r *Resolver) ResolveTask(raw, contextDoc string) (Address, error) {
	doc, ref, err := r.splitSection(raw, contextDoc)
	if err != nil {
		return Address{}, err
	}

	if addr, ok := r.cache.Get(cacheKey(KindTask, doc, ref)); ok {
		return addr, nil
	}

	rec, idx, err := r.resolveHeading(doc, ref, raw)
	if err != nil {
		return Address{}, err
	}
	root, ok := rec.TasksRoot()
	if !ok {
		return Address{}, mderrors.NewInvalidAddressError(raw, "document has no tasks section")
	}
	if !doctree.IsDescendant(rec.Headings, idx, root) {
		return Address{}, mderrors.NewInvalidAddressError(raw, "section is not under the tasks heading")
	}
	addr := Address{
		Kind:         KindTask,
		DocumentPath: rec.Path,
		SlugPath:     doctree.FullPath(rec.Headings, idx),
		HeadingIndex: idx,
	}
	r.cache.Put(cacheKey(KindTask, doc, ref), addr)
	r.cache.Put(addr.Key(), addr)
	return addr, nil
}

func (r *Resolver) resolveHeading(doc, ref, raw string) (*docstore.Record, int, error) {
	rec, err := r.docs.GetDocument(doc)
	if err != nil {
		return nil, -1, err
	}
	idx, fail := rec.ResolveRef(ref)
	if fail != nil {
		return nil, -1, fail.Err(rec.Path, ref)
	}
	return rec, idx, nil
}

// splitSection extracts (document, normalized section ref) from a raw section
// address, falling back to contextDoc for the bare forms.
func (r *Resolver) splitSection(raw, contextDoc string) (string, string, error) {
	doc, sec := splitCombined(raw)
	if doc == "" {
		doc = strings.TrimSpace(contextDoc)
	}
	if doc == "" {
		return "", "", mderrors.NewInvalidAddressError(raw, "section address needs a document (use doc.md#section or pass a context document)")
	}
	ref := slugpath.Normalize(sec)
	if ref == "" {
		return "", "", mderrors.NewInvalidAddressError(raw, "empty section reference")
	}
	return doc, ref, nil
}

// splitCombined splits "doc.md#section" into its parts. A raw value without
// '#' is a section reference when it does not name a markdown file, a
// document path when it does.
func splitCombined(raw string) (doc, sec string) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "#"); i >= 0 {
		return strings.TrimSpace(raw[:i]), raw[i+1:]
	}
	if strings.HasSuffix(raw, ".md") {
		return raw, ""
	}
	return "", raw
}
