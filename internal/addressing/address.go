// Package addressing resolves raw address strings into validated Address
// values and caches the results in a bounded, access-ordered LRU. The cache
// is invalidated document-by-document when the document cache reports a
// change; that notification is the only coordination between the two caches.
package addressing

// Kind discriminates the three address variants.
type Kind string

const (
	KindDocument Kind = "document"
	KindSection  Kind = "section"
	KindTask     Kind = "task"
)

// Address is a resolved, validated reference. Addresses are value objects:
// two with equal fields are interchangeable.
type Address struct {
	Kind         Kind   `json:"kind"`
	DocumentPath string `json:"document_path"`
	SlugPath     string `json:"slug_path,omitempty"`     // Full hierarchical path, empty for documents
	HeadingIndex int    `json:"heading_index"`           // -1 for documents
}

// Key is the cache key for the resolved form.
func (a Address) Key() string {
	return cacheKey(a.Kind, a.DocumentPath, a.SlugPath)
}

func cacheKey(kind Kind, doc, ref string) string {
	return string(kind) + "\x00" + doc + "\x00" + ref
}
