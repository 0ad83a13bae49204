// Package docstore owns one structural record per document path: it parses
// at most once per (path, content-hash) pair, serves heading/TOC/slug-index
// lookups from the cached record, and tells interested parties when a
// document changed. The cache is a pure performance layer; everything it
// holds is rebuildable from the source files.
package docstore

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"

	mderrors "github.com/Blakeem/mdstore/internal/errors"
	"github.com/Blakeem/mdstore/internal/metrics"
	"github.com/Blakeem/mdstore/internal/parser"
)

// DefaultCapacity bounds the record cache when no capacity is configured.
// Fifty parsed documents keeps a typical docs tree fully resident while
// capping worst-case memory at a few MB of heading lists.
const DefaultCapacity = 50

// Manager produces and serves structural records, bounded by an LRU over
// document paths. All lookups and rebuilds for a path serialize through the
// manager; published records are immutable, so readers share them freely.
type Manager struct {
	mu       sync.Mutex
	src      *Source
	log      *slog.Logger
	met      *metrics.Metrics
	capacity int
	maxHead  int

	order    *list.List // most recently used at the front
	entries  map[string]*list.Element
	notifier *Notifier
}

type cacheEntry struct {
	path string
	rec  *Record
}

// NewManager creates a document cache over src. capacity <= 0 selects
// DefaultCapacity; maxHeadings <= 0 disables the pathological-input bound.
func NewManager(src *Source, capacity, maxHeadings int, log *slog.Logger, met *metrics.Metrics) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		src:      src,
		log:      log,
		met:      met,
		capacity: capacity,
		maxHead:  maxHeadings,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		notifier: newNotifier(),
	}
}

// Subscribe registers a change listener; it fires with the document path on
// every reparse or explicit invalidation.
func (m *Manager) Subscribe(fn func(path string)) string { return m.notifier.Subscribe(fn) }

// Unsubscribe removes a change listener.
func (m *Manager) Unsubscribe(id string) { m.notifier.Unsubscribe(id) }

// Len returns the number of cached records.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// GetDocument returns the structural record for path, rebuilding it when the
// file changed underneath. A cached record is served as long as the file's
// mtime is unchanged; a touched file with an identical content hash keeps its
// parse (and revision) and only refreshes the mtime.
func (m *Manager) GetDocument(path string) (*Record, error) {
	path, err := m.src.CleanPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	rec, stale, err := m.getLocked(path)
	m.mu.Unlock()

	for _, p := range stale {
		m.notifier.Notify(p)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// getLocked implements the lookup/rebuild path. It returns the paths whose
// cached addresses are now stale so the caller can notify outside the lock:
// the requested path on any fresh build (the record may have been evicted and
// the file changed while it was out of the cache, which a subscriber cannot
// tell apart from a first load), plus every path evicted to make room.
// Over-notifying on a first load is benign; a missed notification would leave
// stale addresses live.
func (m *Manager) getLocked(path string) (*Record, []string, error) {
	el, ok := m.entries[path]
	if ok {
		entry := el.Value.(*cacheEntry)
		mt, err := m.src.Stat(path)
		if err != nil {
			// File vanished: the record is stale and its addresses with it.
			m.removeLocked(path)
			return nil, []string{path}, err
		}
		if mt.Equal(entry.rec.ModTime) {
			m.met.CacheHits.WithLabelValues(metrics.CacheDocuments).Inc()
			m.order.MoveToFront(el)
			return entry.rec, nil, nil
		}
	}
	m.met.CacheMisses.WithLabelValues(metrics.CacheDocuments).Inc()

	data, mt, err := m.src.Read(path)
	if err != nil {
		if ok {
			m.removeLocked(path)
			return nil, []string{path}, err
		}
		return nil, nil, err
	}
	hash := contentHashHex(data)

	if ok {
		entry := el.Value.(*cacheEntry)
		if entry.rec.ContentHash == hash {
			// Touched but identical: no reparse, no notification.
			entry.rec = entry.rec.withModTime(mt)
			m.order.MoveToFront(el)
			return entry.rec, nil, nil
		}
	}

	doc, err := parser.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.met.DocumentParses.Inc()
	if m.maxHead > 0 && len(doc.Headings) > m.maxHead {
		return nil, nil, &mderrors.TooManyHeadingsError{Path: path, Count: len(doc.Headings), Limit: m.maxHead}
	}

	rec := newRecord(path, string(data), doc, mt, hash)
	if ok {
		el.Value.(*cacheEntry).rec = rec
		m.order.MoveToFront(el)
		return rec, []string{path}, nil
	}

	m.entries[path] = m.order.PushFront(&cacheEntry{path: path, rec: rec})
	stale := append([]string{path}, m.evictLocked()...)
	return rec, stale, nil
}

// evictLocked drops least-recently-used records until the cache fits its
// capacity and returns the evicted paths. Eviction must propagate a change
// notification: the file can change while its record is out of the cache, and
// the rebuild that follows cannot distinguish that from a first load, so the
// addresses resolved against the evicted record have to go now. A missing
// index entry at eviction time indicates a benign race; it is logged rather
// than escalated, and the size invariant holds either way.
func (m *Manager) evictLocked() []string {
	var evicted []string
	for len(m.entries) > m.capacity {
		back := m.order.Back()
		if back == nil {
			m.log.Warn("eviction requested on empty document cache")
			return evicted
		}
		entry := back.Value.(*cacheEntry)
		if _, ok := m.entries[entry.path]; !ok {
			m.log.Warn("evicting document missing from index", "path", entry.path)
		}
		delete(m.entries, entry.path)
		m.order.Remove(back)
		evicted = append(evicted, entry.path)
		m.met.CacheEvictions.WithLabelValues(metrics.CacheDocuments).Inc()
		m.log.Debug("evicted document record", "path", entry.path)
	}
	return evicted
}

func (m *Manager) removeLocked(path string) {
	if el, ok := m.entries[path]; ok {
		delete(m.entries, path)
		m.order.Remove(el)
	}
}

// GetSectionContent returns the body of one section, consulting the record's
// dual-key content cache. Lookup failures surface as structured errors, never
// as an empty result.
func (m *Manager) GetSectionContent(path, ref string) (string, error) {
	rec, err := m.GetDocument(path)
	if err != nil {
		return "", err
	}
	body, _, fail := rec.SectionContent(ref)
	if fail != nil {
		return "", fail.Err(rec.Path, ref)
	}
	m.met.SectionReads.Inc()
	return body, nil
}

// InvalidateDocument discards the cached record for path and propagates the
// same change notification an automatic reparse would. Used after a mutation
// elsewhere writes the file.
func (m *Manager) InvalidateDocument(path string) {
	clean, err := m.src.CleanPath(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.removeLocked(clean)
	m.mu.Unlock()
	m.met.CacheInvalidations.WithLabelValues(metrics.CacheDocuments).Inc()
	m.notifier.Notify(clean)
}

// WriteDocument persists new document text through the source and invalidates
// the cached record. The mutation engine itself never touches storage; this
// is the persistence step its callers use.
//
// baseHash is the ContentHash of the record the new text was derived from.
// When non-empty, the write is rejected with a structural conflict if the
// on-disk content no longer matches, so an edit racing another writer cannot
// silently discard that writer's changes. The check and the write happen
// under the manager lock, serialized with every lookup and rebuild.
func (m *Manager) WriteDocument(path, text, baseHash string) error {
	clean, err := m.src.CleanPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if baseHash != "" {
		data, _, err := m.src.Read(clean)
		if err != nil || contentHashHex(data) != baseHash {
			m.mu.Unlock()
			return &mderrors.StructuralConflictError{
				Path:      clean,
				Operation: "write",
				Message:   "document changed since the edit was prepared",
			}
		}
	}
	err = m.src.Write(clean, []byte(text))
	if err == nil {
		m.removeLocked(clean)
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.met.CacheInvalidations.WithLabelValues(metrics.CacheDocuments).Inc()
	m.notifier.Notify(clean)
	return nil
}

func contentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
