package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Blakeem/mdstore/internal/doctree"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
)

// documentResponse is the wire form of a structural record.
type documentResponse struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Revision    string             `json:"revision"`
	ContentHash string             `json:"content_hash"`
	ModTime     time.Time          `json:"mod_time"`
	Toc         []*doctree.TocNode `json:"toc"`
	Tasks       []taskEntry        `json:"tasks,omitempty"`
}

type taskEntry struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// handleGetDocument serves the structural view of one document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	rec, err := s.docs.GetDocument(path)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := documentResponse{
		Path:        rec.Path,
		Title:       rec.Title,
		Revision:    rec.Revision,
		ContentHash: rec.ContentHash,
		ModTime:     rec.ModTime,
		Toc:         rec.Toc,
	}
	for _, h := range rec.Tasks() {
		resp.Tasks = append(resp.Tasks, taskEntry{
			Slug:  h.Slug,
			Title: h.Title,
			Path:  doctree.FullPath(rec.Headings, h.Index),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleGetSection serves one section's body text.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	doc := r.URL.Query().Get("doc")
	ref := r.URL.Query().Get("ref")
	if doc == "" || ref == "" {
		jsonError(w, "doc and ref query parameters are required", http.StatusBadRequest)
		return
	}

	body, err := s.docs.GetSectionContent(doc, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"document": doc,
		"ref":      ref,
		"body":     body,
	})
}

// handleInvalidate drops a document's cached record. The address cache follows
// through the change notification.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		jsonError(w, "body must be JSON with a path field", http.StatusBadRequest)
		return
	}

	s.docs.InvalidateDocument(req.Path)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"invalidated": req.Path})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError maps the failure taxonomy onto HTTP statuses and carries the
// structured lookup context through to the client.
func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}

	var snf *mderrors.SectionNotFoundError
	var amb *mderrors.AmbiguousSectionError
	switch {
	case errors.As(err, &snf):
		body["reason"] = snf.Reason
		if snf.PartialMatch {
			body["matched_prefix"] = snf.MatchedPrefix
		}
		if len(snf.Suggestions) > 0 {
			body["suggestions"] = snf.Suggestions
		}
	case errors.As(err, &amb):
		body["segment"] = amb.Segment
		body["candidates"] = amb.Candidates
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mderrors.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, mderrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mderrors.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, mderrors.ErrStructuralConflict):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
