package api

import (
	"encoding/json"
	"net/http"

	"github.com/Blakeem/mdstore/internal/addressing"
	"github.com/Blakeem/mdstore/internal/mutate"
)

type editRequest struct {
	Doc       string `json:"doc"`
	Reference string `json:"reference"`
	Operation string `json:"operation"`
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
}

// handleEditSection applies one mutation and persists the result. The write
// goes through the document cache so invalidation and change notification
// happen in one place.
func (s *Server) handleEditSection(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Doc == "" || req.Reference == "" || req.Operation == "" {
		jsonError(w, "doc, reference and operation are required", http.StatusBadRequest)
		return
	}

	rec, err := s.docs.GetDocument(req.Doc)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.engine.Apply(rec, req.Reference, mutate.Operation(req.Operation), mutate.Payload{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.docs.WriteDocument(rec.Path, res.Text, rec.ContentHash); err != nil {
		writeError(w, err)
		return
	}
	s.met.SectionMutations.Inc()

	// Reload for the post-write revision.
	fresh, err := s.docs.GetDocument(rec.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document":      fresh.Path,
		"revision":      fresh.Revision,
		"operation":     req.Operation,
		"heading_index": res.HeadingIndex,
		"depth":         res.Depth,
	})
}

type resolveRequest struct {
	Raw        string `json:"raw"`
	Kind       string `json:"kind"`
	ContextDoc string `json:"context_doc,omitempty"`
}

// handleResolveAddress resolves a raw address string into its validated form.
func (s *Server) handleResolveAddress(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Raw == "" {
		jsonError(w, "raw is required", http.StatusBadRequest)
		return
	}
	kind := addressing.Kind(req.Kind)
	if req.Kind == "" {
		kind = addressing.KindSection
	}

	addr, err := s.resolver.Resolve(req.Raw, kind, req.ContextDoc)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(addr)
}
