package mutate

import (
	"github.com/Blakeem/mdstore/internal/doctree"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
)

// insertionStrategy computes where a new heading goes and at what depth,
// parameterized only by the target. Each insertion mode is its own strategy
// so further modes can be added without touching the existing ones.
type insertionStrategy interface {
	locate(headings []doctree.Heading, target, textLen int, docPath string) (at, depth int, err error)
}

var insertions = map[Operation]insertionStrategy{
	OpInsertBefore: insertBefore{},
	OpInsertAfter:  insertAfter{},
	OpAppendChild:  appendChild{},
}

// insertBefore places a sibling directly above the target's heading line.
type insertBefore struct{}

func (insertBefore) locate(headings []doctree.Heading, target, _ int, _ string) (int, int, error) {
	h := headings[target]
	return h.Start, h.Depth, nil
}

// insertAfter places a sibling past the target's whole subtree, right where
// the boundary heading (or the document end) begins.
type insertAfter struct{}

func (insertAfter) locate(headings []doctree.Heading, target, textLen int, _ string) (int, int, error) {
	h := headings[target]
	return doctree.SubtreeEnd(headings, target, textLen), h.Depth, nil
}

// appendChild places a child one level below the target, after any existing
// children.
type appendChild struct{}

func (appendChild) locate(headings []doctree.Heading, target, textLen int, docPath string) (int, int, error) {
	h := headings[target]
	if h.Depth >= 6 {
		return 0, 0, &mderrors.StructuralConflictError{
			Path:      docPath,
			Ref:       h.Slug,
			Operation: string(OpAppendChild),
			Message:   "cannot nest below a depth-6 heading",
		}
	}
	return doctree.SubtreeEnd(headings, target, textLen), h.Depth + 1, nil
}
