package mutate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakeem/mdstore/internal/docstore"
	mderrors "github.com/Blakeem/mdstore/internal/errors"
)

const editDoc = `# Guide

guide intro

## Setup

setup body

### Details

detail body

## Usage

usage body
`

func record(t *testing.T, text string) *docstore.Record {
	t.Helper()
	rec, err := docstore.BuildRecord("guide.md", []byte(text))
	require.NoError(t, err)
	return rec
}

func slugs(r *Result) []string {
	out := make([]string, len(r.Headings))
	for i, h := range r.Headings {
		out[i] = h.Slug
	}
	return out
}

func TestApply_Replace(t *testing.T) {
	e := NewEngine(0)
	res, err := e.Apply(record(t, editDoc), "setup", OpReplace, Payload{Body: "replaced body"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.HeadingIndex)
	assert.Equal(t, 2, res.Depth)
	assert.Contains(t, res.Text, "replaced body")
	assert.NotContains(t, res.Text, "setup body")
	// Body-only edits leave the child section alone.
	assert.Contains(t, res.Text, "detail body")
	assert.Equal(t, []string{"guide", "setup", "details", "usage"}, slugs(res))
}

func TestApply_AppendAndPrepend(t *testing.T) {
	e := NewEngine(0)

	res, err := e.Apply(record(t, editDoc), "setup", OpAppend, Payload{Body: "appended"})
	require.NoError(t, err)
	body := between(t, res.Text, "## Setup", "### Details")
	require.True(t, strings.Index(body, "setup body") < strings.Index(body, "appended"),
		"append must land after the existing body, got %q", body)

	res, err = e.Apply(record(t, editDoc), "setup", OpPrepend, Payload{Body: "prepended"})
	require.NoError(t, err)
	body = between(t, res.Text, "## Setup", "### Details")
	require.True(t, strings.Index(body, "prepended") < strings.Index(body, "setup body"),
		"prepend must land before the existing body, got %q", body)
}

func TestApply_InsertBefore(t *testing.T) {
	e := NewEngine(0)
	res, err := e.Apply(record(t, editDoc), "usage", OpInsertBefore, Payload{Title: "Checks", Body: "check body"})
	require.NoError(t, err)

	assert.Equal(t, []string{"guide", "setup", "details", "checks", "usage"}, slugs(res))
	assert.Equal(t, 3, res.HeadingIndex)
	assert.Equal(t, 2, res.Depth)
}

func TestApply_InsertAfterSkipsSubtree(t *testing.T) {
	e := NewEngine(0)
	// Inserting after Setup must clear its Details child, landing between
	// the subtree and Usage.
	res, err := e.Apply(record(t, editDoc), "setup", OpInsertAfter, Payload{Title: "Checks"})
	require.NoError(t, err)

	assert.Equal(t, []string{"guide", "setup", "details", "checks", "usage"}, slugs(res))
	assert.Equal(t, 2, res.Depth)
	assert.Equal(t, 3, res.HeadingIndex)
}

func TestApply_AppendChild(t *testing.T) {
	e := NewEngine(0)
	res, err := e.Apply(record(t, editDoc), "setup", OpAppendChild, Payload{Title: "Extras", Body: "extra body"})
	require.NoError(t, err)

	assert.Equal(t, []string{"guide", "setup", "details", "extras", "usage"}, slugs(res))
	assert.Equal(t, 3, res.Depth, "a child sits one level below its parent")
	extras := res.Headings[3]
	assert.Equal(t, 1, extras.ParentIndex, "the new heading must parent to the target")
}

func TestApply_AppendChildDepthLimit(t *testing.T) {
	deep := "# A\n## B\n### C\n#### D\n##### E\n###### F\n\nbody\n"
	e := NewEngine(0)
	_, err := e.Apply(record(t, deep), "f", OpAppendChild, Payload{Title: "G"})
	assert.ErrorIs(t, err, mderrors.ErrStructuralConflict)
}

func TestApply_RemovePreservesBoundary(t *testing.T) {
	// Removing B from [A(d1), B(d2), C(d2)] must leave [A, C]: C is the
	// boundary of the removed range, not part of it.
	doc := "# A\n\na body\n\n## B\n\nb body\n\n## C\n\nc body\n"
	e := NewEngine(0)
	res, err := e.Apply(record(t, doc), "b", OpRemove, Payload{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, slugs(res))
	assert.Equal(t, -1, res.HeadingIndex)
	assert.Equal(t, 2, res.Depth)
	assert.Contains(t, res.Text, "c body")
	assert.NotContains(t, res.Text, "b body")
}

func TestApply_RemoveTakesSubtree(t *testing.T) {
	e := NewEngine(0)
	res, err := e.Apply(record(t, editDoc), "setup", OpRemove, Payload{})
	require.NoError(t, err)

	assert.Equal(t, []string{"guide", "usage"}, slugs(res))
	assert.NotContains(t, res.Text, "detail body", "the subtree goes with its root")
	assert.Contains(t, res.Text, "usage body", "the boundary section must survive")
}

func TestApply_TargetNotFoundPropagatesStructuredFailure(t *testing.T) {
	e := NewEngine(0)
	_, err := e.Apply(record(t, editDoc), "guide/nope", OpReplace, Payload{Body: "x"})
	require.Error(t, err)

	var snf *mderrors.SectionNotFoundError
	require.ErrorAs(t, err, &snf)
	assert.Equal(t, "guide", snf.MatchedPrefix)
	assert.Contains(t, snf.Suggestions, "setup")
	assert.Contains(t, snf.Suggestions, "usage")
}

func TestApply_InsertWithoutTitle(t *testing.T) {
	e := NewEngine(0)
	_, err := e.Apply(record(t, editDoc), "setup", OpInsertAfter, Payload{Body: "no title"})
	assert.ErrorIs(t, err, mderrors.ErrStructuralConflict)
}

func TestApply_UnknownOperation(t *testing.T) {
	e := NewEngine(0)
	_, err := e.Apply(record(t, editDoc), "setup", Operation("explode"), Payload{})
	assert.ErrorIs(t, err, mderrors.ErrStructuralConflict)
}

func TestApply_HeadingBoundAfterEdit(t *testing.T) {
	e := NewEngine(4)
	_, err := e.Apply(record(t, editDoc), "setup", OpAppendChild, Payload{Title: "One Too Many"})
	assert.ErrorIs(t, err, mderrors.ErrStructuralConflict)
}

func TestApply_ResultReparsesCleanly(t *testing.T) {
	// The returned text must round-trip: building a record from it yields
	// the same headings the result reports.
	e := NewEngine(0)
	res, err := e.Apply(record(t, editDoc), "setup", OpAppendChild, Payload{Title: "Extras", Body: "x"})
	require.NoError(t, err)

	rec, err := docstore.BuildRecord("guide.md", []byte(res.Text))
	require.NoError(t, err)
	assert.Equal(t, res.Headings, rec.Headings)
}

func TestApply_NoTrailingNewlineInsert(t *testing.T) {
	e := NewEngine(0)
	res, err := e.Apply(record(t, "# A\n\nbody with no trailing newline"), "a", OpAppendChild, Payload{Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, slugs(res))
	assert.Equal(t, 1, res.HeadingIndex)
}

func between(t *testing.T, text, from, to string) string {
	t.Helper()
	i := strings.Index(text, from)
	j := strings.Index(text, to)
	require.True(t, i >= 0 && j > i, "expected %q before %q in %q", from, to, text)
	return text[i:j]
}
