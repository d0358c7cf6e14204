package sidepost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

func newTestStore(t testing.TB) *record.Store {
	t.Helper()
	name := []string{"name"}
	schema, err := record.NewSchema(
		&record.Model{Name: "state", Attributes: name},
		&record.Model{Name: "author", Attributes: name, Relationships: []record.Relationship{
			{Name: "state", Kind: record.BelongsTo},
			{Name: "genres", Kind: record.HasMany},
			{Name: "posts", Kind: record.HasMany},
		}},
		&record.Model{Name: "user", Attributes: name},
		&record.Model{Name: "tag", Attributes: name, Relationships: []record.Relationship{
			{Name: "creator", Kind: record.BelongsTo, Target: "user"},
			{Name: "subject", Kind: record.BelongsTo, Target: "author"},
		}},
		&record.Model{Name: "genre", Attributes: name},
		&record.Model{Name: "post", Attributes: []string{"title", "publishedDate"}, Relationships: []record.Relationship{
			{Name: "genre", Kind: record.BelongsTo},
			{Name: "author", Kind: record.BelongsTo},
			{Name: "asyncFalseAuthor", Kind: record.BelongsTo, Target: "author"},
			{Name: "tags", Kind: record.HasMany},
		}},
	)
	require.NoError(t, err)
	return record.NewStore(schema)
}

func create(t testing.TB, store *record.Store, model string, values map[string]any) *record.Record {
	t.Helper()
	r, err := store.CreateRecord(model, values)
	require.NoError(t, err)
	return r
}

func serializeJSON(t *testing.T, root *record.Record, opts Options) string {
	t.Helper()
	doc, err := NewSerializer(naming.Default(), nil).Serialize(root, opts)
	require.NoError(t, err)
	b, err := doc.Marshal()
	require.NoError(t, err)
	return string(b)
}

// pushJSON loads a server document into the store and returns its primary record.
func pushJSON(t *testing.T, store *record.Store, raw string) *record.Record {
	t.Helper()
	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	r, err := Push(store, doc)
	require.NoError(t, err)
	return r
}

const postWithAuthor = `{
	"data": {
		"type": "posts", "id": "1",
		"relationships": {"author": {"data": {"type": "authors", "id": "2"}}}
	},
	"included": [
		{"type": "authors", "id": "2", "attributes": {"name": "Joe Author"}}
	]
}`

const postWithTags = `{
	"data": {
		"type": "posts", "id": "1",
		"relationships": {"tags": {"data": [
			{"type": "tags", "id": "2"},
			{"type": "tags", "id": "3"},
			{"type": "tags", "id": "4"}
		]}}
	},
	"included": [
		{"type": "tags", "id": "2", "attributes": {"name": "tag1"}},
		{"type": "tags", "id": "3", "attributes": {"name": "tag2"}},
		{"type": "tags", "id": "4", "attributes": {"name": "tag3"}}
	]
}`

func tagsOf(t *testing.T, r *record.Record) []*record.Record {
	t.Helper()
	tags, err := r.HasMany("tags")
	require.NoError(t, err)
	return tags
}
