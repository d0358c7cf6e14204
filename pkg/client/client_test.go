package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sidepost/pkg/mockserver"
	"github.com/getmockd/sidepost/pkg/record"
)

func newSchema(t *testing.T) *record.Schema {
	t.Helper()
	schema, err := record.NewSchema(
		&record.Model{Name: "author", Attributes: []string{"name"}},
		&record.Model{Name: "tag", Attributes: []string{"name"}},
		&record.Model{Name: "post", Attributes: []string{"title"}, Relationships: []record.Relationship{
			{Name: "author", Kind: record.BelongsTo},
			{Name: "tags", Kind: record.HasMany},
		}},
	)
	require.NoError(t, err)
	return schema
}

// newBackend starts a mock server for posts, authors and tags.
func newBackend(t *testing.T, posts ...mockserver.SeedRecord) (*httptest.Server, *mockserver.Store) {
	t.Helper()
	store := mockserver.NewStore(mockserver.WithStrictTypes())
	require.NoError(t, store.Register(mockserver.CollectionConfig{Type: "posts", Seed: posts}))
	require.NoError(t, store.Register(mockserver.CollectionConfig{Type: "authors", Seed: []mockserver.SeedRecord{
		{ID: "1", Attributes: map[string]any{"name": "Joe Author"}},
	}}))
	require.NoError(t, store.Register(mockserver.CollectionConfig{Type: "tags", Seed: []mockserver.SeedRecord{
		{ID: "1", Attributes: map[string]any{"name": "tag1"}},
		{ID: "2", Attributes: map[string]any{"name": "tag2"}},
	}}))

	srv := httptest.NewServer(mockserver.NewServer(store))
	t.Cleanup(srv.Close)
	return srv, store
}

func newRecord(t *testing.T, store *record.Store, model string, values map[string]any) *record.Record {
	t.Helper()
	r, err := store.CreateRecord(model, values)
	require.NoError(t, err)
	return r
}

func names(t *testing.T, records []*record.Record) []string {
	t.Helper()
	out := make([]string, len(records))
	for i, r := range records {
		v, _ := r.Get("name")
		out[i], _ = v.(string)
	}
	return out
}

func ids(records []*record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func tagsOf(t *testing.T, r *record.Record) []*record.Record {
	t.Helper()
	tags, err := r.HasMany("tags")
	require.NoError(t, err)
	return tags
}

func TestSave_CreateNested(t *testing.T) {
	srv, _ := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)

	post := newRecord(t, store, "post", map[string]any{"title": "my post"})
	tag1 := newRecord(t, store, "tag", map[string]any{"name": "new tag 1"})
	tag2 := newRecord(t, store, "tag", map[string]any{"name": "new tag 2"})
	blank := newRecord(t, store, "tag", nil)
	author := newRecord(t, store, "author", map[string]any{"name": "John Doe"})
	require.NoError(t, post.SetHasMany("tags", []*record.Record{tag1, tag2, blank}))
	require.NoError(t, post.SetBelongsTo("author", author))

	res, err := c.Save(context.Background(), post, SaveOptions{Relationships: []string{"tags", "author"}})
	require.NoError(t, err)

	assert.Same(t, post, res.Record)
	assert.Equal(t, "1", post.ID())
	assert.False(t, post.IsDirty())

	title, _ := post.Get("title")
	assert.Equal(t, "my post", title)

	tags := tagsOf(t, post)
	assert.Equal(t, []string{"new tag 1", "new tag 2"}, names(t, tags))
	assert.Equal(t, []string{"3", "4"}, ids(tags))

	savedAuthor, err := post.BelongsTo("author")
	require.NoError(t, err)
	require.NotNil(t, savedAuthor)
	assert.Equal(t, "2", savedAuthor.ID())
	assert.Equal(t, []string{"John Doe"}, names(t, []*record.Record{savedAuthor}))

	// the client-side copies of created records are gone
	assert.True(t, tag1.IsUnloaded())
	assert.True(t, tag2.IsUnloaded())
	assert.True(t, blank.IsUnloaded())
	assert.Len(t, res.Reconciliation.Unloaded, 3)
	assert.Empty(t, post.JustSaved())
	for _, tag := range store.Records("tag") {
		assert.False(t, tag.IsNew())
	}
}

func TestSave_UpdateNested(t *testing.T) {
	srv, backend := newBackend(t, mockserver.SeedRecord{
		ID:         "1",
		Attributes: map[string]any{"title": "test title"},
		BelongsTo:  map[string]mockserver.Ref{"author": {Type: "authors", ID: "1"}},
		HasMany:    map[string][]mockserver.Ref{"tags": {{Type: "tags", ID: "1"}, {Type: "tags", ID: "2"}}},
	})
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)
	ctx := context.Background()

	post, err := c.Find(ctx, "post", "1")
	require.NoError(t, err)
	title, _ := post.Get("title")
	assert.Equal(t, "test title", title)

	author, err := post.BelongsTo("author")
	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, []string{"tag1", "tag2"}, names(t, tagsOf(t, post)))

	require.NoError(t, author.Set("name", "new author"))
	require.NoError(t, tagsOf(t, post)[1].Set("name", "tag2 changed"))
	require.NoError(t, post.AddTo("tags", newRecord(t, store, "tag", map[string]any{"name": "new tag"})))

	res, err := c.Save(ctx, post, SaveOptions{Relationships: []string{"author", "tags"}})
	require.NoError(t, err)
	assert.Equal(t, "1", res.Request.Data.ID)

	savedAuthor, err := post.BelongsTo("author")
	require.NoError(t, err)
	assert.Same(t, author, savedAuthor)
	assert.Equal(t, []string{"new author"}, names(t, []*record.Record{savedAuthor}))
	assert.Equal(t, []string{"tag1", "tag2 changed", "new tag"}, names(t, tagsOf(t, post)))

	stored, err := backend.Get("authors", "1")
	require.NoError(t, err)
	assert.Equal(t, "new author", stored.Attributes["name"])
}

func TestSave_UpdateOneMember(t *testing.T) {
	srv, _ := newBackend(t, mockserver.SeedRecord{
		ID:      "1",
		HasMany: map[string][]mockserver.Ref{"tags": {{Type: "tags", ID: "1"}, {Type: "tags", ID: "2"}}},
	})
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)
	ctx := context.Background()

	post, err := c.Find(ctx, "post", "1")
	require.NoError(t, err)
	require.NoError(t, tagsOf(t, post)[0].Set("name", "tag1 changed"))

	res, err := c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)

	assert.Nil(t, res.Request.Data.Attributes)
	assert.Equal(t, []string{"tag1 changed", "tag2"}, names(t, tagsOf(t, post)))
}

func TestSave_DestroyNested(t *testing.T) {
	srv, backend := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)
	ctx := context.Background()

	post := newRecord(t, store, "post", nil)
	require.NoError(t, post.AddTo("tags", newRecord(t, store, "tag", map[string]any{"name": "a"})))
	_, err := c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(t, tagsOf(t, post)))

	require.NoError(t, post.AddTo("tags", newRecord(t, store, "tag", map[string]any{"name": "b"})))
	_, err = c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names(t, tagsOf(t, post)))

	removed := tagsOf(t, post)[0]
	require.NoError(t, removed.MarkForDestruction())

	res, err := c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, names(t, tagsOf(t, post)))
	assert.True(t, removed.IsUnloaded())
	assert.Equal(t, []*record.Record{removed}, res.Reconciliation.Unloaded)

	_, err = backend.Get("tags", removed.ID())
	var notFound *mockserver.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSave_Disassociate(t *testing.T) {
	srv, backend := newBackend(t, mockserver.SeedRecord{
		ID:      "1",
		HasMany: map[string][]mockserver.Ref{"tags": {{Type: "tags", ID: "1"}, {Type: "tags", ID: "2"}}},
	})
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)
	ctx := context.Background()

	post, err := c.Find(ctx, "post", "1")
	require.NoError(t, err)
	tags := tagsOf(t, post)
	tags[0].MarkForDeletion()
	require.NoError(t, post.MarkManyToManyDeletion("tags", tags[1]))

	res, err := c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)

	assert.Empty(t, tagsOf(t, post))
	assert.ElementsMatch(t, tags, res.Reconciliation.Disassociated)
	assert.False(t, tags[0].MarkedForDeletion())
	assert.False(t, tags[0].IsUnloaded())
	assert.Empty(t, post.ManyToManyMarkedForDeletionModels("tags"))

	for _, id := range []string{"1", "2"} {
		_, err := backend.Get("tags", id)
		assert.NoError(t, err, "disassociated tag %s is kept on the server", id)
	}
}

func TestSave_KeepRelations(t *testing.T) {
	srv, _ := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)

	post := newRecord(t, store, "post", nil)
	tag := newRecord(t, store, "tag", map[string]any{"name": "a"})
	require.NoError(t, post.AddTo("tags", tag))

	res, err := c.Save(context.Background(), post, SaveOptions{Relationships: "tags", KeepRelations: true})
	require.NoError(t, err)

	assert.Nil(t, res.Reconciliation)
	assert.False(t, tag.IsUnloaded())
	assert.Len(t, post.JustSaved(), 1)
}

func TestSave_Plain(t *testing.T) {
	srv, backend := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)

	post := newRecord(t, store, "post", map[string]any{"title": "plain"})
	require.NoError(t, post.AddTo("tags", newRecord(t, store, "tag", map[string]any{"name": "ignored"})))

	res, err := c.Save(context.Background(), post, SaveOptions{Plain: true, Relationships: "tags"})
	require.NoError(t, err)

	assert.Empty(t, res.Request.Data.Relationships)
	assert.Empty(t, res.Request.Included)
	assert.Equal(t, "1", post.ID())

	tags, err := backend.List("tags")
	require.NoError(t, err)
	assert.Len(t, tags, 2, "only the seeded tags exist")
}

func TestSave_ErrorLeavesGraphUntouched(t *testing.T) {
	srv, _ := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)

	post := newRecord(t, store, "post", nil)
	tag, err := store.Push("tag", "99", map[string]any{"name": "ghost"})
	require.NoError(t, err)
	require.NoError(t, tag.Set("name", "renamed"))
	require.NoError(t, post.AddTo("tags", tag))

	_, err = c.Save(context.Background(), post, SaveOptions{Relationships: "tags"})
	var rerr *ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
	assert.Equal(t, "not_found", rerr.Code())
	assert.NotEmpty(t, rerr.Hint())
	assert.Contains(t, rerr.Error(), "POST /posts: 404 Not Found")

	assert.True(t, post.IsNew())
	assert.True(t, tag.IsDirty())
	assert.Equal(t, []*record.Record{tag}, tagsOf(t, post))
}

func TestSave_NoContent(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)
	ctx := context.Background()

	post, err := store.Push("post", "1", map[string]any{"title": "old"})
	require.NoError(t, err)
	kept, err := store.Push("tag", "1", map[string]any{"name": "kept"})
	require.NoError(t, err)
	dropped, err := store.Push("tag", "2", map[string]any{"name": "dropped"})
	require.NoError(t, err)
	require.NoError(t, post.AddTo("tags", kept, dropped))
	require.NoError(t, post.Set("title", "new"))
	dropped.MarkForDeletion()

	res, err := c.Save(ctx, post, SaveOptions{Relationships: "tags"})
	require.NoError(t, err)

	assert.Equal(t, []string{"PATCH /posts/1"}, methods)
	assert.Same(t, post, res.Record)
	assert.Nil(t, res.Response)
	assert.False(t, post.IsDirty())
	title, _ := post.Get("title")
	assert.Equal(t, "new", title)

	require.NotNil(t, res.Reconciliation)
	assert.Equal(t, []*record.Record{dropped}, res.Reconciliation.Disassociated)
	assert.Equal(t, []*record.Record{kept}, tagsOf(t, post))
	assert.False(t, dropped.MarkedForDeletion())
	assert.Empty(t, post.JustSaved())

	fresh := newRecord(t, store, "post", map[string]any{"title": "unsaved"})
	_, err = c.Save(ctx, fresh, SaveOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document for a new record")
	assert.True(t, fresh.IsNew())
	assert.True(t, fresh.IsDirty())
}

func TestSave_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store)

	_, err := c.Save(context.Background(), newRecord(t, store, "post", nil), SaveOptions{})
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.NotEmpty(t, cerr.Hint())
}

func TestDestroy(t *testing.T) {
	srv, backend := newBackend(t)
	store := record.NewStore(newSchema(t))
	c := New(srv.URL, store, WithHeader("X-Test", "1"))
	ctx := context.Background()

	tag, err := c.Find(ctx, "tag", "1")
	require.NoError(t, err)
	require.NoError(t, c.Destroy(ctx, tag))
	assert.True(t, tag.IsUnloaded())

	_, err = backend.Get("tags", "1")
	assert.Error(t, err)

	fresh := newRecord(t, store, "tag", nil)
	require.NoError(t, c.Destroy(ctx, fresh))
	assert.True(t, fresh.IsUnloaded())
}

func TestFind_UnknownModel(t *testing.T) {
	srv, _ := newBackend(t)
	c := New(srv.URL, record.NewStore(newSchema(t)))

	_, err := c.Find(context.Background(), "widget", "1")
	var unknown *record.UnknownModelError
	assert.ErrorAs(t, err, &unknown)
}
