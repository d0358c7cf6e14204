// Package record provides the in-memory record graph that sideposting
// serializes: records, their models, lifecycle flags, and the store that
// owns them.
//
// Core Types:
//
//   - Schema: registry of Model declarations (attributes and relationships)
//   - Record: one node of the graph; holds attribute values, canonical
//     (last synced) values, relationship links and lifecycle flags
//   - Store: identity map owning every live record, keyed by model and id
//
// Lifecycle:
//
// A record is Clean, MarkedForDeletion ("disassociate from the parent, keep
// the record") or MarkedForDestruction ("destroy the record server side").
// Only persisted records can be marked for destruction. Independently, a
// parent tracks per-relationship many-to-many removal sets.
//
// Usage:
//
//	schema, _ := record.NewSchema(
//	    &record.Model{Name: "post", Attributes: []string{"title"},
//	        Relationships: []record.Relationship{{Name: "tags", Kind: record.HasMany}}},
//	    &record.Model{Name: "tag", Attributes: []string{"name"}},
//	)
//	store := record.NewStore(schema)
//	tag, _ := store.CreateRecord("tag", map[string]any{"name": "go"})
//	post, _ := store.CreateRecord("post", map[string]any{"title": "hi", "tags": []*record.Record{tag}})
//
// Thread Safety:
//
// The Store guards its identity map with a sync.RWMutex. Records themselves
// are not synchronized: a record graph is meant to be mutated by one
// goroutine at a time, and callers must not mutate a record while a save
// of it is in flight.
package record
