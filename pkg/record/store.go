package record

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

type storeKey struct {
	model string
	id    string
}

// Store is the identity map owning every live record. At most one record
// exists per (model, id) pair.
type Store struct {
	mu      sync.RWMutex
	schema  *Schema
	byID    map[storeKey]*Record
	records []*Record
}

// NewStore creates an empty store for the given schema.
func NewStore(schema *Schema) *Store {
	if schema == nil {
		panic("record.NewStore: schema must not be nil")
	}
	return &Store{
		schema: schema,
		byID:   make(map[storeKey]*Record),
	}
}

// Schema returns the store's schema.
func (s *Store) Schema() *Schema { return s.schema }

// CreateRecord creates a new, unpersisted record. Values keyed by an
// attribute name become attribute values; values keyed by a relationship
// name must be a *Record (BelongsTo) or []*Record (HasMany).
// Every to-many relationship of a new record starts out present and empty.
func (s *Store) CreateRecord(model string, values map[string]any) (*Record, error) {
	m, err := s.schema.Model(model)
	if err != nil {
		return nil, err
	}

	r := newRecord(s, m)
	for _, rel := range m.Relationships {
		if rel.IsToMany() {
			r.many[rel.Name] = []*Record{}
		}
	}
	if err := r.assign(values); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()
	return r, nil
}

// assign applies CreateRecord style values to the current state.
func (r *Record) assign(values map[string]any) error {
	for key, value := range values {
		if r.model.HasAttribute(key) {
			r.attrs[key] = value
			continue
		}
		rel, ok := r.model.Relationship(key)
		if !ok {
			return &UnknownAttributeError{Model: r.model.Name, Attribute: key}
		}
		switch v := value.(type) {
		case nil:
			if rel.IsToMany() {
				r.many[key] = []*Record{}
			} else {
				delete(r.one, key)
			}
		case *Record:
			if err := r.SetBelongsTo(key, v); err != nil {
				return err
			}
		case []*Record:
			if err := r.SetHasMany(key, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s.%s: unsupported relationship value %T", r.model.Name, key, value)
		}
	}
	return nil
}

// Push inserts or refreshes a persisted record. The given attributes become
// both current and canonical; attributes not mentioned are left untouched.
// Synchronous to-many relationships of a freshly pushed record start out
// present and empty, async ones absent until linkage is pushed.
func (s *Store) Push(model, id string, attrs map[string]any) (*Record, error) {
	if id == "" {
		return nil, errors.New("push requires an id")
	}
	m, err := s.schema.Model(model)
	if err != nil {
		return nil, err
	}
	for name := range attrs {
		if !m.HasAttribute(name) {
			return nil, &UnknownAttributeError{Model: model, Attribute: name}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey{model: model, id: id}
	r, ok := s.byID[key]
	if !ok {
		r = newRecord(s, m)
		r.id = id
		for _, rel := range m.Relationships {
			if rel.IsToMany() && !rel.Async {
				r.many[rel.Name] = []*Record{}
			}
		}
		s.byID[key] = r
		s.records = append(s.records, r)
	}
	r.commit(attrs)
	return r, nil
}

// Commit makes every current attribute value of r canonical, as after a
// successful save.
func (s *Store) Commit(r *Record) {
	r.commit(r.attrs)
	for name := range r.canonical {
		if _, ok := r.attrs[name]; !ok {
			delete(r.canonical, name)
		}
	}
}

// AssignID gives a new record its server id.
func (s *Store) AssignID(r *Record, id string) error {
	if id == "" {
		return errors.New("cannot assign an empty id")
	}
	if r.id == id {
		return nil
	}
	if !r.IsNew() {
		return &InvalidStateError{Model: r.model.Name, Op: "assign id to", Reason: fmt.Sprintf("record already has id %q", r.id)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey{model: r.model.Name, id: id}
	if existing, ok := s.byID[key]; ok && existing != r {
		return &ConflictError{Model: r.model.Name, ID: id}
	}
	r.id = id
	s.byID[key] = r
	return nil
}

// Peek returns the live record with the given model and id, or nil.
func (s *Store) Peek(model, id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[storeKey{model: model, id: id}]
}

// FindOrCreate returns the record identified by values["id"] when it is
// loaded, pushes it when values carries an id that is not loaded, and
// creates a new record otherwise.
func (s *Store) FindOrCreate(model string, values map[string]any) (*Record, error) {
	rawID, hasID := values["id"]
	if !hasID {
		return s.CreateRecord(model, values)
	}
	recID := fmt.Sprint(rawID)
	if r := s.Peek(model, recID); r != nil {
		return r, nil
	}
	attrs := make(map[string]any, len(values))
	for k, v := range values {
		if k != "id" {
			attrs[k] = v
		}
	}
	return s.Push(model, recID, attrs)
}

// Records returns the live records of a model in insertion order. An empty
// model name returns every live record.
func (s *Store) Records(model string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		if model == "" || r.model.Name == model {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Unload removes r from the store and detaches it from every live record
// that links to it. Unloading an already unloaded record is a no-op.
func (s *Store) Unload(r *Record) {
	if r == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.unloaded {
		return
	}
	if i := slices.Index(s.records, r); i >= 0 {
		s.records = slices.Delete(s.records, i, i+1)
	}
	if r.id != "" {
		key := storeKey{model: r.model.Name, id: r.id}
		if s.byID[key] == r {
			delete(s.byID, key)
		}
	}
	for _, other := range s.records {
		other.detach(r)
	}
	r.unloaded = true
}

// Unload removes the record from its store.
func (r *Record) Unload() {
	r.store.Unload(r)
}
