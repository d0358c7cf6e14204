package mockserver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/getmockd/sidepost/pkg/sidepost"
)

// Store holds every collection of the mock backend. All operations are
// serialized by one lock, so a request applies atomically.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	configs     map[string]CollectionConfig
	strict      bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStrictTypes makes requests that mention an unregistered type fail
// with *NotFoundError instead of creating the collection on the fly.
func WithStrictTypes() StoreOption {
	return func(s *Store) { s.strict = true }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		configs:     make(map[string]CollectionConfig),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a collection and loads its seed records.
func (s *Store) Register(cfg CollectionConfig) error {
	c, err := buildCollection(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[cfg.Type]; exists {
		return fmt.Errorf("collection %q already registered", cfg.Type)
	}
	s.collections[cfg.Type] = c
	s.configs[cfg.Type] = cfg
	return nil
}

func buildCollection(cfg CollectionConfig) (*collection, error) {
	if cfg.Type == "" {
		return nil, errors.New("collection type cannot be empty")
	}
	c, err := newCollection(cfg)
	if err != nil {
		return nil, err
	}
	for _, seed := range cfg.Seed {
		if seed.ID == "" {
			return nil, fmt.Errorf("collection %q: seed record without id", cfg.Type)
		}
		item := c.insert(seed.ID, seed.Attributes)
		for name, refs := range seed.HasMany {
			item.Links[name] = &Link{ToMany: true, Refs: append([]Ref{}, refs...)}
		}
		for name, ref := range seed.BelongsTo {
			item.Links[name] = &Link{Refs: []Ref{ref}}
		}
	}
	return c, nil
}

// Types returns the registered types in sorted order.
func (s *Store) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]string, 0, len(s.collections))
	for t := range s.collections {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// collection returns the collection of typ, creating it on write when the
// store is not strict. Callers hold s.mu.
func (s *Store) collection(typ string, write bool) (*collection, error) {
	if c, ok := s.collections[typ]; ok {
		return c, nil
	}
	if !write || s.strict {
		return nil, &NotFoundError{Type: typ}
	}
	c, err := newCollection(CollectionConfig{Type: typ})
	if err != nil {
		return nil, err
	}
	s.collections[typ] = c
	return c, nil
}

// Get returns a copy of one record.
func (s *Store) Get(typ, itemID string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(typ, false)
	if err != nil {
		return nil, err
	}
	item, err := c.get(itemID)
	if err != nil {
		return nil, err
	}
	return item.clone(), nil
}

// List returns copies of the records of typ in insertion order.
func (s *Store) List(typ string) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(typ, false)
	if err != nil {
		return nil, err
	}
	items := c.list()
	out := make([]*Item, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out, nil
}

// Delete removes a record and every link to it.
func (s *Store) Delete(typ, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(typ, false)
	if err != nil {
		return err
	}
	if _, err := c.get(itemID); err != nil {
		return err
	}
	s.destroy(Ref{Type: typ, ID: itemID})
	return nil
}

// Reset drops every record and re-seeds registered collections. Types
// created on the fly are removed.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collections := make(map[string]*collection, len(s.configs))
	for typ, cfg := range s.configs {
		c, err := buildCollection(cfg)
		if err != nil {
			return err
		}
		collections[typ] = c
	}
	s.collections = collections
	return nil
}

// destroy deletes the record and unlinks it everywhere. Callers hold s.mu.
func (s *Store) destroy(ref Ref) {
	if c, ok := s.collections[ref.Type]; ok {
		c.delete(ref.ID)
	}
	for _, c := range s.collections {
		for _, item := range c.items {
			for name, l := range item.Links {
				if l.remove(ref) && !l.ToMany {
					delete(item.Links, name)
				}
			}
		}
	}
}

func (s *Store) lookup(ref Ref) *Item {
	c, ok := s.collections[ref.Type]
	if !ok {
		return nil
	}
	return c.items[ref.ID]
}

// Create stores the primary data of doc as a new record and applies its
// sideposted relationships. The root record is never rejected.
func (s *Store) Create(doc *sidepost.Document) (*Result, error) {
	if doc == nil || doc.Data == nil {
		return nil, &ValidationError{Message: "missing primary data", Pointer: "/data"}
	}

	return s.transact(func(a *applier) (*Item, error) {
		c, err := s.collection(doc.Data.Type, true)
		if err != nil {
			return nil, err
		}
		root := c.create(doc.Data.Attributes)
		a.record(OpCreate, root.Ref())
		a.applied[doc.Data.Key()] = true
		if doc.Data.TempID != "" {
			// linkage back to the root resolves to it
			ref := root.Ref()
			a.created[doc.Data.Key()] = &ref
		}
		if err := a.relationships(root, doc.Data.Relationships); err != nil {
			return nil, err
		}
		return root, nil
	}, doc)
}

// Update writes the primary data of doc to the existing record typ/id and
// applies its sideposted relationships.
func (s *Store) Update(typ, itemID string, doc *sidepost.Document) (*Result, error) {
	if doc == nil || doc.Data == nil {
		return nil, &ValidationError{Message: "missing primary data", Pointer: "/data"}
	}
	if doc.Data.Type != typ || (doc.Data.ID != "" && doc.Data.ID != itemID) {
		return nil, &ConflictError{Type: typ, ID: itemID}
	}

	return s.transact(func(a *applier) (*Item, error) {
		c, err := s.collection(typ, false)
		if err != nil {
			return nil, err
		}
		root, err := c.get(itemID)
		if err != nil {
			return nil, err
		}
		if len(doc.Data.Attributes) > 0 {
			root.update(doc.Data.Attributes)
			a.record(OpUpdate, root.Ref())
		}
		a.applied[sidepost.ResourceKey{Type: typ, ID: itemID}] = true
		if err := a.relationships(root, doc.Data.Relationships); err != nil {
			return nil, err
		}
		return root, nil
	}, doc)
}

// transact runs fn under the store lock and rolls every collection back
// when it fails.
func (s *Store) transact(fn func(*applier) (*Item, error), doc *sidepost.Document) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make(map[string]collectionState, len(s.collections))
	for typ, c := range s.collections {
		states[typ] = c.snapshot()
	}

	a := newApplier(s, doc)
	root, err := fn(a)
	if err != nil {
		for typ, c := range s.collections {
			state, ok := states[typ]
			if !ok {
				delete(s.collections, typ)
				continue
			}
			c.restore(state)
		}
		return nil, err
	}
	return &Result{Item: root.clone(), Changes: a.changes}, nil
}

// Render builds the response document of a record: its attributes, all of
// its linkage, and the records of included relationships.
func (s *Store) Render(item *Item) *sidepost.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render(item)
}

func (s *Store) render(item *Item) *sidepost.Document {
	doc := &sidepost.Document{Data: resourceOf(item)}

	c, ok := s.collections[item.Type]
	if !ok {
		return doc
	}
	seen := map[Ref]bool{item.Ref(): true}
	for _, name := range sortedLinkNames(item) {
		if !c.includes(name) {
			continue
		}
		for _, ref := range item.Links[name].Refs {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			if related := s.lookup(ref); related != nil {
				doc.Included = append(doc.Included, resourceOf(related))
			}
		}
	}
	return doc
}

// RenderList builds a collection response. Included records are not
// embedded in lists.
func RenderList(items []*Item) map[string]any {
	data := make([]*sidepost.Resource, len(items))
	for i, item := range items {
		data[i] = resourceOf(item)
	}
	return map[string]any{"data": data}
}

func resourceOf(item *Item) *sidepost.Resource {
	res := &sidepost.Resource{Type: item.Type, ID: item.ID}
	if len(item.Attributes) > 0 {
		res.Attributes = make(map[string]any, len(item.Attributes))
		for k, v := range item.Attributes {
			res.Attributes[k] = v
		}
	}
	if len(item.Links) > 0 {
		res.Relationships = make(map[string]*sidepost.Relationship, len(item.Links))
		for name, l := range item.Links {
			idents := make([]*sidepost.Identifier, len(l.Refs))
			for i, ref := range l.Refs {
				idents[i] = &sidepost.Identifier{Type: ref.Type, ID: ref.ID}
			}
			if l.ToMany {
				res.Relationships[name] = sidepost.ToMany(idents...)
			} else if len(idents) > 0 {
				res.Relationships[name] = sidepost.ToOne(idents[0])
			} else {
				res.Relationships[name] = sidepost.ToOne(nil)
			}
		}
	}
	return res
}

func sortedLinkNames(item *Item) []string {
	names := make([]string, 0, len(item.Links))
	for name := range item.Links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
