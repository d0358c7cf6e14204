package record

import (
	"fmt"
	"reflect"
	"slices"
)

// Record is one node of the record graph.
//
// Attribute values live in two layers: the current values and the canonical
// values last synced with the server. An attribute is changed when the two
// differ. A key missing from the current values means the attribute is unset.
type Record struct {
	store *Store
	model *Model

	id     string
	tempID string

	attrs     map[string]any
	canonical map[string]any

	one  map[string]*Record
	many map[string][]*Record

	lifecycle Lifecycle
	removals  map[string][]*Record

	justSaved Visits
	unloaded  bool
}

func newRecord(store *Store, model *Model) *Record {
	return &Record{
		store:     store,
		model:     model,
		attrs:     make(map[string]any),
		canonical: make(map[string]any),
		one:       make(map[string]*Record),
		many:      make(map[string][]*Record),
	}
}

// Model returns the record's model declaration.
func (r *Record) Model() *Model { return r.model }

// ModelName returns the record's model name.
func (r *Record) ModelName() string { return r.model.Name }

// ID returns the server-assigned id, or "" if the record was never persisted.
func (r *Record) ID() string { return r.id }

// IsNew reports whether the record has no server-assigned id yet.
func (r *Record) IsNew() bool { return r.id == "" }

// IsUnloaded reports whether the record was removed from its store.
// An unloaded record must not be used any more.
func (r *Record) IsUnloaded() bool { return r.unloaded }

// Store returns the store owning the record.
func (r *Record) Store() *Store { return r.store }

func (r *Record) String() string {
	if r.id != "" {
		return fmt.Sprintf("%s:%s", r.model.Name, r.id)
	}
	return fmt.Sprintf("%s:<new>", r.model.Name)
}

// Get returns the current value of an attribute and whether it is set.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Set assigns an attribute value. Setting nil stores an explicit null.
func (r *Record) Set(name string, value any) error {
	if !r.model.HasAttribute(name) {
		return &UnknownAttributeError{Model: r.model.Name, Attribute: name}
	}
	r.attrs[name] = value
	return nil
}

// Unset clears an attribute so it is no longer set.
func (r *Record) Unset(name string) {
	delete(r.attrs, name)
}

// Attributes returns a copy of the set attribute values.
func (r *Record) Attributes() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// ChangedAttributes returns, in declaration order, the attributes whose
// current value differs from the canonical one.
func (r *Record) ChangedAttributes() []string {
	var changed []string
	for _, name := range r.model.Attributes {
		if r.attributeChanged(name) {
			changed = append(changed, name)
		}
	}
	return changed
}

// AttributeChanged reports whether a single attribute is changed.
func (r *Record) AttributeChanged(name string) bool {
	return r.attributeChanged(name)
}

func (r *Record) attributeChanged(name string) bool {
	cur, curOK := r.attrs[name]
	orig, origOK := r.canonical[name]
	if curOK != origOK {
		return curOK || origOK
	}
	return !reflect.DeepEqual(cur, orig)
}

// IsDirty reports the store-level dirty state: the record is new or has
// changed attributes. Lifecycle flags are not considered; see
// HasDirtyAttributes.
func (r *Record) IsDirty() bool {
	return r.IsNew() || len(r.ChangedAttributes()) > 0
}

// Rollback discards attribute changes.
func (r *Record) Rollback() {
	r.attrs = cloneAttrs(r.canonical)
}

// commit makes the given values canonical and current.
func (r *Record) commit(values map[string]any) {
	for k, v := range values {
		r.attrs[k] = v
		r.canonical[k] = v
	}
}

// RelationshipFor returns the relationship metadata for name.
func (r *Record) RelationshipFor(name string) (Relationship, error) {
	rel, ok := r.model.Relationship(name)
	if !ok {
		return Relationship{}, &UnknownRelationshipError{Model: r.model.Name, Relationship: name}
	}
	return rel, nil
}

// Related is the current value of one relationship.
type Related struct {
	Relationship
	// One is the related record of a BelongsTo, nil when unset.
	One *Record
	// Many is a copy of the members of a HasMany.
	Many []*Record
	// Present is false for an unset BelongsTo and for a HasMany that was
	// never loaded. An empty, loaded HasMany is present.
	Present bool
}

// Related returns the current value of the relationship called name.
func (r *Record) Related(name string) (Related, error) {
	rel, err := r.RelationshipFor(name)
	if err != nil {
		return Related{}, err
	}
	out := Related{Relationship: rel}
	if rel.IsToMany() {
		members, ok := r.many[name]
		out.Many = slices.Clone(members)
		out.Present = ok
		return out, nil
	}
	out.One = r.one[name]
	out.Present = out.One != nil
	return out, nil
}

// BelongsTo returns the related record of a to-one relationship.
func (r *Record) BelongsTo(name string) (*Record, error) {
	rel, err := r.RelationshipFor(name)
	if err != nil {
		return nil, err
	}
	if rel.IsToMany() {
		return nil, fmt.Errorf("%s.%s is a %s relationship", r.model.Name, name, rel.Kind)
	}
	return r.one[name], nil
}

// SetBelongsTo assigns a to-one relationship. A nil related record clears it.
func (r *Record) SetBelongsTo(name string, related *Record) error {
	rel, err := r.RelationshipFor(name)
	if err != nil {
		return err
	}
	if rel.IsToMany() {
		return fmt.Errorf("%s.%s is a %s relationship", r.model.Name, name, rel.Kind)
	}
	if related == nil {
		delete(r.one, name)
		return nil
	}
	if err := checkTarget(r, rel, related); err != nil {
		return err
	}
	r.one[name] = related
	return nil
}

// HasMany returns a copy of the members of a to-many relationship.
func (r *Record) HasMany(name string) ([]*Record, error) {
	rel, err := r.RelationshipFor(name)
	if err != nil {
		return nil, err
	}
	if !rel.IsToMany() {
		return nil, fmt.Errorf("%s.%s is a %s relationship", r.model.Name, name, rel.Kind)
	}
	return slices.Clone(r.many[name]), nil
}

// SetHasMany replaces the members of a to-many relationship. Duplicates are
// dropped, keeping the first occurrence.
func (r *Record) SetHasMany(name string, members []*Record) error {
	rel, err := r.RelationshipFor(name)
	if err != nil {
		return err
	}
	if !rel.IsToMany() {
		return fmt.Errorf("%s.%s is a %s relationship", r.model.Name, name, rel.Kind)
	}
	out := make([]*Record, 0, len(members))
	for _, m := range members {
		if m == nil || slices.Contains(out, m) {
			continue
		}
		if err := checkTarget(r, rel, m); err != nil {
			return err
		}
		out = append(out, m)
	}
	r.many[name] = out
	return nil
}

// AddTo appends members to a to-many relationship, skipping those already present.
func (r *Record) AddTo(name string, members ...*Record) error {
	current, err := r.HasMany(name)
	if err != nil {
		return err
	}
	return r.SetHasMany(name, append(current, members...))
}

// RemoveFrom removes a member from a to-many relationship and reports
// whether it was present.
func (r *Record) RemoveFrom(name string, member *Record) (bool, error) {
	current, err := r.HasMany(name)
	if err != nil {
		return false, err
	}
	i := slices.Index(current, member)
	if i < 0 {
		return false, nil
	}
	r.many[name] = slices.Delete(current, i, i+1)
	return true, nil
}

// detach drops every link from r to target, including many-to-many removal
// entries.
func (r *Record) detach(target *Record) {
	for name, related := range r.one {
		if related == target {
			delete(r.one, name)
		}
	}
	for name, members := range r.many {
		if i := slices.Index(members, target); i >= 0 {
			r.many[name] = slices.Delete(members, i, i+1)
		}
	}
	for name, members := range r.removals {
		if i := slices.Index(members, target); i >= 0 {
			r.removals[name] = slices.Delete(members, i, i+1)
		}
	}
}

func checkTarget(owner *Record, rel Relationship, related *Record) error {
	if related.model.Name != rel.Target {
		return fmt.Errorf("%s.%s expects %s records, got %s", owner.model.Name, rel.Name, rel.Target, related.model.Name)
	}
	return nil
}

func cloneAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
