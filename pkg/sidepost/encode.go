package sidepost

import (
	"github.com/getmockd/sidepost/pkg/record"
)

// InferMethod returns the method a related record is sent with. The first
// matching rule wins: new records are created, persisted records marked for
// destruction are destroyed, persisted records marked for deletion or
// removed from a many-to-many relation are disassociated, and records with
// changed attributes are updated.
func InferMethod(r *record.Record, removed bool) Method {
	switch {
	case r.IsNew():
		return MethodCreate
	case r.MarkedForDestruction():
		return MethodDestroy
	case r.MarkedForDeletion() || removed:
		return MethodDisassociate
	case r.IsDirty():
		return MethodUpdate
	default:
		return MethodNone
	}
}

// encode builds the payload of a related record: identifiers, method and
// changed attributes. Relationships are filled in by the walker.
func (s *Serializer) encode(r *record.Record, removed bool) *Resource {
	res := &Resource{
		Type:   s.formatter.TypeForModel(r.ModelName()),
		ID:     r.ID(),
		Method: InferMethod(r, removed),
	}
	if res.Method == MethodCreate {
		res.TempID = r.TempID()
	}
	if attrs := s.changedAttributes(r); len(attrs) > 0 {
		res.Attributes = attrs
	}
	return res
}

// changedAttributes returns every set attribute of a new record, or the
// changed attributes of a persisted one, keyed by wire name. Unset
// attributes are skipped; an explicit nil is kept.
func (s *Serializer) changedAttributes(r *record.Record) map[string]any {
	attrs := make(map[string]any)
	for _, name := range r.Model().Attributes {
		if !r.IsNew() && !r.AttributeChanged(name) {
			continue
		}
		if v, ok := r.Get(name); ok {
			attrs[s.formatter.KeyForAttribute(name)] = v
		}
	}
	return attrs
}

// allAttributes returns every declared attribute keyed by wire name, with
// unset attributes as nil.
func (s *Serializer) allAttributes(r *record.Record) map[string]any {
	attrs := make(map[string]any, len(r.Model().Attributes))
	for _, name := range r.Model().Attributes {
		v, _ := r.Get(name)
		attrs[s.formatter.KeyForAttribute(name)] = v
	}
	return attrs
}
