package sidepost

import (
	"fmt"

	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

// Push applies a server response to the record graph. The root's current
// attributes become canonical and the server's attributes are written on
// top. Included resources are found or created by type and id. Linkage in
// the response replaces the relationships it names, so records the server
// created are linked in by their new ids.
//
// When root is new it receives the id of the primary data. A nil root is
// looked up or created from the primary data.
//
// Identifiers without a server id are ignored.
func (s *Serializer) Push(store *record.Store, doc *Document, root *record.Record) (*record.Record, error) {
	if doc == nil || doc.Data == nil {
		return nil, fmt.Errorf("push: document has no primary data")
	}
	if doc.Data.ID == "" {
		return nil, fmt.Errorf("push: primary data of type %q has no id", doc.Data.Type)
	}

	ix := newWireIndex(store.Schema(), s.formatter)
	model, err := ix.model(doc.Data.Type)
	if err != nil {
		return nil, err
	}

	if root != nil {
		if root.ModelName() != model.Name {
			return nil, fmt.Errorf("push: response type %q does not match %s", doc.Data.Type, root)
		}
		if root.IsNew() {
			if err := store.AssignID(root, doc.Data.ID); err != nil {
				return nil, err
			}
		} else if root.ID() != doc.Data.ID {
			return nil, fmt.Errorf("push: response id %q does not match %s", doc.Data.ID, root)
		}
		store.Commit(root)
	}

	resources := make([]*Resource, 0, len(doc.Included)+1)
	resources = append(resources, doc.Data)
	resources = append(resources, doc.Included...)

	// Attributes first, so linkage can point at every returned resource.
	records := make([]*record.Record, len(resources))
	for i, res := range resources {
		if res.ID == "" {
			continue
		}
		m, err := ix.model(res.Type)
		if err != nil {
			return nil, err
		}
		r, err := store.Push(m.Name, res.ID, ix.attributes(m, res.Attributes))
		if err != nil {
			return nil, err
		}
		records[i] = r
	}

	for i, res := range resources {
		if records[i] == nil {
			continue
		}
		if err := s.link(store, ix, records[i], res); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("pushed response",
		"type", doc.Data.Type,
		"id", doc.Data.ID,
		"included", len(doc.Included),
	)
	return records[0], nil
}

func (s *Serializer) link(store *record.Store, ix *wireIndex, r *record.Record, res *Resource) error {
	for key, linkage := range res.Relationships {
		rel, ok := ix.relationship(r.Model(), key)
		if !ok || linkage == nil {
			continue
		}

		var related []*record.Record
		for _, ident := range linkage.Identifiers() {
			if ident.ID == "" {
				continue
			}
			m, err := ix.model(ident.Type)
			if err != nil {
				return err
			}
			target := store.Peek(m.Name, ident.ID)
			if target == nil {
				if target, err = store.Push(m.Name, ident.ID, nil); err != nil {
					return err
				}
			}
			related = append(related, target)
		}

		if rel.IsToMany() {
			if err := r.SetHasMany(rel.Name, related); err != nil {
				return err
			}
			continue
		}
		var one *record.Record
		if len(related) > 0 {
			one = related[0]
		}
		if err := r.SetBelongsTo(rel.Name, one); err != nil {
			return err
		}
	}
	return nil
}

// Push applies a response with the default naming convention and no
// known root record.
func Push(store *record.Store, doc *Document) (*record.Record, error) {
	return NewSerializer(nil, nil).Push(store, doc, nil)
}

// wireIndex maps wire names back to schema names.
type wireIndex struct {
	formatter naming.Formatter
	types     map[string]*record.Model
}

func newWireIndex(schema *record.Schema, formatter naming.Formatter) *wireIndex {
	ix := &wireIndex{formatter: formatter, types: make(map[string]*record.Model)}
	for _, m := range schema.Models() {
		ix.types[formatter.TypeForModel(m.Name)] = m
	}
	return ix
}

func (ix *wireIndex) model(typ string) (*record.Model, error) {
	m, ok := ix.types[typ]
	if !ok {
		return nil, &record.UnknownModelError{Model: typ}
	}
	return m, nil
}

// attributes converts wire attributes to attribute names. Keys that are
// not declared on the model are dropped.
func (ix *wireIndex) attributes(m *record.Model, wire map[string]any) map[string]any {
	out := make(map[string]any, len(wire))
	for _, name := range m.Attributes {
		if v, ok := wire[ix.formatter.KeyForAttribute(name)]; ok {
			out[name] = v
		}
	}
	return out
}

func (ix *wireIndex) relationship(m *record.Model, key string) (record.Relationship, bool) {
	for _, rel := range m.Relationships {
		if ix.formatter.KeyForRelationship(rel.Name) == key {
			return rel, true
		}
	}
	return record.Relationship{}, false
}
