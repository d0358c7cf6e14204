package sidepost

import (
	"github.com/getmockd/sidepost/pkg/directive"
	"github.com/getmockd/sidepost/pkg/record"
)

// walker accumulates the included list and the visited to-many members of
// one serialization.
type walker struct {
	s        *Serializer
	root     *record.Record
	included []*Resource
	index    map[ResourceKey]*Resource
	visits   record.Visits
	// linksRoot is set when some relationship points back at the root.
	linksRoot bool
}

func newWalker(s *Serializer, root *record.Record) *walker {
	return &walker{
		s:     s,
		root:  root,
		index: make(map[ResourceKey]*Resource),
	}
}

// relationships builds the linkage of r for every relation named in tree.
// Relation names are visited in sorted order. Absent relations are skipped;
// a present but empty to-many yields an empty array.
func (w *walker) relationships(tree directive.Tree, r *record.Record) (map[string]*Relationship, error) {
	out := make(map[string]*Relationship, len(tree))
	for _, name := range tree.Keys() {
		related, err := r.Related(name)
		if err != nil {
			return nil, err
		}
		if !related.Present {
			continue
		}

		key := w.s.formatter.KeyForRelationship(name)
		sub := tree[name]

		if !related.IsToMany() {
			res, err := w.visit(related.One, sub, false)
			if err != nil {
				return nil, err
			}
			out[key] = ToOne(res.Identifier())
			continue
		}

		linkage := make([]*Identifier, 0, len(related.Many))
		for _, member := range related.Many {
			removed := r.IsManyToManyMarkedForDeletion(name, member)
			res, err := w.visit(member, sub, removed)
			if err != nil {
				return nil, err
			}
			linkage = append(linkage, res.Identifier())
			w.visits = w.visits.Add(record.Visit{Relation: name, Parent: r, Record: member})
		}
		out[key] = ToMany(linkage...)
	}
	return out, nil
}

// visit encodes a related record, walks its sub-directive and adds it to
// the included list. Children are included before their parent.
func (w *walker) visit(r *record.Record, tree directive.Tree, removed bool) (*Resource, error) {
	res := w.s.encode(r, removed)
	if len(tree) > 0 {
		rels, err := w.relationships(tree, r)
		if err != nil {
			return nil, err
		}
		if len(rels) > 0 {
			res.Relationships = rels
		}
	}
	if r == w.root {
		w.linksRoot = true
	} else {
		w.include(res)
	}
	return res, nil
}

// include adds the payload of res to the included list. Payloads without
// attributes or relationships are not included. A payload for a resource
// already included is merged into the existing entry.
func (w *walker) include(res *Resource) {
	if len(res.Attributes) == 0 && len(res.Relationships) == 0 {
		return
	}

	key := res.Key()
	existing, ok := w.index[key]
	if !ok {
		entry := &Resource{Type: res.Type, ID: res.ID, TempID: res.TempID}
		mergeResource(entry, res)
		w.index[key] = entry
		w.included = append(w.included, entry)
		return
	}
	mergeResource(existing, res)
}

// mergeResource merges the attributes and relationships of src into dst.
// Keys of src win on conflict.
func mergeResource(dst, src *Resource) {
	if len(src.Attributes) > 0 {
		if dst.Attributes == nil {
			dst.Attributes = make(map[string]any, len(src.Attributes))
		}
		for k, v := range src.Attributes {
			dst.Attributes[k] = v
		}
	}
	if len(src.Relationships) > 0 {
		if dst.Relationships == nil {
			dst.Relationships = make(map[string]*Relationship, len(src.Relationships))
		}
		for k, v := range src.Relationships {
			dst.Relationships[k] = v
		}
	}
}
