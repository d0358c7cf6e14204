package mockserver

import (
	"fmt"
	"sort"

	"github.com/getmockd/sidepost/pkg/sidepost"
)

// applier applies the relationship linkage of one request document. It
// runs under the Store lock.
type applier struct {
	s   *Store
	doc *sidepost.Document

	// created maps temp-id keys to the records created for them. A nil
	// value means the create was rejected.
	created map[sidepost.ResourceKey]*Ref
	// applied guards against applying an included payload twice.
	applied map[sidepost.ResourceKey]bool
	changes []Change
}

func newApplier(s *Store, doc *sidepost.Document) *applier {
	return &applier{
		s:       s,
		doc:     doc,
		created: make(map[sidepost.ResourceKey]*Ref),
		applied: make(map[sidepost.ResourceKey]bool),
	}
}

func (a *applier) record(op Op, ref Ref) {
	a.changes = append(a.changes, Change{Op: op, Type: ref.Type, ID: ref.ID})
}

// relationships applies linkage to item. To-one linkage replaces the
// stored reference; to-many linkage adds its members and removes the ones
// marked destroy or disassociate, keeping members it does not mention.
func (a *applier) relationships(item *Item, rels map[string]*sidepost.Relationship) error {
	names := make([]string, 0, len(rels))
	for name := range rels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rel := rels[name]
		if rel == nil {
			continue
		}
		pointer := fmt.Sprintf("/%s/%s/relationships/%s", item.Type, item.ID, name)

		link, ok := item.Links[name]
		if !ok {
			link = &Link{ToMany: rel.ToMany}
		}

		if !rel.ToMany {
			if rel.One == nil {
				link.Refs = nil
			} else {
				ref, detach, err := a.resolve(rel.One, pointer)
				if err != nil {
					return err
				}
				switch {
				case ref == nil:
					// rejected create leaves the link untouched
				case detach:
					link.remove(*ref)
				default:
					link.Refs = []Ref{*ref}
				}
			}
		} else {
			for _, ident := range rel.Many {
				ref, detach, err := a.resolve(ident, pointer)
				if err != nil {
					return err
				}
				switch {
				case ref == nil:
				case detach:
					link.remove(*ref)
				default:
					link.add(*ref)
				}
			}
		}

		// destroy may have unlinked the map entry while resolving
		item.Links[name] = link
	}
	return nil
}

// resolve finds or creates the record an identifier refers to and applies
// its sideposted payload. detach reports that the record must be removed
// from the relationship. A nil ref means a rejected create.
func (a *applier) resolve(ident *sidepost.Identifier, pointer string) (ref *Ref, detach bool, err error) {
	if ident == nil {
		return nil, false, nil
	}
	key := ident.Key()
	payload := a.doc.Find(key)

	switch ident.Method {
	case sidepost.MethodCreate:
		if ident.ID != "" {
			return nil, false, &ValidationError{Message: fmt.Sprintf("%s %q is already persisted and cannot be created", ident.Type, ident.ID), Pointer: pointer}
		}
		if ident.TempID == "" {
			return nil, false, &ValidationError{Message: fmt.Sprintf("created %s has no temp-id", ident.Type), Pointer: pointer}
		}
		if r, seen := a.created[key]; seen {
			return r, false, nil
		}

		var attrs map[string]any
		if payload != nil {
			attrs = payload.Attributes
		}
		c, err := a.s.collection(ident.Type, true)
		if err != nil {
			return nil, false, err
		}
		rejected, err := c.rejects(attrs)
		if err != nil {
			return nil, false, err
		}
		if rejected {
			a.created[key] = nil
			a.changes = append(a.changes, Change{Op: OpReject, Type: ident.Type})
			return nil, false, nil
		}

		item := c.create(attrs)
		r := item.Ref()
		a.created[key] = &r
		a.record(OpCreate, r)
		if payload != nil && !a.applied[key] {
			a.applied[key] = true
			if err := a.relationships(item, payload.Relationships); err != nil {
				return nil, false, err
			}
		}
		return &r, false, nil

	case sidepost.MethodNone, sidepost.MethodUpdate, sidepost.MethodDestroy, sidepost.MethodDisassociate:
		if ident.ID == "" {
			return nil, false, &ValidationError{Message: fmt.Sprintf("%s without id must use method %q", ident.Type, sidepost.MethodCreate), Pointer: pointer}
		}
		c, err := a.s.collection(ident.Type, false)
		if err != nil {
			return nil, false, err
		}
		item, err := c.get(ident.ID)
		if err != nil {
			return nil, false, err
		}
		r := item.Ref()

		switch ident.Method {
		case sidepost.MethodDestroy:
			a.s.destroy(r)
			a.record(OpDestroy, r)
			return &r, true, nil
		case sidepost.MethodDisassociate:
			a.record(OpDisassociate, r)
			return &r, true, nil
		}

		if payload != nil && !a.applied[key] {
			a.applied[key] = true
			if ident.Method == sidepost.MethodUpdate && len(payload.Attributes) > 0 {
				item.update(payload.Attributes)
				a.record(OpUpdate, r)
			}
			if err := a.relationships(item, payload.Relationships); err != nil {
				return nil, false, err
			}
		}
		return &r, false, nil

	default:
		return nil, false, &ValidationError{Message: fmt.Sprintf("unknown method %q", ident.Method), Pointer: pointer}
	}
}
