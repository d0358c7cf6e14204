package record

import (
	"fmt"
	"slices"

	"github.com/getmockd/sidepost/internal/id"
)

// Lifecycle is the removal intent attached to a record.
type Lifecycle uint8

// Lifecycle states.
const (
	// Clean records carry no removal intent.
	Clean Lifecycle = iota
	// MarkedForDeletion records are disassociated from their parent but kept.
	MarkedForDeletion
	// MarkedForDestruction records are destroyed server side.
	MarkedForDestruction
)

func (l Lifecycle) String() string {
	switch l {
	case Clean:
		return "clean"
	case MarkedForDeletion:
		return "marked-for-deletion"
	case MarkedForDestruction:
		return "marked-for-destruction"
	default:
		return fmt.Sprintf("Lifecycle(%d)", uint8(l))
	}
}

// ParseLifecycle parses the String form of a Lifecycle. The shorthands
// "deletion"/"delete" and "destruction"/"destroy" are accepted too.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch s {
	case "", "clean":
		return Clean, nil
	case "marked-for-deletion", "deletion", "delete", "disassociate":
		return MarkedForDeletion, nil
	case "marked-for-destruction", "destruction", "destroy":
		return MarkedForDestruction, nil
	default:
		return Clean, fmt.Errorf("unknown lifecycle state %q", s)
	}
}

// Lifecycle returns the record's lifecycle state.
func (r *Record) Lifecycle() Lifecycle { return r.lifecycle }

// MarkedForDeletion reports whether the record is marked for deletion.
func (r *Record) MarkedForDeletion() bool { return r.lifecycle == MarkedForDeletion }

// MarkedForDestruction reports whether the record is marked for destruction.
func (r *Record) MarkedForDestruction() bool { return r.lifecycle == MarkedForDestruction }

// MarkForDeletion marks the record to be disassociated from its parent.
// A record already marked for destruction stays marked for destruction.
func (r *Record) MarkForDeletion() {
	if r.lifecycle == Clean {
		r.lifecycle = MarkedForDeletion
	}
}

// UnmarkForDeletion clears a deletion mark.
func (r *Record) UnmarkForDeletion() {
	if r.lifecycle == MarkedForDeletion {
		r.lifecycle = Clean
	}
}

// MarkForDestruction marks the record to be destroyed server side. It fails
// with *InvalidStateError when the record has never been persisted.
func (r *Record) MarkForDestruction() error {
	if r.IsNew() {
		return &InvalidStateError{
			Model:  r.model.Name,
			Op:     "mark for destruction",
			Reason: "record has no server id",
		}
	}
	r.lifecycle = MarkedForDestruction
	return nil
}

// UnmarkForDestruction clears a destruction mark.
func (r *Record) UnmarkForDestruction() {
	if r.lifecycle == MarkedForDestruction {
		r.lifecycle = Clean
	}
}

// HasDirtyAttributes reports whether the record needs saving: it is dirty
// at the store level or carries a removal mark.
func (r *Record) HasDirtyAttributes() bool {
	return r.IsDirty() || r.lifecycle != Clean
}

// TempID returns the record's temporary identifier, assigning it on first
// use. The value is stable for the lifetime of the record.
func (r *Record) TempID() string {
	if r.tempID == "" {
		r.tempID = id.Temp()
	}
	return r.tempID
}

// MarkManyToManyDeletion adds member to the removal set of the to-many
// relationship called relation. Adding the same member twice has no effect.
func (r *Record) MarkManyToManyDeletion(relation string, member *Record) error {
	rel, err := r.RelationshipFor(relation)
	if err != nil {
		return err
	}
	if !rel.IsToMany() {
		return fmt.Errorf("%s.%s is a %s relationship", r.model.Name, relation, rel.Kind)
	}
	if member == nil {
		return nil
	}
	if r.removals == nil {
		r.removals = make(map[string][]*Record)
	}
	if !slices.Contains(r.removals[relation], member) {
		r.removals[relation] = append(r.removals[relation], member)
	}
	return nil
}

// UnmarkManyToManyDeletion removes member from the removal set of relation.
// It is a no-op when member is not in the set.
func (r *Record) UnmarkManyToManyDeletion(relation string, member *Record) {
	members := r.removals[relation]
	if i := slices.Index(members, member); i >= 0 {
		r.removals[relation] = slices.Delete(members, i, i+1)
	}
	if len(r.removals[relation]) == 0 {
		delete(r.removals, relation)
	}
}

// ManyToManyMarkedForDeletionModels returns the removal set of relation in
// insertion order. The result is empty, never nil.
func (r *Record) ManyToManyMarkedForDeletionModels(relation string) []*Record {
	members := r.removals[relation]
	out := make([]*Record, len(members))
	copy(out, members)
	return out
}

// IsManyToManyMarkedForDeletion reports whether member is in the removal set
// of relation.
func (r *Record) IsManyToManyMarkedForDeletion(relation string, member *Record) bool {
	return slices.Contains(r.removals[relation], member)
}
