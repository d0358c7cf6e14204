package sidepost

import (
	"github.com/getmockd/sidepost/pkg/record"
)

// Reconciliation reports what Reconcile changed.
type Reconciliation struct {
	// Unloaded records were removed from the store: they were new when
	// saved, or destroyed.
	Unloaded []*record.Record
	// Disassociated records were removed from a parent collection and had
	// their removal mark cleared.
	Disassociated []*record.Record
}

// Reconcile updates the graph of root after a successful save, using the
// to-many members recorded by the last Serialize of root:
//
//   - a member that is still new, or was marked for destruction, is unloaded;
//   - a member marked for deletion is removed from every parent collection
//     it was visited under, then unmarked;
//   - a member in its parent's many-to-many removal set is removed from the
//     collection and dropped from the set.
//
// Other members are left alone. The recorded visits are cleared.
func Reconcile(root *record.Record) (*Reconciliation, error) {
	out := &Reconciliation{}
	defer root.ClearJustSaved()

	var unmark []*record.Record
	seen := make(map[*record.Record]bool)

	for _, v := range root.JustSaved() {
		r := v.Record
		if r.IsUnloaded() {
			continue
		}

		switch {
		case r.IsNew() || r.MarkedForDestruction():
			r.Unload()
			out.Unloaded = append(out.Unloaded, r)
		case r.MarkedForDeletion():
			// the flag is cleared after the loop so later parents still
			// see it
			if _, err := v.Parent.RemoveFrom(v.Relation, r); err != nil {
				return out, err
			}
			if !seen[r] {
				seen[r] = true
				unmark = append(unmark, r)
				out.Disassociated = append(out.Disassociated, r)
			}
		case v.Parent.IsManyToManyMarkedForDeletion(v.Relation, r):
			if _, err := v.Parent.RemoveFrom(v.Relation, r); err != nil {
				return out, err
			}
			v.Parent.UnmarkManyToManyDeletion(v.Relation, r)
			out.Disassociated = append(out.Disassociated, r)
		}
	}

	for _, r := range unmark {
		r.UnmarkForDeletion()
	}
	return out, nil
}
