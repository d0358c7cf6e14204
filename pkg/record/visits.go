package record

// Visit records that a to-many member was reached through its parent while
// serializing a save.
type Visit struct {
	Relation string
	Parent   *Record
	Record   *Record
}

// Visits is an ordered, duplicate-free list of visits.
type Visits []Visit

// Add appends v unless the same (relation, parent, record) triple is present.
func (vs Visits) Add(v Visit) Visits {
	for _, existing := range vs {
		if existing == v {
			return vs
		}
	}
	return append(vs, v)
}

// Relations returns the distinct relation names in first-visit order.
func (vs Visits) Relations() []string {
	var names []string
	seen := make(map[string]bool)
	for _, v := range vs {
		if !seen[v.Relation] {
			seen[v.Relation] = true
			names = append(names, v.Relation)
		}
	}
	return names
}

// For returns the visits made through relation.
func (vs Visits) For(relation string) Visits {
	var out Visits
	for _, v := range vs {
		if v.Relation == relation {
			out = append(out, v)
		}
	}
	return out
}

// JustSaved returns the visits recorded by the last serialization of this
// record as a save root.
func (r *Record) JustSaved() Visits { return r.justSaved }

// SetJustSaved replaces the recorded visits. The last save wins.
func (r *Record) SetJustSaved(v Visits) { r.justSaved = v }

// ClearJustSaved drops the recorded visits.
func (r *Record) ClearJustSaved() { r.justSaved = nil }
