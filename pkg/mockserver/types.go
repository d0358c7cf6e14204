package mockserver

import (
	"maps"
	"slices"
	"time"
)

// Rule names accepted by CollectionConfig.RejectIf besides expressions.
const (
	// RejectAllBlank rejects created records whose attributes are all
	// blank (nil, empty or whitespace strings, empty lists).
	RejectAllBlank = "all_blank"
	// RejectNever accepts every created record.
	RejectNever = "never"
)

// CollectionConfig configures one resource type.
type CollectionConfig struct {
	// Type is the JSON:API resource type, e.g. "posts".
	Type string `json:"type" yaml:"type"`

	// Include lists the relationships whose records are embedded in
	// responses. Empty means every relationship.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// RejectIf decides whether a sideposted create is skipped. It is
	// RejectAllBlank (the default), RejectNever, or an expr-lang boolean
	// expression over `type` and `attributes`, with a `blank(v)` helper.
	RejectIf string `json:"rejectIf,omitempty" yaml:"rejectIf,omitempty"`

	// Seed records are inserted when the collection is registered.
	Seed []SeedRecord `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// SeedRecord is a record preloaded into a collection.
type SeedRecord struct {
	ID         string         `json:"id" yaml:"id"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// HasMany holds to-many linkage, BelongsTo to-one linkage.
	HasMany   map[string][]Ref `json:"hasMany,omitempty" yaml:"hasMany,omitempty"`
	BelongsTo map[string]Ref   `json:"belongsTo,omitempty" yaml:"belongsTo,omitempty"`
}

// Ref points at a stored record.
type Ref struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// Link is the stored linkage of one relationship.
type Link struct {
	ToMany bool
	Refs   []Ref
}

func (l *Link) add(ref Ref) {
	if !slices.Contains(l.Refs, ref) {
		l.Refs = append(l.Refs, ref)
	}
}

func (l *Link) remove(ref Ref) bool {
	i := slices.Index(l.Refs, ref)
	if i < 0 {
		return false
	}
	l.Refs = slices.Delete(l.Refs, i, i+1)
	return true
}

// Item is one stored record.
type Item struct {
	Type       string
	ID         string
	Attributes map[string]any
	Links      map[string]*Link
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ref returns the reference to the item.
func (it *Item) Ref() Ref { return Ref{Type: it.Type, ID: it.ID} }

// Related returns the references stored for a relationship.
func (it *Item) Related(name string) []Ref {
	if l, ok := it.Links[name]; ok {
		return slices.Clone(l.Refs)
	}
	return nil
}

func (it *Item) clone() *Item {
	out := *it
	out.Attributes = maps.Clone(it.Attributes)
	out.Links = make(map[string]*Link, len(it.Links))
	for name, l := range it.Links {
		out.Links[name] = &Link{ToMany: l.ToMany, Refs: slices.Clone(l.Refs)}
	}
	return &out
}

// Op is a kind of change applied by a request.
type Op string

// Ops reported in a Result.
const (
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpDestroy      Op = "destroy"
	OpDisassociate Op = "disassociate"
	OpReject       Op = "reject"
)

// Change is one record-level effect of a request.
type Change struct {
	Op   Op
	Type string
	// ID is empty for rejected creates.
	ID string
}

// Result is the outcome of a create or update request.
type Result struct {
	Item    *Item
	Changes []Change
}

// Count returns how many changes of op the request made.
func (r *Result) Count(op Op) int {
	n := 0
	for _, c := range r.Changes {
		if c.Op == op {
			n++
		}
	}
	return n
}
