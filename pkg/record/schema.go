package record

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getmockd/sidepost/pkg/naming"
)

// Kind is the cardinality of a relationship.
type Kind uint8

// Relationship kinds.
const (
	// BelongsTo is a to-one relationship.
	BelongsTo Kind = iota + 1
	// HasMany is a to-many relationship.
	HasMany
)

func (k Kind) String() string {
	switch k {
	case BelongsTo:
		return "belongsTo"
	case HasMany:
		return "hasMany"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a relationship kind. Accepted spellings are
// belongsTo/hasMany, to-one/to-many and one-to-one/one-to-many.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "belongsto", "to-one", "one-to-one", "one":
		return BelongsTo, nil
	case "hasmany", "to-many", "one-to-many", "many":
		return HasMany, nil
	default:
		return 0, fmt.Errorf("unsupported relationship kind %q (valid: belongsTo, hasMany)", s)
	}
}

// Relationship is the metadata of one declared relationship.
type Relationship struct {
	// Name is the relationship name on the owning model (e.g. "tags").
	Name string
	// Kind is BelongsTo or HasMany.
	Kind Kind
	// Target is the related model name. Defaults to Name for BelongsTo and
	// the singular of Name for HasMany.
	Target string
	// Async marks relationships whose linkage is not loaded together with
	// the record. An async to-many that was never loaded is absent rather
	// than empty.
	Async bool
}

// IsToMany reports whether the relationship is a HasMany.
func (r Relationship) IsToMany() bool { return r.Kind == HasMany }

// Model declares the attributes and relationships of one record type.
type Model struct {
	Name          string
	Attributes    []string
	Relationships []Relationship
}

// HasAttribute reports whether name is a declared attribute.
func (m *Model) HasAttribute(name string) bool {
	for _, a := range m.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Relationship returns the declared relationship called name.
func (m *Model) Relationship(name string) (Relationship, bool) {
	for _, rel := range m.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Schema is the registry of models known to a Store.
type Schema struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// NewSchema creates a schema and registers the given models. Relationship
// targets are checked once all models are registered.
func NewSchema(models ...*Model) (*Schema, error) {
	s := &Schema{models: make(map[string]*Model)}
	for _, m := range models {
		if err := s.Register(m); err != nil {
			return nil, err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds a model. Relationship targets left empty are inferred from
// the relationship name.
func (s *Schema) Register(m *Model) error {
	if m == nil {
		return errors.New("model cannot be nil")
	}
	if m.Name == "" {
		return errors.New("model name cannot be empty")
	}

	seen := make(map[string]bool, len(m.Attributes)+len(m.Relationships))
	for _, a := range m.Attributes {
		if a == "" {
			return fmt.Errorf("model %q: attribute name cannot be empty", m.Name)
		}
		if seen[a] {
			return fmt.Errorf("model %q: duplicate field %q", m.Name, a)
		}
		seen[a] = true
	}
	for i := range m.Relationships {
		rel := &m.Relationships[i]
		if rel.Name == "" {
			return fmt.Errorf("model %q: relationship name cannot be empty", m.Name)
		}
		if seen[rel.Name] {
			return fmt.Errorf("model %q: duplicate field %q", m.Name, rel.Name)
		}
		seen[rel.Name] = true
		if rel.Kind != BelongsTo && rel.Kind != HasMany {
			return fmt.Errorf("model %q: relationship %q has no kind", m.Name, rel.Name)
		}
		if rel.Target == "" {
			rel.Target = rel.Name
			if rel.Kind == HasMany {
				rel.Target = naming.Singularize(rel.Name)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[m.Name]; exists {
		return fmt.Errorf("model %q already registered", m.Name)
	}
	s.models[m.Name] = m
	s.order = append(s.order, m.Name)
	return nil
}

// Validate checks that every relationship targets a registered model.
func (s *Schema) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.order {
		for _, rel := range s.models[name].Relationships {
			if _, ok := s.models[rel.Target]; !ok {
				return fmt.Errorf("model %q: relationship %q targets unknown model %q", name, rel.Name, rel.Target)
			}
		}
	}
	return nil
}

// Model returns the model registered under name.
func (s *Schema) Model(name string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[name]
	if !ok {
		return nil, &UnknownModelError{Model: name}
	}
	return m, nil
}

// Models returns all models in registration order.
func (s *Schema) Models() []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Model, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name])
	}
	return out
}
