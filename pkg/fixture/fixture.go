// Package fixture builds record graphs from YAML descriptions, for the
// serialize command and for tests.
//
//	root: post
//	relationships: [tags, {author: state}]
//	records:
//	  - key: post
//	    model: post
//	    id: "1"
//	    attributes: {title: Hello}
//	    changes: {title: Hello again}
//	    relationships:
//	      author: joe
//	      tags: [go, draft]
//	    removals:
//	      tags: [draft]
//	  - key: joe
//	    model: author
//	    attributes: {name: Joe}
//	  - {key: go, model: tag, id: "3", state: destroy}
//	  - {key: draft, model: tag, id: "4"}
//
// Records with an id are loaded as persisted, their attributes canonical.
// Records without one are new. Changes are applied afterwards and make a
// record dirty. A relationship given as a list is to-many, a single key is
// to-one, and null clears it.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/sidepost/pkg/directive"
	"github.com/getmockd/sidepost/pkg/record"
)

// File is the YAML form of a fixture.
type File struct {
	// Root is the key of the record to serialize.
	Root string `yaml:"root"`
	// Relationships is the default relationships directive.
	Relationships directive.Tree `yaml:"relationships,omitempty"`
	Records       []RecordSpec   `yaml:"records"`
}

// RecordSpec describes one record.
type RecordSpec struct {
	Key           string             `yaml:"key"`
	Model         string             `yaml:"model"`
	ID            string             `yaml:"id,omitempty"`
	Attributes    map[string]any     `yaml:"attributes,omitempty"`
	Changes       map[string]any     `yaml:"changes,omitempty"`
	State         string             `yaml:"state,omitempty"`
	Relationships map[string]Linkage `yaml:"relationships,omitempty"`
	// Removals lists, per to-many relationship, the members marked for
	// many-to-many removal.
	Removals map[string][]string `yaml:"removals,omitempty"`
}

// Linkage is a relationship value: one key, a list of keys, or null.
type Linkage struct {
	Many bool
	Keys []string
}

// UnmarshalYAML accepts a scalar key, a sequence of keys, or null.
func (l *Linkage) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = Linkage{}
			return nil
		}
		*l = Linkage{Keys: []string{node.Value}}
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		*l = Linkage{Many: true, Keys: keys}
		return nil
	default:
		return fmt.Errorf("line %d: relationship must be a record key or a list of keys", node.Line)
	}
}

// Fixture is a loaded record graph.
type Fixture struct {
	Root          *record.Record
	Relationships directive.Tree
	// Records maps fixture keys to records.
	Records map[string]*record.Record
}

// Record returns the record loaded for key.
func (f *Fixture) Record(key string) (*record.Record, bool) {
	r, ok := f.Records[key]
	return r, ok
}

// Parse decodes a fixture document. Unknown fields are errors.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("fixture is empty")
		}
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads and loads the fixture at path into store.
func LoadFile(store *record.Store, path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fx, err := f.Load(store)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// Load creates the records of f in store and wires them together.
func (f *File) Load(store *record.Store) (*Fixture, error) {
	fx := &Fixture{
		Relationships: f.Relationships,
		Records:       make(map[string]*record.Record, len(f.Records)),
	}

	for i, spec := range f.Records {
		if spec.Key == "" {
			return nil, fmt.Errorf("records[%d]: key is required", i)
		}
		if _, dup := fx.Records[spec.Key]; dup {
			return nil, fmt.Errorf("records[%d]: duplicate key %q", i, spec.Key)
		}

		var (
			r   *record.Record
			err error
		)
		if spec.ID != "" {
			r, err = store.Push(spec.Model, spec.ID, spec.Attributes)
		} else {
			r, err = store.CreateRecord(spec.Model, spec.Attributes)
		}
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", spec.Key, err)
		}
		fx.Records[spec.Key] = r
	}

	for _, spec := range f.Records {
		if err := fx.wire(spec); err != nil {
			return nil, fmt.Errorf("record %q: %w", spec.Key, err)
		}
	}

	if f.Root != "" {
		root, ok := fx.Records[f.Root]
		if !ok {
			return nil, fmt.Errorf("root %q is not a record key", f.Root)
		}
		fx.Root = root
	} else if len(f.Records) > 0 {
		fx.Root = fx.Records[f.Records[0].Key]
	}
	return fx, nil
}

func (fx *Fixture) wire(spec RecordSpec) error {
	r := fx.Records[spec.Key]

	for name, link := range spec.Relationships {
		members, err := fx.lookup(link.Keys)
		if err != nil {
			return err
		}
		if link.Many {
			err = r.SetHasMany(name, members)
		} else {
			var one *record.Record
			if len(members) > 0 {
				one = members[0]
			}
			err = r.SetBelongsTo(name, one)
		}
		if err != nil {
			return err
		}
	}

	for name, value := range spec.Changes {
		if err := r.Set(name, value); err != nil {
			return err
		}
	}

	state, err := record.ParseLifecycle(spec.State)
	if err != nil {
		return err
	}
	switch state {
	case record.MarkedForDeletion:
		r.MarkForDeletion()
	case record.MarkedForDestruction:
		if err := r.MarkForDestruction(); err != nil {
			return err
		}
	}

	for name, keys := range spec.Removals {
		members, err := fx.lookup(keys)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := r.MarkManyToManyDeletion(name, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (fx *Fixture) lookup(keys []string) ([]*record.Record, error) {
	out := make([]*record.Record, 0, len(keys))
	for _, key := range keys {
		r, ok := fx.Records[key]
		if !ok {
			return nil, fmt.Errorf("unknown record key %q", key)
		}
		out = append(out, r)
	}
	return out, nil
}
