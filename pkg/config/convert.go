package config

import (
	"fmt"

	"github.com/getmockd/sidepost/pkg/mockserver"
	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

// Schema builds the record schema declared by Models.
func (c *Config) Schema() (*record.Schema, error) {
	models := make([]*record.Model, 0, len(c.Models))
	for _, mc := range c.Models {
		m := &record.Model{
			Name:       mc.Name,
			Attributes: append([]string(nil), mc.Attributes...),
		}
		for _, rc := range mc.Relationships {
			kind, err := record.ParseKind(rc.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", mc.Name, rc.Name, err)
			}
			m.Relationships = append(m.Relationships, record.Relationship{
				Name:   rc.Name,
				Kind:   kind,
				Target: rc.Target,
				Async:  rc.Async,
			})
		}
		models = append(models, m)
	}
	return record.NewSchema(models...)
}

// Convention returns the naming convention of the Naming section.
func (c *Config) Convention() (naming.Convention, error) {
	attrs, err := naming.ParseStyle(c.Naming.Attributes)
	if err != nil {
		return naming.Convention{}, err
	}
	rels, err := naming.ParseStyle(c.Naming.Relationships)
	if err != nil {
		return naming.Convention{}, err
	}
	return naming.Convention{Attributes: attrs, Relationships: rels}, nil
}

// Collections returns one mock server collection per model, keyed by the
// wire type of the model. Include names are converted to wire keys.
func (c *Config) Collections() ([]mockserver.CollectionConfig, error) {
	conv, err := c.Convention()
	if err != nil {
		return nil, err
	}

	out := make([]mockserver.CollectionConfig, 0, len(c.Models))
	for _, m := range c.Models {
		cc := mockserver.CollectionConfig{
			Type:     conv.TypeForModel(m.Name),
			RejectIf: m.RejectIf,
			Seed:     m.Seed,
		}
		for _, name := range m.Include {
			cc.Include = append(cc.Include, conv.KeyForRelationship(name))
		}
		out = append(out, cc)
	}
	return out, nil
}

// MockStore builds a mock server store with every model registered.
func (c *Config) MockStore() (*mockserver.Store, error) {
	collections, err := c.Collections()
	if err != nil {
		return nil, err
	}

	var opts []mockserver.StoreOption
	if c.Server.StrictTypes {
		opts = append(opts, mockserver.WithStrictTypes())
	}
	store := mockserver.NewStore(opts...)
	for _, cc := range collections {
		if err := store.Register(cc); err != nil {
			return nil, err
		}
	}
	return store, nil
}
