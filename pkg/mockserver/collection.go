package mockserver

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/sidepost/internal/id"
)

const allBlankExpr = `all(values(attributes), blank(#))`

// collection holds the records of one type. It is guarded by the Store lock.
type collection struct {
	typ      string
	include  []string
	rejectIf string
	reject   *vm.Program
	items    map[string]*Item
	order    []string
	seq      id.Sequence
}

func newCollection(cfg CollectionConfig) (*collection, error) {
	c := &collection{
		typ:      cfg.Type,
		include:  slices.Clone(cfg.Include),
		rejectIf: cfg.RejectIf,
		items:    make(map[string]*Item),
	}

	source := strings.TrimSpace(cfg.RejectIf)
	switch source {
	case "", RejectAllBlank:
		source = allBlankExpr
		c.rejectIf = RejectAllBlank
	case RejectNever:
		source = "false"
	}
	program, err := expr.Compile(source, expr.Env(rejectEnv(cfg.Type, nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("collection %q: invalid rejectIf expression: %w", cfg.Type, err)
	}
	c.reject = program
	return c, nil
}

func rejectEnv(typ string, attrs map[string]any) map[string]any {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return map[string]any{
		"type":       typ,
		"attributes": attrs,
		"blank":      isBlank,
	}
}

// isBlank reports whether v counts as blank for the all_blank rule.
func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

func (c *collection) rejects(attrs map[string]any) (bool, error) {
	out, err := expr.Run(c.reject, rejectEnv(c.typ, attrs))
	if err != nil {
		return false, fmt.Errorf("collection %q: rejectIf: %w", c.typ, err)
	}
	rejected, _ := out.(bool)
	return rejected, nil
}

func (c *collection) create(attrs map[string]any) *Item {
	return c.insert(c.seq.Next(), attrs)
}

func (c *collection) insert(itemID string, attrs map[string]any) *Item {
	c.seq.Observe(itemID)
	now := time.Now()
	item := &Item{
		Type:       c.typ,
		ID:         itemID,
		Attributes: maps.Clone(attrs),
		Links:      make(map[string]*Link),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if item.Attributes == nil {
		item.Attributes = make(map[string]any)
	}
	if _, exists := c.items[itemID]; !exists {
		c.order = append(c.order, itemID)
	}
	c.items[itemID] = item
	return item
}

func (c *collection) get(itemID string) (*Item, error) {
	item, ok := c.items[itemID]
	if !ok {
		return nil, &NotFoundError{Type: c.typ, ID: itemID}
	}
	return item, nil
}

func (c *collection) delete(itemID string) bool {
	if _, ok := c.items[itemID]; !ok {
		return false
	}
	delete(c.items, itemID)
	if i := slices.Index(c.order, itemID); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

func (c *collection) list() []*Item {
	out := make([]*Item, 0, len(c.order))
	for _, itemID := range c.order {
		out = append(out, c.items[itemID])
	}
	return out
}

func (c *collection) includes(name string) bool {
	return len(c.include) == 0 || slices.Contains(c.include, name)
}

// collectionState is a deep copy of a collection's records, used to roll
// back a failed request. The id sequence is not rolled back.
type collectionState struct {
	items map[string]*Item
	order []string
}

func (c *collection) snapshot() collectionState {
	state := collectionState{
		items: make(map[string]*Item, len(c.items)),
		order: slices.Clone(c.order),
	}
	for k, v := range c.items {
		state.items[k] = v.clone()
	}
	return state
}

func (c *collection) restore(state collectionState) {
	c.items = state.items
	c.order = state.order
}

func (it *Item) update(attrs map[string]any) {
	for k, v := range attrs {
		it.Attributes[k] = v
	}
	it.UpdatedAt = time.Now()
}
