package sidepost

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MediaType is the JSON:API media type used for requests and responses.
const MediaType = "application/vnd.api+json"

// Method is the intended mutation of a related record.
type Method string

// Methods. The zero value means the record is referenced unchanged.
const (
	MethodNone         Method = ""
	MethodCreate       Method = "create"
	MethodUpdate       Method = "update"
	MethodDestroy      Method = "destroy"
	MethodDisassociate Method = "disassociate"
)

// ParseMethod parses a method name. An empty string is MethodNone.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodNone, MethodCreate, MethodUpdate, MethodDestroy, MethodDisassociate:
		return m, nil
	default:
		return MethodNone, fmt.Errorf("unknown method %q (valid: create, update, destroy, disassociate)", s)
	}
}

// Document is a sideposting request or response document.
type Document struct {
	Data     *Resource   `json:"data"`
	Included []*Resource `json:"included,omitempty"`
}

// Resource is a resource object. In linkage only the identifier fields
// are used; in included entries Method is always empty.
type Resource struct {
	Type          string                   `json:"type"`
	ID            string                   `json:"id,omitempty"`
	TempID        string                   `json:"temp-id,omitempty"`
	Method        Method                   `json:"method,omitempty"`
	Attributes    map[string]any           `json:"attributes,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
}

// Identifier returns the resource identifier of r, attributes and
// relationships stripped.
func (r *Resource) Identifier() *Identifier {
	return &Identifier{Type: r.Type, ID: r.ID, TempID: r.TempID, Method: r.Method}
}

// Key returns the identity of r within a document.
func (r *Resource) Key() ResourceKey {
	return keyOf(r.Type, r.ID, r.TempID)
}

// Identifier references a resource from relationship linkage.
type Identifier struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	TempID string `json:"temp-id,omitempty"`
	Method Method `json:"method,omitempty"`
}

// Key returns the identity of the referenced resource.
func (i *Identifier) Key() ResourceKey {
	return keyOf(i.Type, i.ID, i.TempID)
}

// ResourceKey identifies a resource by type and id, or by type and temp-id
// for resources the server has not seen.
type ResourceKey struct {
	Type   string
	ID     string
	TempID string
}

func keyOf(typ, id, tempID string) ResourceKey {
	if id != "" {
		return ResourceKey{Type: typ, ID: id}
	}
	return ResourceKey{Type: typ, TempID: tempID}
}

func (k ResourceKey) String() string {
	if k.ID != "" {
		return k.Type + ":" + k.ID
	}
	return k.Type + ":temp-" + k.TempID
}

// Relationship is the linkage of one relationship. A to-many linkage is
// always encoded as an array, even when empty.
type Relationship struct {
	ToMany bool
	One    *Identifier
	Many   []*Identifier
}

// ToOne returns a to-one linkage. A nil identifier encodes as null.
func ToOne(id *Identifier) *Relationship {
	return &Relationship{One: id}
}

// ToMany returns a to-many linkage.
func ToMany(ids ...*Identifier) *Relationship {
	if ids == nil {
		ids = []*Identifier{}
	}
	return &Relationship{ToMany: true, Many: ids}
}

// Identifiers returns the referenced identifiers of either cardinality.
func (r *Relationship) Identifiers() []*Identifier {
	if r.ToMany {
		return r.Many
	}
	if r.One == nil {
		return nil
	}
	return []*Identifier{r.One}
}

type relationshipJSON struct {
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the linkage as {"data": ...}.
func (r *Relationship) MarshalJSON() ([]byte, error) {
	var data any
	if r.ToMany {
		many := r.Many
		if many == nil {
			many = []*Identifier{}
		}
		data = many
	} else {
		data = r.One
	}
	return json.Marshal(struct {
		Data any `json:"data"`
	}{Data: data})
}

// UnmarshalJSON decodes {"data": ...}, choosing the cardinality from the
// shape of data.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var raw relationshipJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data := bytes.TrimSpace(raw.Data)
	*r = Relationship{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		r.ToMany = true
		r.Many = []*Identifier{}
		return json.Unmarshal(data, &r.Many)
	default:
		r.One = &Identifier{}
		return json.Unmarshal(data, r.One)
	}
}

// Find returns the resource with the given key from data or included.
func (d *Document) Find(key ResourceKey) *Resource {
	if d.Data != nil && d.Data.Key() == key {
		return d.Data
	}
	for _, res := range d.Included {
		if res.Key() == key {
			return res
		}
	}
	return nil
}

// Marshal encodes the document with stable key order.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Decode parses a document and checks that it has primary data.
func Decode(b []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("decoding document: missing primary data")
	}
	return &doc, nil
}
