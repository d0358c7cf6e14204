package directive

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tree maps relation names to the directive for the related records.
// An empty sub-tree means the relation is walked but nothing below it.
type Tree map[string]Tree

// Error is returned for shorthand that cannot be compiled.
type Error struct {
	// Path is the chain of relation names leading to the bad value.
	Path  []string
	Value any
	// Reason overrides the default message when set.
	Reason string
}

func (e *Error) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("unsupported shorthand of type %T", e.Value)
	}
	if len(e.Path) == 0 {
		return "invalid relationships directive: " + reason
	}
	return fmt.Sprintf("invalid relationships directive at %q: %s", strings.Join(e.Path, "."), reason)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *Error) Hint() string {
	return `Use a relation name, a list, or a mapping such as ["tags", {"author": "state"}].`
}

// Compile turns shorthand into a Tree. Supported shorthand is nil, a
// string, a list of shorthand, and a mapping from relation name to
// shorthand. The input is never partially compiled: any unsupported value
// fails the whole call.
func Compile(shorthand any) (Tree, error) {
	return compile(shorthand, nil)
}

// MustCompile is like Compile but panics on error. It is meant for
// directives written as literals in code.
func MustCompile(shorthand any) Tree {
	t, err := Compile(shorthand)
	if err != nil {
		panic(err)
	}
	return t
}

func compile(v any, path []string) (Tree, error) {
	switch s := v.(type) {
	case nil:
		return Tree{}, nil
	case Tree:
		return s.Clone(), nil
	case string:
		if s == "" {
			return nil, &Error{Path: path, Value: v, Reason: "empty relation name"}
		}
		return Tree{s: {}}, nil
	case []string:
		out := Tree{}
		for _, name := range s {
			sub, err := compile(name, path)
			if err != nil {
				return nil, err
			}
			out.Merge(sub)
		}
		return out, nil
	case []any:
		out := Tree{}
		for _, elem := range s {
			sub, err := compile(elem, path)
			if err != nil {
				return nil, err
			}
			out.Merge(sub)
		}
		return out, nil
	case map[string]string:
		out := Tree{}
		for key, val := range s {
			sub, err := compile(val, appendPath(path, key))
			if err != nil {
				return nil, err
			}
			out.Merge(Tree{key: sub})
		}
		return out, nil
	case map[string][]string:
		out := Tree{}
		for key, val := range s {
			sub, err := compile(val, appendPath(path, key))
			if err != nil {
				return nil, err
			}
			out.Merge(Tree{key: sub})
		}
		return out, nil
	case map[string]any:
		out := Tree{}
		for key, val := range s {
			if key == "" {
				return nil, &Error{Path: path, Value: v, Reason: "empty relation name"}
			}
			sub, err := compile(val, appendPath(path, key))
			if err != nil {
				return nil, err
			}
			out.Merge(Tree{key: sub})
		}
		return out, nil
	case map[string]Tree:
		return Tree(s).Clone(), nil
	default:
		return nil, &Error{Path: path, Value: v}
	}
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

// Merge deep-merges other into t: keys are unioned and sub-trees under a
// shared key are merged recursively. other is not modified.
func (t Tree) Merge(other Tree) {
	for key, sub := range other {
		existing, ok := t[key]
		if !ok || existing == nil {
			t[key] = sub.Clone()
			continue
		}
		existing.Merge(sub)
	}
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for key, sub := range t {
		out[key] = sub.Clone()
	}
	return out
}

// Keys returns the relation names at this level in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two trees have the same shape.
func (t Tree) Equal(other Tree) bool {
	if len(t) != len(other) {
		return false
	}
	for key, sub := range t {
		otherSub, ok := other[key]
		if !ok || !sub.Equal(otherSub) {
			return false
		}
	}
	return true
}

// Paths returns every leaf path of t in sorted order, dot separated.
func (t Tree) Paths() []string {
	var out []string
	for _, key := range t.Keys() {
		sub := t[key]
		if len(sub) == 0 {
			out = append(out, key)
			continue
		}
		for _, p := range sub.Paths() {
			out = append(out, key+"."+p)
		}
	}
	return out
}

// String renders t in include-parameter form, e.g. "author.state,tags".
func (t Tree) String() string {
	return strings.Join(t.Paths(), ",")
}

// Parse reads the include-parameter form: comma separated, dot nested
// relation paths. An empty string yields an empty tree.
func Parse(s string) (Tree, error) {
	out := Tree{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, raw := range strings.Split(s, ",") {
		path := strings.TrimSpace(raw)
		if path == "" {
			return nil, &Error{Value: s, Reason: "empty path in include list"}
		}
		node := out
		for _, name := range strings.Split(path, ".") {
			if name == "" {
				return nil, &Error{Value: s, Reason: fmt.Sprintf("empty relation name in %q", path)}
			}
			next, ok := node[name]
			if !ok {
				next = Tree{}
				node[name] = next
			}
			node = next
		}
	}
	return out, nil
}

// UnmarshalYAML decodes shorthand from YAML and compiles it.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	compiled, err := Compile(raw)
	if err != nil {
		return err
	}
	*t = compiled
	return nil
}

// UnmarshalJSON decodes shorthand from JSON and compiles it.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	compiled, err := Compile(raw)
	if err != nil {
		return err
	}
	*t = compiled
	return nil
}

// Decode reads shorthand written as YAML (which includes JSON), e.g. a
// command line flag value. Plain include-parameter strings such as
// "tags,author.state" are accepted too.
func Decode(text string) (Tree, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decoding relationships directive: %w", err)
	}
	if s, ok := raw.(string); ok {
		return Parse(s)
	}
	return Compile(raw)
}
