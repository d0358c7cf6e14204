// Package directive compiles relationship shorthand into a directive tree.
//
// A directive tree names which relationships of a record graph are walked
// during serialization and how deep. Shorthand may be given as a string,
// a list, a mapping, or any nesting of those:
//
//	"tags"                          -> {tags: {}}
//	[]any{"tags", "author"}         -> {tags: {}, author: {}}
//	map[string]any{"author": "state"} -> {author: {state: {}}}
//	[]any{"author", map[string]any{"author": "state"}} -> {author: {state: {}}}
//
// Lists are merged deeply, so a bare relation and a nested refinement of
// the same relation combine regardless of their order. Parse accepts the
// JSON:API include-parameter form ("tags,author.state") and a Tree can be
// decoded directly from YAML or JSON shorthand.
package directive
