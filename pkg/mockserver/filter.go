package mockserver

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ListQuery narrows and orders a collection listing.
type ListQuery struct {
	// Filters holds exact-match conditions keyed by attribute name, or "id".
	Filters map[string]string
	// Sort is an attribute name, "id", "createdAt" or "updatedAt". A leading
	// "-" sorts descending. Empty keeps insertion order.
	Sort string
}

// ParseListQuery reads filter[name]=value and sort parameters.
func ParseListQuery(values url.Values) ListQuery {
	q := ListQuery{Filters: make(map[string]string), Sort: values.Get("sort")}
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") || len(vals) == 0 {
			continue
		}
		field := key[len("filter[") : len(key)-1]
		if field != "" {
			q.Filters[field] = vals[0]
		}
	}
	return q
}

// Apply filters and sorts items in place and returns the result.
func (q ListQuery) Apply(items []*Item) []*Item {
	result := make([]*Item, 0, len(items))
	for _, item := range items {
		if q.matches(item) {
			result = append(result, item)
		}
	}
	if q.Sort != "" {
		field, desc := strings.CutPrefix(q.Sort, "-")
		sort.SliceStable(result, func(i, j int) bool {
			vi, vj := fieldValue(result[i], field), fieldValue(result[j], field)
			if desc {
				return compareValues(vj, vi)
			}
			return compareValues(vi, vj)
		})
	}
	return result
}

func (q ListQuery) matches(item *Item) bool {
	for field, value := range q.Filters {
		if fmt.Sprintf("%v", fieldValue(item, field)) != value {
			return false
		}
	}
	return true
}

func fieldValue(item *Item, field string) any {
	switch field {
	case "id":
		return item.ID
	case "createdAt":
		return item.CreatedAt
	case "updatedAt":
		return item.UpdatedAt
	default:
		return item.Attributes[field]
	}
}

// compareValues orders strings, numbers and times; anything else is
// compared by its string form. Sequential ids compare numerically.
func compareValues(a, b any) bool {
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			if len(va) != len(vb) && isDigits(va) && isDigits(vb) {
				return len(va) < len(vb)
			}
			return va < vb
		}
	case int:
		if vb, ok := b.(int); ok {
			return va < vb
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return va < vb
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return va < vb
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Before(vb)
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
