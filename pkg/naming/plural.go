package naming

import "strings"

var irregularPlurals = map[string]string{
	"person": "people",
	"man":    "men",
	"woman":  "women",
	"child":  "children",
	"mouse":  "mice",
	"goose":  "geese",
	"ox":     "oxen",
}

var uncountable = map[string]bool{
	"equipment":   true,
	"information": true,
	"news":        true,
	"series":      true,
	"sheep":       true,
	"species":     true,
	"fish":        true,
	"metadata":    true,
}

// Pluralize returns the English plural of a dasherized name. Only the last
// dash-separated word is inflected: "blog-post" → "blog-posts".
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	prefix, word := "", s
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		prefix, word = s[:i+1], s[i+1:]
	}
	return prefix + pluralizeWord(word)
}

func pluralizeWord(w string) string {
	lw := strings.ToLower(w)
	if uncountable[lw] {
		return w
	}
	if p, ok := irregularPlurals[lw]; ok {
		return p
	}
	switch {
	case strings.HasSuffix(lw, "s"), strings.HasSuffix(lw, "x"), strings.HasSuffix(lw, "z"),
		strings.HasSuffix(lw, "ch"), strings.HasSuffix(lw, "sh"):
		return w + "es"
	case strings.HasSuffix(lw, "y") && len(lw) > 1 && !isVowel(lw[len(lw)-2]):
		return w[:len(w)-1] + "ies"
	default:
		return w + "s"
	}
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

// Singularize is the inverse of Pluralize for the forms Pluralize produces.
func Singularize(s string) string {
	if s == "" {
		return s
	}
	prefix, word := "", s
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		prefix, word = s[:i+1], s[i+1:]
	}
	return prefix + singularizeWord(word)
}

func singularizeWord(w string) string {
	lw := strings.ToLower(w)
	if uncountable[lw] {
		return w
	}
	for single, plural := range irregularPlurals {
		if lw == plural {
			return single
		}
	}
	switch {
	case strings.HasSuffix(lw, "ies") && len(lw) > 3:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(lw, "sses"), strings.HasSuffix(lw, "xes"), strings.HasSuffix(lw, "zes"),
		strings.HasSuffix(lw, "ches"), strings.HasSuffix(lw, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(lw, "ss"):
		return w
	case strings.HasSuffix(lw, "s"):
		return w[:len(w)-1]
	default:
		return w
	}
}
