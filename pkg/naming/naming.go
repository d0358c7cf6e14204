package naming

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style selects how a name is transformed for the wire.
type Style string

// Supported styles.
const (
	StyleDasherize  Style = "dasherize"
	StyleUnderscore Style = "underscore"
	StyleCamelize   Style = "camelize"
)

var (
	decamelizeRe = regexp.MustCompile(`([a-z\d])([A-Z])`)
	separatorRe  = regexp.MustCompile(`[ _-]+`)

	lower = cases.Lower(language.Und)
	title = cases.Title(language.Und)
)

// Formatter maps record names to wire names.
type Formatter interface {
	KeyForAttribute(name string) string
	KeyForRelationship(name string) string
	TypeForModel(model string) string
}

// Convention is a Formatter configured with one style for attributes and one
// for relationships. Types are always pluralized and dasherized.
type Convention struct {
	Attributes    Style
	Relationships Style
}

// Default returns the JSON:API convention (dasherized keys).
func Default() Convention {
	return Convention{Attributes: StyleDasherize, Relationships: StyleDasherize}
}

// KeyForAttribute returns the wire key for an attribute name.
func (c Convention) KeyForAttribute(name string) string {
	return Apply(c.Attributes, name)
}

// KeyForRelationship returns the wire key for a relationship name.
func (c Convention) KeyForRelationship(name string) string {
	return Apply(c.Relationships, name)
}

// TypeForModel returns the resource type for a model name.
func (c Convention) TypeForModel(model string) string {
	return Pluralize(Dasherize(model))
}

// ParseStyle parses a style name. An empty string selects StyleDasherize.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleDasherize:
		return StyleDasherize, nil
	case StyleUnderscore:
		return StyleUnderscore, nil
	case StyleCamelize:
		return StyleCamelize, nil
	default:
		return "", fmt.Errorf("unsupported naming style %q (valid: %s, %s, %s)", s, StyleDasherize, StyleUnderscore, StyleCamelize)
	}
}

// Apply transforms name with the given style. Unknown styles leave the
// name untouched.
func Apply(style Style, name string) string {
	switch style {
	case StyleDasherize:
		return Dasherize(name)
	case StyleUnderscore:
		return Underscore(name)
	case StyleCamelize:
		return Camelize(name)
	default:
		return name
	}
}

// Decamelize lowercases camel case boundaries with underscores:
// "innerHTML" → "inner_html", "publishedDate" → "published_date".
func Decamelize(s string) string {
	return lower.String(decamelizeRe.ReplaceAllString(s, "${1}_${2}"))
}

// Dasherize converts a name to lower case words joined by dashes.
func Dasherize(s string) string {
	return separatorRe.ReplaceAllString(Decamelize(s), "-")
}

// Underscore converts a name to lower case words joined by underscores.
func Underscore(s string) string {
	return separatorRe.ReplaceAllString(Decamelize(s), "_")
}

// Camelize converts dashed, underscored or spaced words to lower camel case.
func Camelize(s string) string {
	parts := separatorRe.Split(s, -1)
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(strings.ToLower(p[:1]) + p[1:])
			continue
		}
		b.WriteString(title.String(p[:1]) + p[1:])
	}
	return b.String()
}
