package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

var validLogLevels = map[string]bool{
	"":        true,
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validLogFormats = map[string]bool{
	"":     true,
	"text": true,
	"json": true,
}

// Validate checks the configuration. Every problem found is reported,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, &ValidationError{Field: "server.port", Message: fmt.Sprintf("must be between 0 and 65535, got %d", c.Server.Port)})
	}
	if c.Server.MaxBodySize < 0 {
		errs = append(errs, &ValidationError{Field: "server.maxBodySize", Message: "cannot be negative"})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q (valid: debug, info, warn, error)", c.Log.Level)})
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q (valid: text, json)", c.Log.Format)})
	}
	if _, err := naming.ParseStyle(c.Naming.Attributes); err != nil {
		errs = append(errs, &ValidationError{Field: "naming.attributes", Message: err.Error()})
	}
	if _, err := naming.ParseStyle(c.Naming.Relationships); err != nil {
		errs = append(errs, &ValidationError{Field: "naming.relationships", Message: err.Error()})
	}

	for i, m := range c.Models {
		field := fmt.Sprintf("models[%d]", i)
		if m.Name == "" {
			errs = append(errs, &ValidationError{Field: field + ".name", Message: "is required"})
			continue
		}
		for j, rel := range m.Relationships {
			if _, err := record.ParseKind(rel.Kind); err != nil {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("%s.relationships[%d].kind", field, j), Message: err.Error()})
			}
		}
		for _, name := range m.Include {
			if !declaresRelationship(m, name) {
				errs = append(errs, &ValidationError{Field: field + ".include", Message: fmt.Sprintf("%q is not a relationship of %s", name, m.Name)})
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if _, err := c.Schema(); err != nil {
		return &ValidationError{Field: "models", Message: err.Error()}
	}
	return nil
}

func declaresRelationship(m ModelConfig, name string) bool {
	for _, rel := range m.Relationships {
		if rel.Name == name {
			return true
		}
	}
	return false
}
