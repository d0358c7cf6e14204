package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/mockserver"
)

// Config is the root of a configuration file.
type Config struct {
	Version string        `json:"version,omitempty" yaml:"version,omitempty"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Naming  NamingConfig  `json:"naming" yaml:"naming"`
	Models  []ModelConfig `json:"models,omitempty" yaml:"models,omitempty"`
}

// ServerConfig configures the mock server.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port" yaml:"port"`
	// MaxBodySize limits request bodies in bytes. Zero selects the server
	// default.
	MaxBodySize int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// StrictTypes rejects requests for types no model declares.
	StrictTypes bool `json:"strictTypes,omitempty" yaml:"strictTypes,omitempty"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	AddSource bool   `json:"addSource,omitempty" yaml:"addSource,omitempty"`
}

// Logging converts the section to a logging.Config.
func (l LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(l.Level)
	cfg.Format = logging.ParseFormat(l.Format)
	cfg.AddSource = l.AddSource
	return cfg
}

// NamingConfig selects the wire naming styles: dasherize, underscore or
// camelize.
type NamingConfig struct {
	Attributes    string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships string `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// ModelConfig declares one record model and its mock server collection.
type ModelConfig struct {
	Name          string               `json:"name" yaml:"name"`
	Attributes    []string             `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Relationships []RelationshipConfig `json:"relationships,omitempty" yaml:"relationships,omitempty"`

	// Include lists relationship names embedded in mock server responses.
	// Empty means all of them.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	// RejectIf is the mock server rule for skipping sideposted creates.
	RejectIf string `json:"rejectIf,omitempty" yaml:"rejectIf,omitempty"`
	// Seed records are loaded into the mock server at startup. Their
	// attribute and relationship keys are wire names.
	Seed []mockserver.SeedRecord `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// RelationshipConfig declares one relationship of a model.
type RelationshipConfig struct {
	Name string `json:"name" yaml:"name"`
	// Kind is belongsTo or hasMany.
	Kind string `json:"kind" yaml:"kind"`
	// Target defaults to the name (belongsTo) or its singular (hasMany).
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Async  bool   `json:"async,omitempty" yaml:"async,omitempty"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Host: "localhost",
			Port: 4200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}
