package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

const blogYAML = `
server:
  port: 4300
log:
  level: debug
  format: json
naming:
  attributes: underscore
models:
  - name: post
    attributes: [title, publishedDate]
    relationships:
      - {name: author, kind: belongsTo}
      - {name: tags, kind: hasMany}
      - {name: coAuthor, kind: belongsTo, target: author}
    include: [author, coAuthor]
  - name: author
    attributes: [name]
  - name: tag
    attributes: [name]
    rejectIf: never
    seed:
      - id: "7"
        attributes: {name: seeded}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "sidepost.yaml", blogYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4300, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "defaults survive a partial file")
	assert.Equal(t, "localhost:4300", cfg.Server.Address())
	assert.Len(t, cfg.Models, 3)

	logCfg := cfg.Log.Logging()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.Equal(t, logging.FormatJSON, logCfg.Format)
}

func TestLoadFromFile_JSON(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "sidepost.json", `{"server":{"port":5000},"models":[{"name":"tag","attributes":["name"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, want: ErrFileNotFound},
		{name: "empty", path: func(t *testing.T) string { return writeFile(t, "empty.yaml", "  \n") }, want: ErrEmptyFile},
		{name: "bad yaml", path: func(t *testing.T) string { return writeFile(t, "bad.yaml", "server: [") }, want: ErrInvalidYAML},
		{name: "bad json", path: func(t *testing.T) string { return writeFile(t, "bad.json", "{ invalid json }") }, want: ErrInvalidJSON},
		{name: "wrong json shape", path: func(t *testing.T) string { return writeFile(t, "shape.json", `{"server":{"port":"x"}}`) }, want: ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(tt.path(t))
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadFromFile(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("BLOG_PORT", "4999")
	cfg, err := LoadFromFile(writeFile(t, "env.yaml", "server:\n  port: ${BLOG_PORT}\n  host: ${BLOG_HOST:-0.0.0.0}\n"))
	require.NoError(t, err)
	assert.Equal(t, 4999, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SIDEPOST_TEST_SET", "value")
	assert.Equal(t, "value", ExpandEnvVars("${SIDEPOST_TEST_SET}"))
	assert.Equal(t, "value", ExpandEnvVars("${SIDEPOST_TEST_SET:-other}"))
	assert.Equal(t, "other", ExpandEnvVars("${SIDEPOST_TEST_UNSET:-other}"))
	assert.Equal(t, "", ExpandEnvVars("${SIDEPOST_TEST_UNSET}"))
	assert.Equal(t, "$NOT_BRACED", ExpandEnvVars("$NOT_BRACED"))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvLogFormat, "json")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv(EnvPort, "http")
	var verr *ValidationError
	require.ErrorAs(t, ApplyEnv(cfg), &verr)
	assert.Equal(t, EnvPort, verr.Field)
}

func TestLoad(t *testing.T) {
	t.Run("explicit path with env override", func(t *testing.T) {
		t.Setenv(EnvPort, "9000")
		cfg, err := Load(writeFile(t, "sidepost.yaml", blogYAML))
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
	})

	t.Run("SIDEPOST_CONFIG", func(t *testing.T) {
		t.Setenv(EnvConfig, writeFile(t, "custom.yaml", "server:\n  port: 4400\n"))
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 4400, cfg.Server.Port)
	})

	t.Run("SIDEPOST_CONFIG missing", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "gone.yaml"))
		_, err := Load("")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "log:\n  level: loud\n"))
		assert.ErrorContains(t, err, "log.level")
	})
}

func TestDiscover(t *testing.T) {
	t.Setenv(EnvConfig, "")
	dir := t.TempDir()

	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidepost.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidepost.yml"), []byte("{}"), 0644))
	path, err = Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sidepost.yml"), path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }, field: "server.port"},
		{name: "body size", mutate: func(c *Config) { c.Server.MaxBodySize = -1 }, field: "server.maxBodySize"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, field: "log.level"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, field: "log.format"},
		{name: "naming", mutate: func(c *Config) { c.Naming.Attributes = "shout" }, field: "naming.attributes"},
		{name: "model name", mutate: func(c *Config) { c.Models = []ModelConfig{{}} }, field: "models[0].name"},
		{name: "kind", mutate: func(c *Config) {
			c.Models = []ModelConfig{{Name: "post", Relationships: []RelationshipConfig{{Name: "tags", Kind: "several"}}}}
		}, field: "models[0].relationships[0].kind"},
		{name: "include", mutate: func(c *Config) {
			c.Models = []ModelConfig{{Name: "post", Include: []string{"tags"}}}
		}, field: "models[0].include"},
		{name: "unknown target", mutate: func(c *Config) {
			c.Models = []ModelConfig{{Name: "post", Relationships: []RelationshipConfig{{Name: "tags", Kind: "hasMany"}}}}
		}, field: "models"},
		{name: "duplicate model", mutate: func(c *Config) {
			c.Models = []ModelConfig{{Name: "tag"}, {Name: "tag"}}
		}, field: "models"},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestConfig_Schema(t *testing.T) {
	cfg, err := ParseYAML([]byte(blogYAML))
	require.NoError(t, err)

	schema, err := cfg.Schema()
	require.NoError(t, err)

	post, err := schema.Model("post")
	require.NoError(t, err)
	tags, ok := post.Relationship("tags")
	require.True(t, ok)
	assert.Equal(t, record.HasMany, tags.Kind)
	assert.Equal(t, "tag", tags.Target)

	coAuthor, ok := post.Relationship("coAuthor")
	require.True(t, ok)
	assert.Equal(t, "author", coAuthor.Target)
}

func TestConfig_ConventionAndCollections(t *testing.T) {
	cfg, err := ParseYAML([]byte(blogYAML))
	require.NoError(t, err)

	conv, err := cfg.Convention()
	require.NoError(t, err)
	assert.Equal(t, naming.StyleUnderscore, conv.Attributes)
	assert.Equal(t, naming.StyleDasherize, conv.Relationships)

	collections, err := cfg.Collections()
	require.NoError(t, err)
	require.Len(t, collections, 3)
	assert.Equal(t, "posts", collections[0].Type)
	assert.Equal(t, []string{"author", "co-author"}, collections[0].Include)
	assert.Equal(t, "never", collections[2].RejectIf)

	store, err := cfg.MockStore()
	require.NoError(t, err)
	assert.Equal(t, []string{"authors", "posts", "tags"}, store.Types())
	seeded, err := store.Get("tags", "7")
	require.NoError(t, err)
	assert.Equal(t, "seeded", seeded.Attributes["name"])
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	cfg, err := ParseYAML([]byte(blogYAML))
	require.NoError(t, err)

	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, SaveToFile(path, cfg))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Server, loaded.Server)
			assert.Equal(t, cfg.Naming, loaded.Naming)
			require.Len(t, loaded.Models, 3)
			assert.Equal(t, cfg.Models[0].Relationships, loaded.Models[0].Relationships)
		})
	}

	_, err = ToYAML(nil)
	assert.Error(t, err)
}
