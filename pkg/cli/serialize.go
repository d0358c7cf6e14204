package cli

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/getmockd/sidepost/pkg/directive"
	"github.com/getmockd/sidepost/pkg/fixture"
	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/record"
	"github.com/getmockd/sidepost/pkg/sidepost"
)

type serializeFlags struct {
	relationships  string
	query          string
	plain          bool
	omitAttributes bool
}

func newSerializeCommand(flags *globalFlags) *cobra.Command {
	sf := &serializeFlags{}

	cmd := &cobra.Command{
		Use:   "serialize <fixture>...",
		Short: "Serialize record fixtures into sideposting documents",
		Long: `Load each fixture (a YAML record graph) with the configured models and
print the document a save of its root record would send.

Arguments may be glob patterns, including ** for recursive matches.
The --relationships directive replaces the fixture's own.`,
		Example: `  # Serialize one fixture
  sidepost serialize fixtures/post.yaml

  # Sideload only the tags, then list the temp-ids sent
  sidepost serialize fixtures/post.yaml -r tags --query '$.included[*]["temp-id"]'

  # Every fixture under a directory
  sidepost serialize 'fixtures/**/*.yaml'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSerialize(cmd, flags, sf, args)
		},
	}

	cmd.Flags().StringVarP(&sf.relationships, "relationships", "r", "", `Relationships directive, e.g. "tags,author.state" or "{tags: author}"`)
	cmd.Flags().StringVarP(&sf.query, "query", "q", "", "Print the JSONPath matches instead of the document")
	cmd.Flags().BoolVar(&sf.plain, "plain", false, "Send a stock JSON:API document without sideposting")
	cmd.Flags().BoolVar(&sf.omitAttributes, "omit-attributes", false, "Drop the root attributes block")
	return cmd
}

func runSerialize(cmd *cobra.Command, flags *globalFlags, sf *serializeFlags, patterns []string) error {
	cfg, err := loadConfig(flags.configPath, nil)
	if err != nil {
		return err
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}
	conv, err := cfg.Convention()
	if err != nil {
		return err
	}

	var override directive.Tree
	if cmd.Flags().Changed("relationships") {
		override, err = directive.Decode(sf.relationships)
		if err != nil {
			return err
		}
	}

	paths, err := expandGlobs(patterns)
	if err != nil {
		return err
	}

	log, _, err := newLogger(cfg, cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	serializer := sidepost.NewSerializer(conv, logging.Component(log, "cli"))

	for _, path := range paths {
		fx, err := fixture.LoadFile(record.NewStore(schema), path)
		if err != nil {
			return err
		}
		rels := fx.Relationships
		if override != nil {
			rels = override
		}

		doc, err := serializer.Serialize(fx.Root, sidepost.Options{
			Sideposting:    !sf.plain,
			OmitAttributes: sf.omitAttributes,
			Relationships:  rels,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if sf.query == "" {
			if err := writeJSON(cmd.OutOrStdout(), doc); err != nil {
				return err
			}
			continue
		}
		matches, err := doc.Query(sf.query)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), matches); err != nil {
			return err
		}
	}
	return nil
}

// expandGlobs resolves each pattern to the files it matches, in order and
// without duplicates. A pattern matching nothing is an error.
func expandGlobs(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
