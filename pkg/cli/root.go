// Package cli implements the sidepost command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	jsonOutput bool
}

// NewRootCommand builds the sidepost command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "sidepost",
		Short: "sidepost serializes record graphs into JSON:API sideposting documents",
		Long: `sidepost turns a graph of records into one JSON:API document that carries
only changed attributes, the relationships you ask for, and a create,
update, destroy or disassociate intent for every related record.

It also runs a mock JSON:API server that understands those documents.

Models are declared in a configuration file (sidepost.yaml), found in the
current directory, through SIDEPOST_CONFIG, or given with --config.`,
		// No Run function here means 'sidepost' with no args will print help text by default.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file (default: discover sidepost.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newVersionCommand(flags),
		newServeCommand(flags),
		newSerializeCommand(flags),
		newValidateCommand(flags),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if h, ok := err.(interface{ Hint() string }); ok && h.Hint() != "" {
			fmt.Fprintln(os.Stderr, "Hint:", h.Hint())
		}
		os.Exit(1)
	}
}

// writeJSON writes indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
