package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/sidepost/pkg/sidepost"
)

// ValidateResult is the JSON output of one validated document.
type ValidateResult struct {
	Source     string               `json:"source"`
	Valid      bool                 `json:"valid"`
	Violations []sidepost.Violation `json:"violations,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func newValidateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.json|->...",
		Short: "Check sideposting documents against the document schema",
		Long: `Validate JSON:API sideposting documents. Use - to read from stdin.

Each violation is printed with the JSON pointer of the offending value.
The command fails when any document is invalid.`,
		Example: `  sidepost validate request.json
  sidepost serialize fixtures/post.yaml | sidepost validate -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]ValidateResult, 0, len(args))
			invalid := 0
			for _, source := range args {
				res := validateSource(cmd.InOrStdin(), source)
				if !res.Valid {
					invalid++
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					printValidateResult(out, res)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d documents invalid", invalid, len(results))
			}
			return nil
		},
	}
}

func validateSource(stdin io.Reader, source string) ValidateResult {
	res := ValidateResult{Source: source}

	var data []byte
	var err error
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	err = sidepost.Validate(data)
	var verr *sidepost.ValidationError
	switch {
	case err == nil:
		res.Valid = true
	case errors.As(err, &verr):
		res.Violations = verr.Violations
	default:
		res.Error = err.Error()
	}
	return res
}

func printValidateResult(w io.Writer, res ValidateResult) {
	if res.Valid {
		fmt.Fprintf(w, "%s: valid\n", res.Source)
		return
	}
	if res.Error != "" {
		fmt.Fprintf(w, "%s: %s\n", res.Source, res.Error)
		return
	}
	fmt.Fprintf(w, "%s: %d violation(s)\n", res.Source, len(res.Violations))
	for _, v := range res.Violations {
		path := v.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(w, "  %s: %s\n", path, v.Message)
	}
}
