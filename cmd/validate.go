package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/finextract/internal/schema"
	"github.com/sells-group/finextract/internal/validate"
)

var validateOut string

var validateCmd = &cobra.Command{
	Use:   "validate <statement.json>",
	Short: "Run validation checks on a mapped statement",
	Long:  "Checks the accounting equation, numeric values, subtotals, cross-year consistency, and unmapped items. Exits non-zero when any check errors.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		var st schema.Statement
		if err := json.Unmarshal(data, &st); err != nil {
			return eris.Wrapf(err, "parse %s", args[0])
		}

		result, err := validate.Validate(&st)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		if validateOut != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal validation result")
			}
			if err := os.WriteFile(validateOut, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", validateOut)
			}
		}

		if result.Status == schema.StatusFail {
			return fmt.Errorf("validation failed with %d error(s)", result.TotalErrors)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateOut, "out", "", "also write the validation result JSON to this path")
	rootCmd.AddCommand(validateCmd)
}
