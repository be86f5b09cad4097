package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect extraction run history",
	Long:  "Commands for listing and viewing extraction runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extraction runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		sourceFile, _ := cmd.Flags().GetString("file")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			Status:     model.RunStatus(status),
			SourceFile: sourceFile,
			Limit:      limit,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs reports --

var runsReportsCmd = &cobra.Command{
	Use:   "reports <source-file>",
	Short: "List saved accuracy reports for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		reports, err := st.ListAccuracyReports(ctx, args[0], limit)
		if err != nil {
			return eris.Wrap(err, "list accuracy reports")
		}

		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No accuracy reports found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tGROUND TRUTH\tACCURACY\tFIELDS\tCREATED")
		for _, r := range reports {
			accuracy := "-"
			fields := 0
			if r.Summary != nil {
				accuracy = fmt.Sprintf("%.2f%%", r.Summary.AccuracyPercentage)
				fields = r.Summary.TotalFields
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.GroundTruthFile, accuracy, fields, r.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSTATUS\tVALIDATION\tPAGES\tCREATED")
	for _, r := range runs {
		validation := "-"
		pages := "-"
		if r.Result != nil {
			if r.Result.ValidationStatus != "" {
				validation = r.Result.ValidationStatus
			}
			pages = fmt.Sprintf("%d", r.Result.PagesTotal)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Document.SourceFile, r.Status, validation, pages,
			r.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (queued, running, complete, failed)")
	runsListCmd.Flags().String("file", "", "filter by source file")
	runsListCmd.Flags().Int("limit", 50, "maximum runs to list")
	runsReportsCmd.Flags().Int("limit", 20, "maximum reports to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsReportsCmd)
	rootCmd.AddCommand(runsCmd)
}
