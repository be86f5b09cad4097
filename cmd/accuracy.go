package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/diff"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/report"
)

var (
	accuracyJSONOut string
	accuracyCSVOut  string
	accuracyXLSXOut string
	accuracySave    bool
)

var accuracyCmd = &cobra.Command{
	Use:   "accuracy <extracted.json> <ground-truth.json>",
	Short: "Compare an extraction against ground truth",
	Long:  "Walks both JSON trees field by field and reports per-field status and overall accuracy. Optionally exports the detail and records the report in the store.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		extractedPath, groundTruthPath := args[0], args[1]

		summary, err := diff.CompareFiles(extractedPath, groundTruthPath)
		if err != nil {
			return err
		}

		r := report.New(filepath.Base(extractedPath), filepath.Base(groundTruthPath), summary)
		r.RenderConsole(os.Stdout)

		if accuracyJSONOut != "" {
			if err := r.WriteJSON(accuracyJSONOut); err != nil {
				return err
			}
		}
		if accuracyCSVOut != "" {
			if err := r.WriteCSV(accuracyCSVOut); err != nil {
				return err
			}
		}
		if accuracyXLSXOut != "" {
			if err := r.WriteXLSX(accuracyXLSXOut); err != nil {
				return err
			}
		}

		if accuracySave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			rec := &model.AccuracyReport{
				SourceFile:      r.SourceFile,
				GroundTruthFile: r.GroundTruthFile,
				Summary:         summary,
			}
			if err := st.SaveAccuracyReport(ctx, rec); err != nil {
				return eris.Wrap(err, "save accuracy report")
			}
			zap.L().Info("accuracy report saved", zap.String("report_id", rec.ID))
		}

		return nil
	},
}

func init() {
	accuracyCmd.Flags().StringVar(&accuracyJSONOut, "json", "", "write full report JSON to this path")
	accuracyCmd.Flags().StringVar(&accuracyCSVOut, "csv", "", "write per-field detail CSV to this path")
	accuracyCmd.Flags().StringVar(&accuracyXLSXOut, "xlsx", "", "write report workbook to this path")
	accuracyCmd.Flags().BoolVar(&accuracySave, "save", false, "record the report in the store")
	rootCmd.AddCommand(accuracyCmd)
}
