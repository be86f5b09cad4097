package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/finextract/internal/ocr"
	"github.com/sells-group/finextract/internal/pipeline"
	anthropicpkg "github.com/sells-group/finextract/pkg/anthropic"
)

var runCmd = &cobra.Command{
	Use:   "run <pdf>",
	Short: "Extract a financial statement from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		extractor, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}
		anthropicClient := anthropicpkg.NewClientWithLimiter(cfg.Anthropic.Key,
			rate.NewLimiter(rate.Limit(cfg.Anthropic.RequestsPerSec), cfg.Anthropic.Burst))

		p := pipeline.New(cfg, st, anthropicClient, extractor)

		run, err := p.Run(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("extraction complete",
			zap.String("run_id", run.ID),
			zap.String("validation_status", run.Result.ValidationStatus),
			zap.Int("pages_total", run.Result.PagesTotal),
			zap.Ints("statement_pages", run.Result.StatementPages),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run.Result)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
