package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/schema"
)

var (
	groundTruthDir  string
	groundTruthName string
)

var groundTruthCmd = &cobra.Command{
	Use:   "groundtruth <mapped.json>",
	Short: "Seed a golden dataset entry from a mapped extraction",
	Long:  "Copies a mapped statement into the golden dataset directory as ground_truth.json so it can be corrected by hand and later compared with the accuracy command.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		var st schema.Statement
		if err := json.Unmarshal(data, &st); err != nil {
			return eris.Wrapf(err, "parse %s", args[0])
		}

		name := groundTruthName
		if name == "" {
			name = documentName(args[0], st.Metadata.SourceFile)
		}

		dir := filepath.Join(groundTruthDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", dir)
		}

		// Validation belongs to the run that produced the file, not to the
		// annotated answer key.
		st.Validation = nil

		out, err := json.MarshalIndent(&st, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal statement")
		}

		dest := filepath.Join(dir, "ground_truth.json")
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", dest)
		}

		zap.L().Info("ground truth seeded",
			zap.String("document", name),
			zap.String("path", dest),
		)
		fmt.Printf("Wrote %s — review and correct the values before using it as ground truth.\n", dest)
		return nil
	},
}

// documentName derives a golden dataset directory name from the statement's
// source file, falling back to the artifact filename with the pipeline
// suffixes stripped.
func documentName(artifactPath, sourceFile string) string {
	base := sourceFile
	if base == "" {
		base = filepath.Base(artifactPath)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range []string{"_mapped", "_final"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return base
}

func init() {
	groundTruthCmd.Flags().StringVar(&groundTruthDir, "dir", "golden_dataset", "golden dataset root directory")
	groundTruthCmd.Flags().StringVar(&groundTruthName, "name", "", "document name (defaults to the source file base name)")
	rootCmd.AddCommand(groundTruthCmd)
}
