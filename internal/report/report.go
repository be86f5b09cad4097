// Package report renders accuracy comparison results for people and
// machines: a console summary, a timestamped JSON report, and CSV/XLSX
// exports of the per-field detail.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/diff"
)

// maxConsoleMismatches caps how many mismatched fields the console summary
// prints before referring the reader to the full export.
const maxConsoleMismatches = 10

// Report is one accuracy comparison, ready to render.
type Report struct {
	SourceFile      string        `json:"source_file"`
	GroundTruthFile string        `json:"ground_truth_file"`
	GeneratedAt     time.Time     `json:"generated_at"`
	Summary         *diff.Summary `json:"summary"`
}

// New builds a report around a comparison summary.
func New(sourceFile, groundTruthFile string, summary *diff.Summary) *Report {
	return &Report{
		SourceFile:      sourceFile,
		GroundTruthFile: groundTruthFile,
		GeneratedAt:     time.Now().UTC(),
		Summary:         summary,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// RenderConsole writes a human-readable summary. Mismatches beyond the first
// few are elided.
func (r *Report) RenderConsole(w io.Writer) {
	s := r.Summary
	fmt.Fprintf(w, "Accuracy report: %s vs %s\n", r.SourceFile, r.GroundTruthFile)
	fmt.Fprintf(w, "  Accuracy:  %.2f%%\n", s.AccuracyPercentage)
	fmt.Fprintf(w, "  Fields:    %d total, %d correct, %d incorrect, %d missing\n",
		s.TotalFields, s.CorrectFields, s.IncorrectFields, s.MissingFields)
	if len(s.SkippedPaths) > 0 {
		fmt.Fprintf(w, "  Skipped:   %d subtree(s) with mismatched structure\n", len(s.SkippedPaths))
	}

	mismatches := r.Mismatches()
	if len(mismatches) == 0 {
		return
	}
	fmt.Fprintln(w, "  Mismatches:")
	for i, fc := range mismatches {
		if i == maxConsoleMismatches {
			fmt.Fprintf(w, "    ... and %d more (see CSV/XLSX export)\n", len(mismatches)-i)
			break
		}
		fmt.Fprintf(w, "    [%s] %s: extracted %v, expected %v\n",
			fc.Status, fc.FieldPath, fc.ExtractedValue, fc.GroundTruthValue)
	}
}

// Mismatches returns the field comparisons that were not correct.
func (r *Report) Mismatches() []diff.FieldComparison {
	var out []diff.FieldComparison
	for _, fc := range r.Summary.FieldDetails {
		switch fc.Status {
		case diff.StatusCorrect, diff.StatusCorrectNull:
			continue
		}
		out = append(out, fc)
	}
	return out
}
