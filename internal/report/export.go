package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var exportHeader = []string{"field_path", "status", "extracted_value", "ground_truth_value"}

// WriteCSV exports the per-field detail as CSV.
func (r *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, fc := range r.Summary.FieldDetails {
		row := []string{
			fc.FieldPath,
			string(fc.Status),
			cellString(fc.ExtractedValue),
			cellString(fc.GroundTruthValue),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}

// WriteXLSX exports the report as a workbook: a summary sheet plus the
// per-field detail.
func (r *Report) WriteXLSX(path string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	s := r.Summary
	summaryRows := [][]string{
		{"Source File", r.SourceFile},
		{"Ground Truth File", r.GroundTruthFile},
		{"Generated At", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Accuracy %", strconv.FormatFloat(s.AccuracyPercentage, 'f', 2, 64)},
		{"Total Fields", strconv.Itoa(s.TotalFields)},
		{"Correct", strconv.Itoa(s.CorrectFields)},
		{"Incorrect", strconv.Itoa(s.IncorrectFields)},
		{"Missing", strconv.Itoa(s.MissingFields)},
		{"Skipped Subtrees", strconv.Itoa(len(s.SkippedPaths))},
	}
	for _, cells := range summaryRows {
		row := summary.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}

	detail, err := f.AddSheet("Fields")
	if err != nil {
		return eris.Wrap(err, "report: add fields sheet")
	}
	header := detail.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}
	for _, fc := range s.FieldDetails {
		row := detail.AddRow()
		row.AddCell().SetString(fc.FieldPath)
		row.AddCell().SetString(string(fc.Status))
		row.AddCell().SetString(cellString(fc.ExtractedValue))
		row.AddCell().SetString(cellString(fc.GroundTruthValue))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// cellString renders a compared value for a spreadsheet cell. nil stays
// empty so null-vs-empty semantics survive the export.
func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
