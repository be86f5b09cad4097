package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/finextract/internal/diff"
)

func sampleReport() *Report {
	return New("statement.pdf", "statement.gt.json", &diff.Summary{
		TotalFields:        4,
		CorrectFields:      2,
		IncorrectFields:    1,
		MissingFields:      1,
		AccuracyPercentage: 50.0,
		FieldDetails: []diff.FieldComparison{
			{FieldPath: "Equity.ShareCapital", ExtractedValue: "100", GroundTruthValue: "100", Status: diff.StatusCorrect},
			{FieldPath: "Equity.OtherEquity", Status: diff.StatusCorrectNull},
			{FieldPath: "Equity.TotalEquity", ExtractedValue: "400", GroundTruthValue: "410", Status: diff.StatusIncorrect},
			{FieldPath: "CurrentAssets.Inventories", GroundTruthValue: "55", Status: diff.StatusMissing},
		},
	})
}

func TestRenderConsole(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().RenderConsole(&buf)
	out := buf.String()

	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "4 total, 2 correct, 1 incorrect, 1 missing")
	assert.Contains(t, out, "[incorrect] Equity.TotalEquity: extracted 400, expected 410")
	assert.Contains(t, out, "[missing] CurrentAssets.Inventories")
	// Correct fields never appear as mismatches.
	assert.NotContains(t, out, "ShareCapital")
}

func TestRenderConsoleTruncatesMismatches(t *testing.T) {
	r := sampleReport()
	for i := 0; i < 20; i++ {
		r.Summary.FieldDetails = append(r.Summary.FieldDetails, diff.FieldComparison{
			FieldPath: "CurrentLiabilities.TradePayables",
			Status:    diff.StatusIncorrect,
		})
	}

	var buf bytes.Buffer
	r.RenderConsole(&buf)
	assert.Contains(t, buf.String(), "... and 12 more")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, sampleReport().WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "statement.pdf", got.SourceFile)
	assert.False(t, got.GeneratedAt.IsZero())
	require.NotNil(t, got.Summary)
	assert.Equal(t, 4, got.Summary.TotalFields)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, sampleReport().WriteCSV(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, []string{"Equity.ShareCapital", "correct", "100", "100"}, rows[1])
	// Nulls export as empty cells.
	assert.Equal(t, []string{"Equity.OtherEquity", "correct_null", "", ""}, rows[2])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, sampleReport().WriteXLSX(path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	summary := f.Sheets[0]
	assert.Equal(t, "Summary", summary.Name)
	assert.Equal(t, "Accuracy %", summary.Rows[3].Cells[0].String())
	assert.Equal(t, "50.00", summary.Rows[3].Cells[1].String())

	fields := f.Sheets[1]
	assert.Equal(t, "Fields", fields.Name)
	require.Len(t, fields.Rows, 5)
	assert.Equal(t, "field_path", fields.Rows[0].Cells[0].String())
	assert.Equal(t, "Equity.TotalEquity", fields.Rows[3].Cells[0].String())
	assert.Equal(t, "incorrect", fields.Rows[3].Cells[1].String())
}

func TestMismatches(t *testing.T) {
	mismatches := sampleReport().Mismatches()
	require.Len(t, mismatches, 2)
	paths := []string{mismatches[0].FieldPath, mismatches[1].FieldPath}
	assert.Equal(t, []string{"Equity.TotalEquity", "CurrentAssets.Inventories"}, paths)
	assert.False(t, strings.Contains(paths[0]+paths[1], "ShareCapital"))
}
