package diff

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(v any) map[string]any {
	return map[string]any{"value": v, "confidence": 0.9}
}

func statusByPath(s *Summary) map[string]Status {
	out := make(map[string]Status, len(s.FieldDetails))
	for _, fc := range s.FieldDetails {
		out[fc.FieldPath] = fc.Status
	}
	return out
}

func TestCompareIdenticalTreesAreFullyCorrect(t *testing.T) {
	tree := map[string]any{
		"Equity": map[string]any{
			"ShareCapital":       leaf(500.0),
			"ReservesAndSurplus": leaf("1,200.50"),
		},
		"CurrentAssets": map[string]any{
			"CashAndCashEquivalents": leaf(300.0),
		},
	}

	s := Compare(tree, tree)

	assert.Equal(t, 3, s.TotalFields)
	assert.Equal(t, 3, s.CorrectFields)
	assert.Equal(t, 0, s.IncorrectFields)
	assert.Equal(t, 0, s.MissingFields)
	assert.InDelta(t, 100.0, s.AccuracyPercentage, 1e-9)
	assert.Empty(t, s.SkippedPaths)
}

func TestCompareStatuses(t *testing.T) {
	gt := map[string]any{
		"Equity": map[string]any{
			"ShareCapital":       leaf(500.0),   // matched exactly
			"ReservesAndSurplus": leaf(1200.0),  // extracted wrong
			"OtherEquity":        leaf(nil),     // both null
			"TotalEquity":        leaf(1700.0),  // absent from extraction
		},
		"AssetsTotal": leaf(nil), // extraction invented a value
	}
	extracted := map[string]any{
		"Equity": map[string]any{
			"ShareCapital":       leaf(500.0),
			"ReservesAndSurplus": leaf(999.0),
			"OtherEquity":        leaf(nil),
		},
		"AssetsTotal": leaf(5000.0),
	}

	s := Compare(extracted, gt)
	byPath := statusByPath(s)

	assert.Equal(t, StatusCorrect, byPath["Equity.ShareCapital"])
	assert.Equal(t, StatusIncorrect, byPath["Equity.ReservesAndSurplus"])
	assert.Equal(t, StatusCorrectNull, byPath["Equity.OtherEquity"])
	assert.Equal(t, StatusMissing, byPath["Equity.TotalEquity"])
	assert.Equal(t, StatusFalsePositive, byPath["AssetsTotal"])

	assert.Equal(t, 5, s.TotalFields)
	assert.Equal(t, 2, s.CorrectFields) // correct + correct_null
	assert.Equal(t, 2, s.IncorrectFields)
	assert.Equal(t, 1, s.MissingFields)
	assert.InDelta(t, 40.0, s.AccuracyPercentage, 1e-9)
}

func TestCompareBucketSumInvariant(t *testing.T) {
	gt := map[string]any{
		"a": leaf(1.0),
		"b": leaf(nil),
		"c": leaf("x"),
		"d": leaf(2.0),
	}
	extracted := map[string]any{
		"a": leaf(1.0),
		"b": leaf("surprise"),
		"c": leaf(nil),
	}

	s := Compare(extracted, gt)

	assert.Equal(t, s.TotalFields, s.CorrectFields+s.IncorrectFields+s.MissingFields)
	assert.Len(t, s.FieldDetails, s.TotalFields)
}

func TestCompareEmptyStringEqualsNull(t *testing.T) {
	gt := map[string]any{"note": leaf("")}
	extracted := map[string]any{"note": leaf(nil)}

	s := Compare(extracted, gt)

	require.Len(t, s.FieldDetails, 1)
	assert.Equal(t, StatusCorrectNull, s.FieldDetails[0].Status)
}

func TestCompareSkipsAdministrativeKeys(t *testing.T) {
	gt := map[string]any{
		"extraction_timestamp": "2026-01-15T10:00:00Z",
		"source_file":          "statement.pdf",
		"document_type":        "balance_sheet",
		"Equity": map[string]any{
			"ShareCapital": leaf(500.0),
		},
	}

	s := Compare(gt, gt)

	assert.Equal(t, 1, s.TotalFields)
	assert.Equal(t, "Equity.ShareCapital", s.FieldDetails[0].FieldPath)
}

func TestCompareMissingSubtreeCountsEveryLeaf(t *testing.T) {
	gt := map[string]any{
		"CurrentAssets": map[string]any{
			"Inventories":      leaf(100.0),
			"TradeReceivables": leaf(200.0),
		},
	}

	s := Compare(map[string]any{}, gt)

	assert.Equal(t, 2, s.TotalFields)
	assert.Equal(t, 2, s.MissingFields)
	assert.InDelta(t, 0.0, s.AccuracyPercentage, 1e-9)
	assert.Empty(t, s.SkippedPaths)
}

func TestCompareSequenceIndexAlignment(t *testing.T) {
	gt := map[string]any{
		"items": []any{
			map[string]any{"label": "Misc", "amount": leaf(10.0)},
			map[string]any{"label": "Other", "amount": leaf(20.0)},
			map[string]any{"label": "Tail", "amount": leaf(30.0)},
		},
	}
	extracted := map[string]any{
		"items": []any{
			map[string]any{"label": "Misc", "amount": leaf(10.0)},
			map[string]any{"label": "Other", "amount": leaf(99.0)},
		},
	}

	s := Compare(extracted, gt)
	byPath := statusByPath(s)

	assert.Equal(t, StatusCorrect, byPath["items[0].amount"])
	assert.Equal(t, StatusIncorrect, byPath["items[1].amount"])
	assert.Equal(t, StatusMissing, byPath["items[2].amount"])
}

func TestCompareScalarSequenceElements(t *testing.T) {
	gt := map[string]any{"years": []any{"2023", "2024"}}
	extracted := map[string]any{"years": []any{"2023", "2022"}}

	s := Compare(extracted, gt)
	byPath := statusByPath(s)

	assert.Equal(t, StatusCorrect, byPath["years[0]"])
	assert.Equal(t, StatusIncorrect, byPath["years[1]"])
}

func TestCompareContainerKindMismatchIsRecorded(t *testing.T) {
	gt := map[string]any{
		"CurrentAssets": map[string]any{
			"Inventories": leaf(100.0),
		},
	}
	extracted := map[string]any{
		"CurrentAssets": []any{"wrong", "shape"},
	}

	s := Compare(extracted, gt)

	assert.Equal(t, 0, s.TotalFields)
	assert.Equal(t, []string{"CurrentAssets"}, s.SkippedPaths)
}

func TestCompareNumericToleranceAtLeaf(t *testing.T) {
	gt := map[string]any{"a": leaf(100.00), "b": leaf(100.00)}
	extracted := map[string]any{"a": leaf(100.009), "b": leaf(100.02)}

	s := Compare(extracted, gt)
	byPath := statusByPath(s)

	assert.Equal(t, StatusCorrect, byPath["a"])
	assert.Equal(t, StatusIncorrect, byPath["b"])
}

func TestCompareEmptyGroundTruth(t *testing.T) {
	s := Compare(map[string]any{"x": leaf(1.0)}, map[string]any{})

	assert.Equal(t, 0, s.TotalFields)
	assert.InDelta(t, 0.0, s.AccuracyPercentage, 1e-9)
	assert.NotNil(t, s.FieldDetails)
}

func TestCompareFieldOrderDeterministic(t *testing.T) {
	gt := map[string]any{
		"Equity": map[string]any{
			"ShareCapital":     leaf(500.0),
			"OtherEquity":      leaf(100.0),
			"RetainedEarnings": leaf(200.0),
		},
		"CurrentAssets": map[string]any{
			"Inventories": leaf(50.0),
		},
		"AssetsTotal": leaf(850.0),
	}

	wantOrder := []string{
		"AssetsTotal",
		"CurrentAssets.Inventories",
		"Equity.OtherEquity",
		"Equity.RetainedEarnings",
		"Equity.ShareCapital",
	}

	for i := 0; i < 5; i++ {
		s := Compare(map[string]any{}, gt)
		paths := make([]string, len(s.FieldDetails))
		for j, fc := range s.FieldDetails {
			paths[j] = fc.FieldPath
		}
		require.Equal(t, wantOrder, paths)
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()

	gt := map[string]any{"Equity": map[string]any{"ShareCapital": leaf(500.0)}}
	writeJSON(t, filepath.Join(dir, "gt.json"), gt)
	writeJSON(t, filepath.Join(dir, "ex.json"), gt)

	s, err := CompareFiles(filepath.Join(dir, "ex.json"), filepath.Join(dir, "gt.json"))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, s.AccuracyPercentage, 1e-9)

	_, err = CompareFiles(filepath.Join(dir, "absent.json"), filepath.Join(dir, "gt.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))
	_, err = CompareFiles(filepath.Join(dir, "bad.json"), filepath.Join(dir, "gt.json"))
	assert.Error(t, err)
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
