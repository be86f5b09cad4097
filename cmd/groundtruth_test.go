package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/schema"
)

func TestDocumentName(t *testing.T) {
	tests := []struct {
		artifactPath string
		sourceFile   string
		want         string
	}{
		{"outputs/annual_report_mapped.json", "annual_report.pdf", "annual_report"},
		{"outputs/annual_report_mapped.json", "", "annual_report"},
		{"outputs/annual_report_final.json", "", "annual_report"},
		{"report.json", "statements-2019.pdf", "statements-2019"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, documentName(tt.artifactPath, tt.sourceFile))
	}
}

func TestGroundTruthSeedsDataset(t *testing.T) {
	st := schema.NewStatement(schema.Metadata{SourceFile: "annual_report.pdf"})
	st.Validation = &schema.ValidationResult{Status: schema.StatusPass}

	data, err := json.MarshalIndent(st, "", "  ")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "annual_report_mapped.json")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	groundTruthDir = t.TempDir()
	groundTruthName = ""
	require.NoError(t, groundTruthCmd.RunE(groundTruthCmd, []string{src}))

	dest := filepath.Join(groundTruthDir, "annual_report", "ground_truth.json")
	out, err := os.ReadFile(dest)
	require.NoError(t, err)

	var seeded schema.Statement
	require.NoError(t, json.Unmarshal(out, &seeded))
	assert.Equal(t, "annual_report.pdf", seeded.Metadata.SourceFile)
	assert.Nil(t, seeded.Validation, "run validation should not carry into the answer key")
}
