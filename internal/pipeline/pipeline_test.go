package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/ocr"
	"github.com/sells-group/finextract/internal/store"
)

// stubExtractor returns fixed pages and counts calls, so tests can verify
// the page cache short-circuits OCR on repeat runs.
type stubExtractor struct {
	pages []ocr.Page
	calls int
}

func (s *stubExtractor) ExtractPages(_ context.Context, _ string) ([]ocr.Page, error) {
	s.calls++
	return s.pages, nil
}

const balancedMappingJSON = `[
  {"label_raw": "Total Equity", "schema_field": "TotalEquity", "section": "Equity",
   "confidence": 1.0, "reason": "total", "values": {"2019": "400"}, "is_total": true},
  {"label_raw": "Total Liabilities", "schema_field": null, "section": "LiabilitiesTotal",
   "confidence": 1.0, "reason": "total", "values": {"2019": "600"}, "is_total": true},
  {"label_raw": "Total Assets", "schema_field": null, "section": "AssetsTotal",
   "confidence": 1.0, "reason": "total", "values": {"2019": "1000"}, "is_total": true}
]`

func newTestPipeline(t *testing.T, ai *mockAIClient, extractor ocr.Extractor) (*Pipeline, store.Store) {
	t.Helper()
	cfg := testConfig()
	cfg.Pipeline.OutputDir = t.TempDir()
	cfg.Pipeline.CacheTTLHours = 1

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	return New(cfg, st, ai, extractor), st
}

func TestPipelineRun(t *testing.T) {
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, forModel("classifier-model")).
		Return(textResponse(`{"contains_sfp": true, "confidence": 0.95, "reason": "table"}`), nil)
	ai.On("CreateMessage", mock.Anything, forModel("extractor-model")).
		Return(textResponse(interimJSON), nil)
	ai.On("CreateMessage", mock.Anything, forModel("mapper-model")).
		Return(textResponse(balancedMappingJSON), nil)

	extractor := &stubExtractor{pages: []ocr.Page{
		longPage(1, "BALANCE SHEET"),
		{Number: 2, Text: "short"},
	}}

	p, st := newTestPipeline(t, ai, extractor)

	run, err := p.Run(context.Background(), "/docs/annual_report.pdf")
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 2, run.Result.PagesTotal)
	assert.Equal(t, []int{1}, run.Result.StatementPages)
	assert.Equal(t, "PASS", run.Result.ValidationStatus)
	assert.Positive(t, run.Result.InputTokens)

	require.NotNil(t, run.Result.Statement)
	require.NotNil(t, run.Result.Statement.Validation)
	assert.True(t, run.Result.Statement.Validation.AccountingEquationValid)
	assert.Equal(t, "annual_report.pdf", run.Result.Statement.Metadata.SourceFile)

	// The run is persisted with its result.
	stored, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, stored.Status)
	require.NotNil(t, stored.Result)
	assert.Equal(t, "PASS", stored.Result.ValidationStatus)

	// All five artifacts are written.
	dir := p.cfg.Pipeline.OutputDir
	for _, suffix := range []string{"_extracted", "_classified", "_interim", "_mapped", "_final"} {
		path := filepath.Join(dir, "annual_report"+suffix+".json")
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr, path)
		assert.True(t, strings.HasPrefix(string(data), "{") || strings.HasPrefix(string(data), "["))
	}
}

func TestPipelineRunUsesPageCache(t *testing.T) {
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, forModel("classifier-model")).
		Return(textResponse(`{"contains_sfp": true, "confidence": 0.95, "reason": "table"}`), nil)
	ai.On("CreateMessage", mock.Anything, forModel("extractor-model")).
		Return(textResponse(interimJSON), nil)
	ai.On("CreateMessage", mock.Anything, forModel("mapper-model")).
		Return(textResponse(balancedMappingJSON), nil)

	extractor := &stubExtractor{pages: []ocr.Page{longPage(1, "BALANCE SHEET")}}
	p, _ := newTestPipeline(t, ai, extractor)

	_, err := p.Run(context.Background(), "report.pdf")
	require.NoError(t, err)
	_, err = p.Run(context.Background(), "report.pdf")
	require.NoError(t, err)

	// Second run served from cache.
	assert.Equal(t, 1, extractor.calls)
}

func TestPipelineRunNoStatementPages(t *testing.T) {
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, forModel("classifier-model")).
		Return(textResponse(`{"contains_sfp": false, "confidence": 0.9, "reason": "narrative"}`), nil)

	extractor := &stubExtractor{pages: []ocr.Page{longPage(1, "DIRECTORS REPORT")}}
	p, st := newTestPipeline(t, ai, extractor)

	run, err := p.Run(context.Background(), "report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statement of financial position pages")
	assert.Equal(t, model.RunStatusFailed, run.Status)

	stored, getErr := st.GetRun(context.Background(), run.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.RunStatusFailed, stored.Status)
}

func TestPipelineRunFailsValidationStillCompletes(t *testing.T) {
	unbalanced := strings.ReplaceAll(balancedMappingJSON, `"1000"`, `"1500"`)

	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, forModel("classifier-model")).
		Return(textResponse(`{"contains_sfp": true, "confidence": 0.95, "reason": "table"}`), nil)
	ai.On("CreateMessage", mock.Anything, forModel("extractor-model")).
		Return(textResponse(interimJSON), nil)
	ai.On("CreateMessage", mock.Anything, forModel("mapper-model")).
		Return(textResponse(unbalanced), nil)

	extractor := &stubExtractor{pages: []ocr.Page{longPage(1, "BALANCE SHEET")}}
	p, _ := newTestPipeline(t, ai, extractor)

	run, err := p.Run(context.Background(), "report.pdf")
	require.NoError(t, err)

	// Validation failure is a verdict, not a pipeline error.
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "FAIL", run.Result.ValidationStatus)
	require.NotNil(t, run.Result.Statement.Validation)
	assert.False(t, run.Result.Statement.Validation.AccountingEquationValid)
}
