package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/diff"
	"github.com/sells-group/finextract/internal/schema"
)

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	rec := doRequest(t, buildServeMux(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeCompare(t *testing.T) {
	body := `{
		"extracted":    {"Equity": {"ShareCapital": {"value": "100"}}},
		"ground_truth": {"Equity": {"ShareCapital": {"value": "100.005"}}}
	}`
	rec := doRequest(t, buildServeMux(), http.MethodPost, "/compare", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary diff.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalFields)
	assert.Equal(t, 1, summary.CorrectFields)
	assert.InDelta(t, 100.0, summary.AccuracyPercentage, 1e-9)
}

func TestServeCompareBadRequest(t *testing.T) {
	rec := doRequest(t, buildServeMux(), http.MethodPost, "/compare", `{"extracted": {"a": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, buildServeMux(), http.MethodPost, "/compare", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeValidate(t *testing.T) {
	st := schema.NewStatement(schema.Metadata{Years: []string{"2019"}})
	st.Equity["TotalEquity"] = &schema.LeafField{Value: "400", Years: map[string]any{"2019": "400"}}
	st.LiabilitiesTotal = &schema.LeafField{Value: "600", Years: map[string]any{"2019": "600"}}
	st.AssetsTotal = &schema.LeafField{Value: "1000", Years: map[string]any{"2019": "1000"}}

	body, err := json.Marshal(st)
	require.NoError(t, err)

	rec := doRequest(t, buildServeMux(), http.MethodPost, "/validate", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var result schema.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, schema.StatusPass, result.Status)
	assert.True(t, result.AccountingEquationValid)
}

func TestServeValidateBadBody(t *testing.T) {
	rec := doRequest(t, buildServeMux(), http.MethodPost, "/validate", "{{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
