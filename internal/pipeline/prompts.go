package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/sells-group/finextract/internal/schema"
)

const classifierSystem = `You are a financial document classifier. Your task is to identify whether a given page contains a Statement of Financial Position (SFP), also known as a Balance Sheet.

A Statement of Financial Position typically contains:
- Assets (Current and Non-Current)
- Liabilities (Current and Non-Current)
- Equity/Shareholders' Funds
- Financial years/periods (usually 1-3 years for comparison)
- Numerical values representing amounts

The page may also be called:
- Balance Sheet
- Statement of Financial Position
- SFP
- Assets & Liabilities Statement

Your response should be ONLY a JSON object with this structure (replace the values):
{"contains_sfp": true or false, "confidence": 0.0 to 1.0, "reason": "Brief explanation"}

Examples of pages that CONTAIN SFP:
- A page showing "Assets = Liabilities + Equity" in tabular format
- Pages titled "Balance Sheet" with financial figures
- Pages with row labels like "Current Assets", "Fixed Assets", "Current Liabilities", etc.

Examples of pages that DO NOT contain SFP:
- Management discussion & analysis pages
- Audit opinion pages
- Footnotes or accounting policies
- Cash flow statements
- Income statements (Profit & Loss)

Respond ONLY with the JSON object, no additional text.`

const classifierUserTemplate = `Analyze this page:

--- PAGE CONTENT START ---
%s
--- PAGE CONTENT END ---`

const extractorSystem = `You are a financial data extraction specialist. Your task is to extract table data from a Statement of Financial Position (Balance Sheet) EXACTLY as it appears in the document.

CRITICAL RULES:
1. Extract data AS-IS - do NOT normalize or force business field names
2. Preserve exact row labels from the PDF
3. Detect financial years/periods from column headers
4. Detect currency if mentioned
5. Extract ALL numerical values for each year
6. Mark rows that appear to be subtotals or totals
7. Include ANY extra information in notes (e.g., references, conditions)
8. Do NOT invent or assume field names

Output ONLY a valid JSON object with this exact structure (no markdown, no extra text):
{
  "section": "SFP",
  "years": ["year1", "year2"],
  "currency": "detected currency or USD if not found",
  "items": [
    {
      "label_raw": "exact label from PDF",
      "category_raw": "Assets/Liabilities/Equity if detectable, else null",
      "is_total": true/false,
      "values": {"year1": "value1", "year2": "value2"},
      "extra": {"reference": "note number", "notes": "any extra info"}
    }
  ]
}

IMPORTANT:
- Preserve spacing and formatting in labels
- If a row is a subtotal (contains "total" or "Total" or similar), mark is_total: true
- If a value is missing or dash (-), use null or empty string ""
- Years should be detected from headers (e.g., "As at 31st March 2019" -> "2019")`

const extractorUserTemplate = `Extract data from this SFP text:

--- SFP TEXT START ---
%s
--- SFP TEXT END ---

Output ONLY the JSON object.`

const mapperSystemTemplate = `You are a financial data mapping expert. Your task is to map raw financial line items to a predefined global schema.

CRITICAL RULES:
1. DO NOT invent fields - only use what's in the schema
2. Match using: exact names, aliases, descriptions, semantic meaning
3. Output a confidence score (0.0-1.0) for each mapping
4. If unsure or no good match, leave schema_field and section null (don't force it)
5. Preserve ALL numeric values and years as-is
6. Return ONLY valid JSON, no extra text

SCHEMA DEFINITIONS (use descriptions + aliases to match):
%s

Top-level totals use the section name with an empty schema_field:
- "Total Liabilities" maps to section "LiabilitiesTotal", schema_field ""
- "Total Assets" maps to section "AssetsTotal", schema_field ""

MAPPING TASK:
For EACH raw item, respond with:
{
  "label_raw": "exact label from PDF",
  "schema_field": "FieldName or null if unmapped",
  "section": "SectionName or null if unmapped",
  "confidence": 0.0-1.0,
  "reason": "why this match or why unmapped",
  "values": {"2019": "X", "2018": "Y"},
  "is_total": true/false
}

IMPORTANT:
- Respond with ONLY a JSON array of mapping results
- Each item gets one result object
- confidence: 1.0 = certain match, 0.5 = uncertain, 0.0 = no match
- No explanations outside JSON`

const mapperUserTemplate = `RAW ITEMS TO MAP:
%s`

// classifierUserPrompt renders the per-page classifier message.
func classifierUserPrompt(pageText string) string {
	return fmt.Sprintf(classifierUserTemplate, pageText)
}

// extractorUserPrompt renders the raw-extraction message for the combined
// statement text.
func extractorUserPrompt(sfpText string) string {
	return fmt.Sprintf(extractorUserTemplate, sfpText)
}

// mapperSystemPrompt renders the mapper system prompt with the field catalog
// embedded. The catalog rarely changes, so this block is marked cacheable by
// the caller.
func mapperSystemPrompt() (string, error) {
	catalog, err := json.MarshalIndent(schema.Catalog, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(mapperSystemTemplate, catalog), nil
}

// mapperUserPrompt renders the raw items to be mapped. Only the fields the
// mapper needs are sent; extras stay local.
func mapperUserPrompt(items []schema.InterimItem) (string, error) {
	type promptItem struct {
		LabelRaw string         `json:"label_raw"`
		Values   map[string]any `json:"values"`
		IsTotal  bool           `json:"is_total"`
	}
	trimmed := make([]promptItem, len(items))
	for i, item := range items {
		trimmed[i] = promptItem{
			LabelRaw: item.LabelRaw,
			Values:   item.Values,
			IsTotal:  item.IsTotal,
		}
	}
	payload, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(mapperUserTemplate, payload), nil
}
