package schema

import (
	"strconv"
	"strings"
)

// Interim is the raw, schema-free extraction produced by the first LLM pass.
// Labels and values are preserved exactly as they appear in the document.
type Interim struct {
	Section  string        `json:"section"`
	Years    []string      `json:"years"`
	Currency string        `json:"currency"`
	Items    []InterimItem `json:"items"`
}

// InterimItem is one raw line item from the statement table.
type InterimItem struct {
	LabelRaw    string         `json:"label_raw"`
	CategoryRaw string         `json:"category_raw,omitempty"`
	IsTotal     bool           `json:"is_total"`
	Values      map[string]any `json:"values"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// CheckInterim reports format problems with a raw extraction. A non-empty
// result is a quality signal, not a fatal condition: the pipeline logs the
// problems and continues with whatever was extracted.
func (in *Interim) CheckInterim() []string {
	var problems []string
	if in.Section == "" {
		problems = append(problems, "missing key 'section'")
	}
	if in.Years == nil {
		problems = append(problems, "missing key 'years'")
	}
	if in.Currency == "" {
		problems = append(problems, "missing key 'currency'")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.LabelRaw) == "" {
			problems = append(problems, "item "+strconv.Itoa(i)+" missing 'label_raw'")
		}
		if item.Values == nil {
			problems = append(problems, "item "+strconv.Itoa(i)+" missing 'values'")
		}
	}
	return problems
}
