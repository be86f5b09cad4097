// Package schema defines the global balance-sheet schema: the typed
// statement shape that the mapper populates, the validator checks, and the
// accuracy tooling compares against ground truth.
package schema

// Section names used throughout the pipeline. The five structural sections
// hold leaf fields; LiabilitiesTotal and AssetsTotal are top-level leaves.
const (
	SectionEquity                = "Equity"
	SectionNonCurrentLiabilities = "NonCurrentLiabilities"
	SectionCurrentLiabilities    = "CurrentLiabilities"
	SectionNonCurrentAssets      = "NonCurrentAssets"
	SectionCurrentAssets         = "CurrentAssets"
	SectionLiabilitiesTotal      = "LiabilitiesTotal"
	SectionAssetsTotal           = "AssetsTotal"
)

// StructuralSections lists the five sections that contain leaf fields, in
// statement order.
var StructuralSections = []string{
	SectionEquity,
	SectionNonCurrentLiabilities,
	SectionCurrentLiabilities,
	SectionNonCurrentAssets,
	SectionCurrentAssets,
}

// LeafField is a single schema datum with its mapping metadata. Values are
// kept per reporting year; Value holds the primary (most recent) year's
// amount for convenience.
type LeafField struct {
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"`
	Years      map[string]any `json:"years"`
	Currency   string         `json:"currency,omitempty"`
	MappedFrom string         `json:"mapped_from,omitempty"`
	IsTotal    bool           `json:"is_total,omitempty"`
	Notes      string         `json:"notes,omitempty"`
}

// Section maps schema field names to their populated leaf fields.
type Section map[string]*LeafField

// Metadata describes the statement as a whole.
type Metadata struct {
	Currency            string   `json:"currency,omitempty"`
	Years               []string `json:"years"`
	ExtractionTimestamp string   `json:"extraction_timestamp,omitempty"`
	SourceFile          string   `json:"source_file,omitempty"`
}

// UnmappedItem is a raw line item the mapper could not place in the schema.
type UnmappedItem struct {
	LabelRaw string         `json:"label_raw"`
	Values   map[string]any `json:"values,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// UnmappedItems collects everything that failed to map.
type UnmappedItems struct {
	Items []UnmappedItem `json:"items"`
}

// ValidationResult is the validator's report, attached to the statement
// before the final artifact is written.
type ValidationResult struct {
	AccountingEquationValid bool     `json:"accounting_equation_valid"`
	TotalErrors             int      `json:"total_errors"`
	TotalWarnings           int      `json:"total_warnings"`
	Errors                  []string `json:"errors"`
	Warnings                []string `json:"warnings"`
	Status                  string   `json:"status"` // "PASS" or "FAIL"
}

// Validation statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Statement is one populated Statement of Financial Position.
type Statement struct {
	Section               string            `json:"section"`
	Metadata              Metadata          `json:"metadata"`
	Equity                Section           `json:"Equity"`
	NonCurrentLiabilities Section           `json:"NonCurrentLiabilities"`
	CurrentLiabilities    Section           `json:"CurrentLiabilities"`
	LiabilitiesTotal      *LeafField        `json:"LiabilitiesTotal"`
	NonCurrentAssets      Section           `json:"NonCurrentAssets"`
	CurrentAssets         Section           `json:"CurrentAssets"`
	AssetsTotal           *LeafField        `json:"AssetsTotal"`
	UnmappedItems         UnmappedItems     `json:"unmapped_items"`
	Validation            *ValidationResult `json:"validation,omitempty"`
}

// NewStatement builds an empty statement for the given metadata. Sections
// start empty; fields are added as the mapper places items. There is no
// shared template: every statement is constructed from scratch.
func NewStatement(meta Metadata) *Statement {
	return &Statement{
		Section:               "StatementOfFinancialPosition",
		Metadata:              meta,
		Equity:                Section{},
		NonCurrentLiabilities: Section{},
		CurrentLiabilities:    Section{},
		NonCurrentAssets:      Section{},
		CurrentAssets:         Section{},
		UnmappedItems:         UnmappedItems{Items: []UnmappedItem{}},
	}
}

// StructuralSection returns the named structural section, or nil if the name
// is not one of the five leaf-bearing sections.
func (s *Statement) StructuralSection(name string) Section {
	switch name {
	case SectionEquity:
		return s.Equity
	case SectionNonCurrentLiabilities:
		return s.NonCurrentLiabilities
	case SectionCurrentLiabilities:
		return s.CurrentLiabilities
	case SectionNonCurrentAssets:
		return s.NonCurrentAssets
	case SectionCurrentAssets:
		return s.CurrentAssets
	}
	return nil
}

// SetField places a leaf field into the named section. Top-level totals
// (LiabilitiesTotal, AssetsTotal) are addressed by section name with an
// empty field name. Returns false when the target does not exist in the
// catalog, leaving the statement unchanged.
func (s *Statement) SetField(section, field string, leaf *LeafField) bool {
	switch section {
	case SectionLiabilitiesTotal:
		s.LiabilitiesTotal = leaf
		return true
	case SectionAssetsTotal:
		s.AssetsTotal = leaf
		return true
	}
	sec := s.StructuralSection(section)
	if sec == nil {
		return false
	}
	if _, ok := Catalog[section][field]; !ok {
		return false
	}
	sec[field] = leaf
	return true
}
