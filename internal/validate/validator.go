// Package validate runs deterministic integrity checks over a populated
// balance-sheet statement: the accounting equation, numeric parseability,
// subtotal arithmetic, cross-year coverage, and unmapped-item triage.
//
// Checks never mutate the statement. Errors mark the statement FAIL;
// warnings are advisory and leave the status untouched.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/finextract/internal/schema"
)

// equationTolerance allows one currency unit of rounding drift when checking
// Assets = Liabilities + Equity.
var equationTolerance = decimal.NewFromInt(1)

// subtotalTolerance is the relative tolerance (1%) for section subtotals
// against the sum of their components.
var subtotalTolerance = decimal.NewFromFloat(0.01)

// unmappedThreshold is how many unmapped items count as a coverage problem.
const unmappedThreshold = 10

// criticalKeywords flag unmapped labels that probably belong in the schema.
var criticalKeywords = []string{"total", "assets", "liabilities", "equity"}

// Validate runs all checks against the statement and returns the compiled
// result. The statement itself is not modified; attaching the result to it
// is the caller's decision.
func Validate(st *schema.Statement) (*schema.ValidationResult, error) {
	if st == nil {
		return nil, eris.New("validate: nil statement")
	}

	r := &run{statement: st, equationValid: true}
	r.checkAccountingEquation()
	r.checkNumericValues()
	r.checkSubtotals()
	r.checkYearConsistency()
	r.checkUnmappedItems()

	status := schema.StatusPass
	if len(r.errors) > 0 {
		status = schema.StatusFail
	}
	return &schema.ValidationResult{
		AccountingEquationValid: r.equationValid,
		TotalErrors:             len(r.errors),
		TotalWarnings:           len(r.warnings),
		Errors:                  r.errors,
		Warnings:                r.warnings,
		Status:                  status,
	}, nil
}

type run struct {
	statement     *schema.Statement
	errors        []string
	warnings      []string
	equationValid bool
}

func (r *run) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *run) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// checkAccountingEquation verifies Assets = Liabilities + Equity within one
// unit of rounding. Missing totals downgrade the check to a warning rather
// than failing a statement that never reported them.
func (r *run) checkAccountingEquation() {
	assets, okA := leafValue(r.statement.AssetsTotal)
	liabilities, okL := leafValue(r.statement.LiabilitiesTotal)
	equity, okE := leafValue(r.statement.Equity["TotalEquity"])

	if !okA || !okL || !okE {
		r.warnf("Cannot validate accounting equation - missing total values")
		return
	}

	expected := liabilities.Add(equity)
	if assets.Sub(expected).Abs().GreaterThan(equationTolerance) {
		r.equationValid = false
		r.errorf("Accounting equation failed: Assets (%s) ≠ Liabilities (%s) + Equity (%s)",
			assets, liabilities, equity)
	}
}

// checkNumericValues requires every populated year value in the structural
// sections to parse as a number. Null and empty values are allowed.
func (r *run) checkNumericValues() {
	for _, name := range schema.StructuralSections {
		section := r.statement.StructuralSection(name)
		for _, field := range sortedFields(section) {
			leaf := section[field]
			if leaf == nil {
				continue
			}
			for _, year := range sortedKeys(leaf.Years) {
				value := leaf.Years[year]
				if value == nil || value == "" {
					continue
				}
				if !isNumeric(value) {
					r.errorf("%s.%s has non-numeric value for %s: '%v'", name, field, year, value)
				}
			}
		}
	}
}

// checkSubtotals verifies TotalCurrentAssets against the sum of the other
// CurrentAssets fields, within 1% of the component sum. Other sections mix
// gross and net presentations too freely for a blanket arithmetic check.
func (r *run) checkSubtotals() {
	section := r.statement.CurrentAssets
	totalLeaf, ok := section["TotalCurrentAssets"]
	if !ok {
		return
	}
	total, ok := leafValue(totalLeaf)
	if !ok || total.IsZero() {
		return
	}

	componentSum := decimal.Zero
	for field, leaf := range section {
		if field == "TotalCurrentAssets" || leaf == nil {
			continue
		}
		if v, ok := leafValue(leaf); ok {
			componentSum = componentSum.Add(v)
		}
	}
	if componentSum.IsZero() {
		return
	}

	if total.Sub(componentSum).Abs().GreaterThan(componentSum.Abs().Mul(subtotalTolerance)) {
		r.warnf("CurrentAssets total (%s) differs from sum of components (%s)", total, componentSum)
	}
}

// checkYearConsistency warns when a field in Equity or NonCurrentAssets is
// missing data for some reporting year. These two sections track long-lived
// positions, so gaps usually mean the extraction dropped a column.
func (r *run) checkYearConsistency() {
	years := r.statement.Metadata.Years
	if len(years) < 2 {
		return
	}

	for _, name := range []string{schema.SectionEquity, schema.SectionNonCurrentAssets} {
		section := r.statement.StructuralSection(name)
		for _, field := range sortedFields(section) {
			leaf := section[field]
			if leaf == nil {
				continue
			}
			if missing := len(years) - len(leaf.Years); missing > 0 {
				r.warnf("%s.%s missing data for %d year(s)", name, field, missing)
			}
		}
	}
}

// checkUnmappedItems flags coverage problems: too many unmapped items
// overall, and any unmapped label that mentions a critical balance-sheet
// term and probably belongs in the schema.
func (r *run) checkUnmappedItems() {
	items := r.statement.UnmappedItems.Items
	if len(items) > unmappedThreshold {
		r.warnf("High number of unmapped items (%d). Check schema coverage.", len(items))
	}

	for _, item := range items {
		label := strings.ToLower(item.LabelRaw)
		for _, keyword := range criticalKeywords {
			if strings.Contains(label, keyword) {
				r.warnf("Potentially important item unmapped: '%s'", item.LabelRaw)
				break
			}
		}
	}
}

// leafValue resolves a leaf's representative amount from its reported years:
// the most recent year whose value parses as a number. A leaf with no
// parseable year data carries no amount for arithmetic checks, even when a
// primary value is set.
func leafValue(leaf *schema.LeafField) (decimal.Decimal, bool) {
	if leaf == nil {
		return decimal.Decimal{}, false
	}
	return representativeValue(leaf.Years)
}

func sortedFields(section schema.Section) []string {
	return sortedKeys(section)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
