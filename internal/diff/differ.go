// Package diff compares an extracted value tree against a hand-annotated
// ground-truth tree, field by field, and produces an accuracy summary.
//
// Ground truth is authoritative: it defines the field set, and extracted
// values are probed at matching paths. The comparison is pure — once handed
// two decoded trees it never fails; every edge case resolves to a status.
package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
)

// Status classifies one field comparison.
type Status string

const (
	StatusCorrect       Status = "correct"
	StatusCorrectNull   Status = "correct_null"
	StatusIncorrect     Status = "incorrect"
	StatusMissing       Status = "missing"
	StatusFalsePositive Status = "false_positive"
	// StatusUnknown is reserved for defensive completeness; normal operation
	// never emits it.
	StatusUnknown Status = "unknown"
)

// FieldComparison records the outcome at one ground-truth field path.
type FieldComparison struct {
	FieldPath        string `json:"field_path"`
	ExtractedValue   any    `json:"extracted_value"`
	GroundTruthValue any    `json:"ground_truth_value"`
	Status           Status `json:"status"`
}

// Summary aggregates a full comparison run. TotalFields always equals
// len(FieldDetails); each status maps to exactly one of the three buckets.
type Summary struct {
	TotalFields        int               `json:"total_fields"`
	CorrectFields      int               `json:"correct_fields"`
	IncorrectFields    int               `json:"incorrect_fields"`
	MissingFields      int               `json:"missing_fields"`
	AccuracyPercentage float64           `json:"accuracy_percentage"`
	FieldDetails       []FieldComparison `json:"field_details"`

	// SkippedPaths lists subtrees where ground truth and extraction disagreed
	// on container kind (mapping vs sequence). Nothing below such a path is
	// compared; the path is surfaced here instead of being dropped silently.
	SkippedPaths []string `json:"skipped_paths,omitempty"`
}

// skipKeys are administrative fields that are never compared.
var skipKeys = map[string]struct{}{
	"extraction_timestamp": {},
	"source_file":          {},
	"document_type":        {},
}

// Compare walks groundTruth, probing extracted at each path, and returns the
// field-level accuracy summary. Extra fields present only in extracted are
// not reported (ground truth defines what should exist); an extracted value
// where ground truth holds null surfaces as a false positive.
func Compare(extracted, groundTruth any) *Summary {
	w := &walker{summary: &Summary{FieldDetails: []FieldComparison{}}}
	w.walk(extracted, groundTruth, "")
	if w.summary.TotalFields > 0 {
		w.summary.AccuracyPercentage = float64(w.summary.CorrectFields) / float64(w.summary.TotalFields) * 100
	}
	return w.summary
}

// CompareFiles loads two JSON documents and compares them. This is the I/O
// wrapper around Compare; malformed documents are the only failure mode.
func CompareFiles(extractedPath, groundTruthPath string) (*Summary, error) {
	extracted, err := loadTree(extractedPath)
	if err != nil {
		return nil, err
	}
	groundTruth, err := loadTree(groundTruthPath)
	if err != nil {
		return nil, err
	}
	return Compare(extracted, groundTruth), nil
}

func loadTree(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "diff: read %s", path)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, eris.Wrapf(err, "diff: parse %s", path)
	}
	return tree, nil
}

type walker struct {
	summary *Summary
}

func (w *walker) walk(extracted, groundTruth any, path string) {
	gt := Classify(groundTruth)

	switch gt.Kind {
	case KindMapping, KindLeaf:
		ex, ok := extracted.(map[string]any)
		if !ok {
			if !isNullish(extracted) {
				w.skip(path)
				return
			}
			ex = map[string]any{}
		}
		w.walkMapping(ex, gt.Mapping, path)

	case KindSequence:
		ex, ok := extracted.([]any)
		if !ok {
			if !isNullish(extracted) {
				w.skip(path)
				return
			}
			ex = nil
		}
		w.walkSequence(ex, gt.Seq, path)

	case KindScalar:
		// A bare scalar at a container position carries no field set to
		// traverse; nothing to compare.
	}
}

func (w *walker) walkMapping(extracted, groundTruth map[string]any, path string) {
	// Keys are visited in sorted order so FieldDetails (and any persisted
	// report built from it) comes out identical across runs.
	for _, key := range sortedKeys(groundTruth) {
		gtChild := groundTruth[key]
		if _, skip := skipKeys[key]; skip {
			continue
		}

		childPath := key
		if path != "" {
			childPath = path + "." + key
		}

		switch Classify(gtChild).Kind {
		case KindLeaf:
			exChild, ok := extracted[key]
			if !ok {
				exChild = map[string]any{}
			}
			w.record(compareValues(LeafValue(exChild), LeafValue(gtChild), childPath))

		case KindMapping, KindSequence:
			w.walk(extracted[key], gtChild, childPath)

		case KindScalar:
			// Bare scalars inside containers (descriptions, section labels)
			// are administrative, not data.
		}
	}
}

func (w *walker) walkSequence(extracted, groundTruth []any, path string) {
	for i, gtItem := range groundTruth {
		itemPath := fmt.Sprintf("%s[%d]", path, i)

		var exItem any = map[string]any{}
		if i < len(extracted) {
			exItem = extracted[i]
		}

		switch Classify(gtItem).Kind {
		case KindLeaf:
			w.record(compareValues(LeafValue(exItem), LeafValue(gtItem), itemPath))
		case KindMapping, KindSequence:
			w.walk(exItem, gtItem, itemPath)
		case KindScalar:
			w.record(compareValues(LeafValue(exItem), gtItem, itemPath))
		}
	}
}

// compareValues resolves one leaf comparison to a status. Never fails:
// absent ground truth resolves via the null rules, absent extraction to
// missing, and everything else through the value-match predicate.
func compareValues(extractedValue, groundTruthValue any, path string) FieldComparison {
	fc := FieldComparison{
		FieldPath:        path,
		ExtractedValue:   extractedValue,
		GroundTruthValue: groundTruthValue,
		Status:           StatusUnknown,
	}

	if isNullish(groundTruthValue) {
		if isNullish(extractedValue) {
			fc.Status = StatusCorrectNull
		} else {
			fc.Status = StatusFalsePositive
		}
		return fc
	}

	if isNullish(extractedValue) {
		fc.Status = StatusMissing
		return fc
	}

	if Matches(extractedValue, groundTruthValue) {
		fc.Status = StatusCorrect
	} else {
		fc.Status = StatusIncorrect
	}
	return fc
}

func (w *walker) record(fc FieldComparison) {
	w.summary.TotalFields++
	w.summary.FieldDetails = append(w.summary.FieldDetails, fc)

	switch fc.Status {
	case StatusCorrect, StatusCorrectNull:
		w.summary.CorrectFields++
	case StatusIncorrect, StatusFalsePositive:
		w.summary.IncorrectFields++
	case StatusMissing:
		w.summary.MissingFields++
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (w *walker) skip(path string) {
	if path == "" {
		path = "(root)"
	}
	w.summary.SkippedPaths = append(w.summary.SkippedPaths, path)
}
