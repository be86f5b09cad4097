package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/schema"
	"github.com/sells-group/finextract/pkg/anthropic"
)

const mapperMaxTokens = 8000

// mappingRow is one element of the mapper model's JSON array response.
type mappingRow struct {
	LabelRaw    string         `json:"label_raw"`
	SchemaField *string        `json:"schema_field"`
	Section     *string        `json:"section"`
	Confidence  float64        `json:"confidence"`
	Reason      string         `json:"reason"`
	Values      map[string]any `json:"values"`
	IsTotal     bool           `json:"is_total"`
}

// MapToSchema maps the raw extraction onto the global balance-sheet schema.
// Items the model leaves unmapped, and mappings that name fields not in the
// catalog, land in UnmappedItems with a reason rather than being dropped.
func MapToSchema(ctx context.Context, client anthropic.Client, cfg *config.Config, interim *schema.Interim) (*schema.Statement, anthropic.TokenUsage, error) {
	if interim == nil || len(interim.Items) == 0 {
		return nil, anthropic.TokenUsage{}, eris.New("pipeline: nothing to map")
	}

	system, err := mapperSystemPrompt()
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "pipeline: render mapper schema")
	}
	user, err := mapperUserPrompt(interim.Items)
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "pipeline: render mapper items")
	}

	resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     cfg.Anthropic.MapperModel,
		MaxTokens: mapperMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(system),
		Messages: []anthropic.Message{
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "pipeline: schema mapping")
	}

	var rows []mappingRow
	if err := json.Unmarshal([]byte(cleanJSONArray(extractText(resp))), &rows); err != nil {
		return nil, resp.Usage, eris.Wrap(err, "pipeline: parse mapping response")
	}

	st := buildStatement(rows, interim)

	zap.L().Info("map: schema mapping complete",
		zap.Int("rows", len(rows)),
		zap.Int("unmapped", len(st.UnmappedItems.Items)),
	)

	return st, resp.Usage, nil
}

// buildStatement applies mapping rows to a fresh statement.
func buildStatement(rows []mappingRow, interim *schema.Interim) *schema.Statement {
	st := schema.NewStatement(schema.Metadata{
		Currency: interim.Currency,
		Years:    interim.Years,
	})

	for _, row := range rows {
		if row.Section == nil || (row.SchemaField == nil && !isTotalSection(*row.Section)) {
			st.UnmappedItems.Items = append(st.UnmappedItems.Items, schema.UnmappedItem{
				LabelRaw: row.LabelRaw,
				Values:   row.Values,
				Reason:   reasonOr(row.Reason, "no matching schema field"),
			})
			continue
		}

		field := ""
		if row.SchemaField != nil {
			field = *row.SchemaField
		}

		leaf := &schema.LeafField{
			Value:      primaryValue(row.Values),
			Confidence: row.Confidence,
			Years:      row.Values,
			Currency:   interim.Currency,
			MappedFrom: row.LabelRaw,
			IsTotal:    row.IsTotal,
			Notes:      row.Reason,
		}

		if !st.SetField(*row.Section, field, leaf) {
			st.UnmappedItems.Items = append(st.UnmappedItems.Items, schema.UnmappedItem{
				LabelRaw: row.LabelRaw,
				Values:   row.Values,
				Reason:   fmt.Sprintf("no such schema field %s.%s", *row.Section, field),
			})
		}
	}

	return st
}

// primaryValue picks the most recent year's non-empty value as the leaf's
// headline amount.
func primaryValue(values map[string]any) any {
	years := make([]string, 0, len(values))
	for y := range values {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	for _, y := range years {
		v := values[y]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func isTotalSection(section string) bool {
	return section == schema.SectionLiabilitiesTotal || section == schema.SectionAssetsTotal
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
