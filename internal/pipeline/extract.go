package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/schema"
	"github.com/sells-group/finextract/pkg/anthropic"
)

// extractorMaxTokens must cover a full multi-year statement table as JSON.
const extractorMaxTokens = 8000

// ExtractRaw runs the schema-free extraction pass over the combined
// statement text, returning labels and values exactly as they appear in the
// document. Format problems in the result are logged, not fatal.
func ExtractRaw(ctx context.Context, client anthropic.Client, cfg *config.Config, sfpText string) (*schema.Interim, anthropic.TokenUsage, error) {
	if sfpText == "" {
		return nil, anthropic.TokenUsage{}, eris.New("pipeline: no statement text to extract")
	}

	resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     cfg.Anthropic.ExtractorModel,
		MaxTokens: extractorMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(extractorSystem),
		Messages: []anthropic.Message{
			{Role: "user", Content: extractorUserPrompt(sfpText)},
		},
	})
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "pipeline: raw extraction")
	}

	var interim schema.Interim
	if err := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &interim); err != nil {
		return nil, resp.Usage, eris.Wrap(err, "pipeline: parse raw extraction")
	}

	if problems := interim.CheckInterim(); len(problems) > 0 {
		zap.L().Warn("extract: raw extraction has format problems",
			zap.Strings("problems", problems),
			zap.Int("items", len(interim.Items)),
		)
	}

	zap.L().Info("extract: raw extraction complete",
		zap.Int("items", len(interim.Items)),
		zap.Strings("years", interim.Years),
		zap.String("currency", interim.Currency),
	)

	return &interim, resp.Usage, nil
}
