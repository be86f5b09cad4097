package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/ocr"
	"github.com/sells-group/finextract/pkg/anthropic"
)

// classifierMaxTokens bounds the classifier response; the expected JSON is
// tiny.
const classifierMaxTokens = 300

// PageClassification is the classifier's verdict for a single page.
type PageClassification struct {
	PageNumber  int     `json:"page_number"`
	ContainsSFP bool    `json:"contains_sfp"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason,omitempty"`
}

// Classification aggregates per-page verdicts for a document.
type Classification struct {
	SFPPages     []PageClassification `json:"sfp_pages"`
	NonSFPPages  []PageClassification `json:"non_sfp_pages"`
	SkippedPages []int                `json:"skipped_pages,omitempty"`
	SFPText      string               `json:"-"`
	Usage        anthropic.TokenUsage `json:"-"`
}

// StatementPageNumbers returns the page numbers classified as statement
// pages, in document order.
func (c *Classification) StatementPageNumbers() []int {
	nums := make([]int, len(c.SFPPages))
	for i, p := range c.SFPPages {
		nums[i] = p.PageNumber
	}
	return nums
}

// classifierResponse is the JSON shape the classifier model returns.
type classifierResponse struct {
	ContainsSFP bool    `json:"contains_sfp"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// ClassifyPages asks the classifier model which pages carry the Statement of
// Financial Position. Pages shorter than the configured minimum are skipped
// without an API call. Pages are classified concurrently; a response that
// fails to parse downgrades that page to not-SFP rather than failing the
// document.
func ClassifyPages(ctx context.Context, client anthropic.Client, cfg *config.Config, pages []ocr.Page) (*Classification, error) {
	log := zap.L()

	type slot struct {
		verdict *PageClassification
		text    string
		skipped bool
	}
	slots := make([]slot, len(pages))

	g, gCtx := errgroup.WithContext(ctx)
	limit := cfg.Pipeline.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	var mu sync.Mutex
	var usage anthropic.TokenUsage

	system := anthropic.BuildCachedSystemBlocks(classifierSystem)

	for i, page := range pages {
		if len(strings.TrimSpace(page.Text)) < cfg.Pipeline.MinPageChars {
			slots[i] = slot{skipped: true}
			log.Debug("classify: page skipped, too short", zap.Int("page", page.Number))
			continue
		}

		g.Go(func() error {
			resp, err := client.CreateMessage(gCtx, anthropic.MessageRequest{
				Model:     cfg.Anthropic.ClassifierModel,
				MaxTokens: classifierMaxTokens,
				System:    system,
				Messages: []anthropic.Message{
					{Role: "user", Content: classifierUserPrompt(page.Text)},
				},
			})
			if err != nil {
				return err
			}

			mu.Lock()
			usage.InputTokens += resp.Usage.InputTokens
			usage.OutputTokens += resp.Usage.OutputTokens
			usage.CacheCreationInputTokens += resp.Usage.CacheCreationInputTokens
			usage.CacheReadInputTokens += resp.Usage.CacheReadInputTokens
			mu.Unlock()

			var parsed classifierResponse
			if err := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &parsed); err != nil {
				log.Warn("classify: unparseable response, treating page as non-statement",
					zap.Int("page", page.Number),
					zap.Error(err),
				)
				parsed = classifierResponse{Reason: "failed to parse model response"}
			}

			slots[i].verdict = &PageClassification{
				PageNumber:  page.Number,
				ContainsSFP: parsed.ContainsSFP,
				Confidence:  parsed.Confidence,
				Reason:      parsed.Reason,
			}
			slots[i].text = page.Text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Classification{Usage: usage}
	var sfpTexts []string
	for i, s := range slots {
		if s.skipped {
			result.SkippedPages = append(result.SkippedPages, pages[i].Number)
			continue
		}
		if s.verdict == nil {
			continue
		}
		if s.verdict.ContainsSFP {
			result.SFPPages = append(result.SFPPages, *s.verdict)
			sfpTexts = append(sfpTexts, s.text)
		} else {
			result.NonSFPPages = append(result.NonSFPPages, *s.verdict)
		}
	}
	result.SFPText = strings.Join(sfpTexts, "\n\n")

	log.Info("classify: pages classified",
		zap.Int("total", len(pages)),
		zap.Int("statement_pages", len(result.SFPPages)),
		zap.Int("skipped", len(result.SkippedPages)),
	)

	return result, nil
}
