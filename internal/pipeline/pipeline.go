// Package pipeline runs the end-to-end extraction: OCR, statement page
// classification, raw extraction, schema mapping, and validation. Each phase
// is recorded against the run and its artifact written to the output
// directory.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/ocr"
	"github.com/sells-group/finextract/internal/schema"
	"github.com/sells-group/finextract/internal/store"
	"github.com/sells-group/finextract/internal/validate"
	"github.com/sells-group/finextract/pkg/anthropic"
)

// Pipeline wires the extraction stages to their dependencies.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	ai        anthropic.Client
	extractor ocr.Extractor
}

// New builds a pipeline from its dependencies.
func New(cfg *config.Config, st store.Store, ai anthropic.Client, extractor ocr.Extractor) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, ai: ai, extractor: extractor}
}

// Run executes the full pipeline for one PDF. The returned run carries the
// populated statement and its validation result; intermediate artifacts are
// written next to the final output. A failed phase fails the run, but the
// phase record and any artifacts already written survive for debugging.
func (p *Pipeline) Run(ctx context.Context, pdfPath string) (*model.Run, error) {
	sourceFile := filepath.Base(pdfPath)
	base := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	log := zap.L().With(zap.String("source_file", sourceFile))
	started := time.Now()

	run, err := p.store.CreateRun(ctx, model.Document{
		SourceFile:   sourceFile,
		DocumentType: "balance_sheet",
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark run running")
	}

	fail := func(cause error) (*model.Run, error) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); statusErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(statusErr))
		}
		run.Status = model.RunStatusFailed
		return run, cause
	}

	// trackPhase records the phase in the store and logs its outcome. The
	// phase function's error is returned unchanged.
	trackPhase := func(name string, fn func() error) error {
		phase, phaseErr := p.store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		fnErr := fn()
		duration := time.Since(start).Milliseconds()

		result := &model.PhaseResult{
			Status:     model.PhaseStatusComplete,
			DurationMS: duration,
		}
		if fnErr != nil {
			result.Status = model.PhaseStatusFailed
			result.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			if completeErr := p.store.CompletePhase(ctx, phase.ID, result); completeErr != nil {
				log.Warn("pipeline: failed to record phase", zap.String("phase", name), zap.Error(completeErr))
			}
		}
		return fnErr
	}

	var totalUsage anthropic.TokenUsage
	addUsage := func(u anthropic.TokenUsage) {
		totalUsage.InputTokens += u.InputTokens
		totalUsage.OutputTokens += u.OutputTokens
		totalUsage.CacheCreationInputTokens += u.CacheCreationInputTokens
		totalUsage.CacheReadInputTokens += u.CacheReadInputTokens
	}

	// ===== Phase 1: OCR =====
	var pages []ocr.Page
	err = trackPhase("ocr", func() error {
		cached, cacheErr := p.store.GetCachedPages(ctx, sourceFile)
		if cacheErr != nil {
			log.Warn("pipeline: page cache lookup failed", zap.Error(cacheErr))
		}
		if cached != nil {
			for _, pt := range cached.Pages {
				pages = append(pages, ocr.Page{Number: pt.Number, Text: pt.Text})
			}
			log.Info("pipeline: using cached pages", zap.Int("pages", len(pages)))
			return nil
		}

		extracted, extractErr := p.extractor.ExtractPages(ctx, pdfPath)
		if extractErr != nil {
			return extractErr
		}
		pages = extracted

		cachePages := make([]model.PageText, len(pages))
		for i, pg := range pages {
			cachePages[i] = model.PageText{Number: pg.Number, Text: pg.Text}
		}
		ttl := time.Duration(p.cfg.Pipeline.CacheTTLHours) * time.Hour
		if setErr := p.store.SetCachedPages(ctx, sourceFile, cachePages, ttl); setErr != nil {
			log.Warn("pipeline: failed to cache pages", zap.Error(setErr))
		}
		return nil
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: ocr"))
	}
	if writeErr := p.writeArtifact(base+"_extracted.json", pages); writeErr != nil {
		log.Warn("pipeline: failed to write artifact", zap.Error(writeErr))
	}

	// ===== Phase 2: Classify statement pages =====
	var classification *Classification
	err = trackPhase("classify", func() error {
		var classifyErr error
		classification, classifyErr = ClassifyPages(ctx, p.ai, p.cfg, pages)
		return classifyErr
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: classify"))
	}
	addUsage(classification.Usage)
	classification.Usage.LogCost(p.cfg.Anthropic.ClassifierModel, "classify")
	if writeErr := p.writeArtifact(base+"_classified.json", classification); writeErr != nil {
		log.Warn("pipeline: failed to write artifact", zap.Error(writeErr))
	}
	if len(classification.SFPPages) == 0 {
		return fail(eris.New("pipeline: no statement of financial position pages found"))
	}

	// ===== Phase 3: Raw extraction =====
	var interim *schema.Interim
	err = trackPhase("extract", func() error {
		var usage anthropic.TokenUsage
		var extractErr error
		interim, usage, extractErr = ExtractRaw(ctx, p.ai, p.cfg, classification.SFPText)
		addUsage(usage)
		usage.LogCost(p.cfg.Anthropic.ExtractorModel, "extract")
		return extractErr
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: extract"))
	}
	if writeErr := p.writeArtifact(base+"_interim.json", interim); writeErr != nil {
		log.Warn("pipeline: failed to write artifact", zap.Error(writeErr))
	}

	// ===== Phase 4: Schema mapping =====
	var statement *schema.Statement
	err = trackPhase("map", func() error {
		var usage anthropic.TokenUsage
		var mapErr error
		statement, usage, mapErr = MapToSchema(ctx, p.ai, p.cfg, interim)
		addUsage(usage)
		usage.LogCost(p.cfg.Anthropic.MapperModel, "map")
		return mapErr
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: map"))
	}
	statement.Metadata.SourceFile = sourceFile
	statement.Metadata.ExtractionTimestamp = time.Now().UTC().Format(time.RFC3339)
	if writeErr := p.writeArtifact(base+"_mapped.json", statement); writeErr != nil {
		log.Warn("pipeline: failed to write artifact", zap.Error(writeErr))
	}

	// ===== Phase 5: Validation =====
	err = trackPhase("validate", func() error {
		result, validateErr := validate.Validate(statement)
		if validateErr != nil {
			return validateErr
		}
		statement.Validation = result
		return nil
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: validate"))
	}
	if writeErr := p.writeArtifact(base+"_final.json", statement); writeErr != nil {
		log.Warn("pipeline: failed to write artifact", zap.Error(writeErr))
	}

	result := &model.RunResult{
		Statement:        statement,
		PagesTotal:       len(pages),
		StatementPages:   classification.StatementPageNumbers(),
		ValidationStatus: statement.Validation.Status,
		ArtifactDir:      p.cfg.Pipeline.OutputDir,
		DurationMS:       time.Since(started).Milliseconds(),
		InputTokens:      totalUsage.InputTokens,
		OutputTokens:     totalUsage.OutputTokens,
	}
	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		return fail(eris.Wrap(err, "pipeline: record result"))
	}

	run.Status = model.RunStatusComplete
	run.Result = result
	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.String("validation_status", result.ValidationStatus),
		zap.Int64("duration_ms", result.DurationMS),
		zap.Int64("input_tokens", result.InputTokens),
		zap.Int64("output_tokens", result.OutputTokens),
	)

	return run, nil
}

// writeArtifact writes a JSON artifact to the output directory with 2-space
// indentation, matching the artifact format downstream tooling reads.
func (p *Pipeline) writeArtifact(name string, v any) error {
	if err := os.MkdirAll(p.cfg.Pipeline.OutputDir, 0o755); err != nil {
		return eris.Wrap(err, "pipeline: create output dir")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", name)
	}
	path := filepath.Join(p.cfg.Pipeline.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", name)
	}
	return nil
}
