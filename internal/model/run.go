// Package model holds the persistence-facing types for extraction runs:
// the run lifecycle, per-phase records, accuracy reports, and the OCR page
// cache.
package model

import (
	"time"

	"github.com/sells-group/finextract/internal/diff"
	"github.com/sells-group/finextract/internal/schema"
)

// Document identifies the input of a run.
type Document struct {
	SourceFile   string `json:"source_file"`
	DocumentType string `json:"document_type,omitempty"`
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// Run is one end-to-end extraction of a document.
type Run struct {
	ID        string     `json:"id"`
	Document  Document   `json:"document"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Statement        *schema.Statement `json:"statement,omitempty"`
	PagesTotal       int               `json:"pages_total"`
	StatementPages   []int             `json:"statement_pages,omitempty"`
	ValidationStatus string            `json:"validation_status,omitempty"`
	ArtifactDir      string            `json:"artifact_dir,omitempty"`
	DurationMS       int64             `json:"duration_ms"`
	InputTokens      int64             `json:"input_tokens,omitempty"`
	OutputTokens     int64             `json:"output_tokens,omitempty"`
}

// PhaseStatus is the lifecycle state of one pipeline phase within a run.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// RunPhase records one pipeline stage (ocr, classify, extract, map,
// validate) of a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseResult is the terminal record of a phase.
type PhaseResult struct {
	Status     PhaseStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// AccuracyReport stores one extraction-vs-ground-truth comparison.
type AccuracyReport struct {
	ID              string        `json:"id"`
	SourceFile      string        `json:"source_file"`
	GroundTruthFile string        `json:"ground_truth_file"`
	Summary         *diff.Summary `json:"summary"`
	CreatedAt       time.Time     `json:"created_at"`
}

// PageText is one cached page of extracted text.
type PageText struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// PageCache is a TTL'd record of a document's extracted pages, keyed by
// source file. OCR is the slowest stage, so repeat runs reuse it.
type PageCache struct {
	ID          string     `json:"id"`
	SourceFile  string     `json:"source_file"`
	Pages       []PageText `json:"pages"`
	ExtractedAt time.Time  `json:"extracted_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}
