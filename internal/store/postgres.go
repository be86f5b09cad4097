package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/db"
	"github.com/sells-group/finextract/internal/diff"
	"github.com/sells-group/finextract/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, document, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_run_result": `UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, document, status, result, created_at, updated_at FROM runs WHERE id = $1`,
	"insert_phase":      `INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
	"complete_phase":    `UPDATE run_phases SET status = $1, result = $2 WHERE id = $3`,
	"get_cached_pages":  `SELECT id, source_file, pages, extracted_at, expires_at FROM page_cache WHERE source_file = $1 AND expires_at > now() ORDER BY extracted_at DESC LIMIT 1`,
	"set_cached_pages":  `INSERT INTO page_cache (id, source_file, pages, extracted_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (source_file) DO UPDATE SET pages = $3, extracted_at = $4, expires_at = $5`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document   JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accuracy_reports (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_file       TEXT NOT NULL,
	ground_truth_file TEXT NOT NULL,
	summary           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accuracy_fields (
	report_id          TEXT NOT NULL REFERENCES accuracy_reports(id),
	field_path         TEXT NOT NULL,
	status             TEXT NOT NULL,
	extracted_value    TEXT,
	ground_truth_value TEXT
);

CREATE TABLE IF NOT EXISTS page_cache (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_file  TEXT NOT NULL UNIQUE,
	pages        JSONB NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_accuracy_reports_source ON accuracy_reports(source_file);
CREATE INDEX IF NOT EXISTS idx_accuracy_fields_report ON accuracy_fields(report_id);
CREATE INDEX IF NOT EXISTS idx_accuracy_fields_status ON accuracy_fields(status);
CREATE INDEX IF NOT EXISTS idx_page_cache_source_file ON page_cache(source_file);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, doc model.Document) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal document")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, document, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, docJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Document:  doc,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var docJSON []byte
	var resultNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, document, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &docJSON, &r.Status, &resultNull, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(docJSON, &r.Document); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal document")
	}
	if resultNull != nil {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(*resultNull, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, document, status, result, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.SourceFile != "" {
		query += fmt.Sprintf(` AND document->>'source_file' = $%d`, argIdx)
		args = append(args, filter.SourceFile)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var docJSON []byte
		var resultNull *[]byte

		if err := rows.Scan(&r.ID, &docJSON, &r.Status, &resultNull, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(docJSON, &r.Document); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal document")
		}
		if resultNull != nil {
			r.Result = &model.RunResult{}
			if err := json.Unmarshal(*resultNull, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal phase result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE run_phases SET status = $1, result = $2 WHERE id = $3`,
		string(result.Status), resultJSON, phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete phase %s", phaseID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("phase not found: %s", phaseID)
	}
	return nil
}

func (s *PostgresStore) SaveAccuracyReport(ctx context.Context, report *model.AccuracyReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO accuracy_reports (id, source_file, ground_truth_file, summary, created_at) VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.SourceFile, report.GroundTruthFile, summaryJSON, report.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert accuracy report")
	}

	if report.Summary != nil && len(report.Summary.FieldDetails) > 0 {
		if err := s.saveFieldDetails(ctx, report.ID, report.Summary.FieldDetails); err != nil {
			return err
		}
	}
	return nil
}

// saveFieldDetails bulk-loads per-field comparison rows so mismatch patterns
// can be queried with plain SQL across reports.
func (s *PostgresStore) saveFieldDetails(ctx context.Context, reportID string, details []diff.FieldComparison) error {
	rows := make([][]any, len(details))
	for i, fc := range details {
		rows[i] = []any{
			reportID,
			fc.FieldPath,
			string(fc.Status),
			fmt.Sprintf("%v", fc.ExtractedValue),
			fmt.Sprintf("%v", fc.GroundTruthValue),
		}
	}

	_, err := db.CopyFrom(ctx, s.pool, "accuracy_fields",
		[]string{"report_id", "field_path", "status", "extracted_value", "ground_truth_value"},
		rows,
	)
	return err
}

func (s *PostgresStore) ListAccuracyReports(ctx context.Context, sourceFile string, limit int) ([]model.AccuracyReport, error) {
	query := `SELECT id, source_file, ground_truth_file, summary, created_at FROM accuracy_reports WHERE true`
	args := []any{}
	argIdx := 1

	if sourceFile != "" {
		query += fmt.Sprintf(` AND source_file = $%d`, argIdx)
		args = append(args, sourceFile)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accuracy reports")
	}
	defer rows.Close()

	var reports []model.AccuracyReport
	for rows.Next() {
		var rep model.AccuracyReport
		var summaryJSON []byte
		if err := rows.Scan(&rep.ID, &rep.SourceFile, &rep.GroundTruthFile, &summaryJSON, &rep.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan accuracy report")
		}
		if err := json.Unmarshal(summaryJSON, &rep.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		reports = append(reports, rep)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list accuracy reports iterate")
}

func (s *PostgresStore) GetCachedPages(ctx context.Context, sourceFile string) (*model.PageCache, error) {
	var pc model.PageCache
	var pagesJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, source_file, pages, extracted_at, expires_at FROM page_cache
		 WHERE source_file = $1 AND expires_at > now()
		 ORDER BY extracted_at DESC LIMIT 1`,
		sourceFile,
	).Scan(&pc.ID, &pc.SourceFile, &pagesJSON, &pc.ExtractedAt, &pc.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached pages")
	}
	if err := json.Unmarshal(pagesJSON, &pc.Pages); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached pages")
	}
	return &pc, nil
}

func (s *PostgresStore) SetCachedPages(ctx context.Context, sourceFile string, pages []model.PageText, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pages")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO page_cache (id, source_file, pages, extracted_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (source_file) DO UPDATE SET pages = $3, extracted_at = $4, expires_at = $5`,
		id, sourceFile, pagesJSON, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set cached pages")
}

func (s *PostgresStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM page_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired pages")
	}
	return int(tag.RowsAffected()), nil
}
