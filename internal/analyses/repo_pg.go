package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, user_id, status, advisory_requested, result, provider, model,
       prompt_hash, analysis_version, report_key, error_code, error_message,
       started_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, user_id, status, advisory_requested, text, industry, overall, result,
	provider, model, prompt_hash, analysis_version, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	payload, err := json.Marshal(analysis.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.UserID,
		analysis.Status,
		analysis.AdvisoryRequested,
		analysis.Result.Text,
		analysis.Result.Industry,
		analysis.Result.Overall,
		payload,
		nullString(analysis.Provider),
		nullString(analysis.Model),
		nullString(analysis.PromptHash),
		analysis.AnalysisVersion,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// Update writes status, result and metadata for an analysis.
func (r *PGRepo) Update(ctx context.Context, analysis Analysis) error {
	const query = `
UPDATE analyses
SET status = $1,
    overall = $2,
    result = $3::jsonb,
    provider = COALESCE($4::text, provider),
    model = COALESCE($5::text, model),
    prompt_hash = COALESCE($6::text, prompt_hash),
    error_code = $7::text,
    error_message = $8::text,
    started_at = COALESCE($9::timestamptz, started_at),
    completed_at = COALESCE($10::timestamptz, completed_at),
    updated_at = now()
WHERE id = $11::uuid AND deleted_at IS NULL`

	payload, err := json.Marshal(analysis.Result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		analysis.Status,
		analysis.Result.Overall,
		payload,
		nullString(analysis.Provider),
		nullString(analysis.Model),
		nullString(analysis.PromptHash),
		nullString(analysis.ErrorCode),
		nullString(analysis.ErrorMessage),
		analysis.StartedAt,
		analysis.CompletedAt,
		analysis.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists analyses for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	limit, offset = normalizePage(limit, offset)
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReassignUser moves analyses from one owner to another.
func (r *PGRepo) ReassignUser(ctx context.Context, fromUserID, toUserID string) (int, error) {
	const query = `
UPDATE analyses
SET user_id = $1, updated_at = now()
WHERE user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, toUserID, fromUserID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SetReportKey stores the object key of a rendered report.
func (r *PGRepo) SetReportKey(ctx context.Context, analysisID, key string) error {
	const query = `
UPDATE analyses
SET report_key = $1, updated_at = now()
WHERE id = $2::uuid AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, key, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var result sql.NullString
	var provider, model, promptHash, analysisVersion sql.NullString
	var reportKey, errorCode, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Status,
		&a.AdvisoryRequested,
		&result,
		&provider,
		&model,
		&promptHash,
		&analysisVersion,
		&reportKey,
		&errorCode,
		&errorMessage,
		&startedAt,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Analysis{}, err
	}
	if result.Valid {
		// A corrupt payload leaves an empty result rather than failing the read.
		_ = json.Unmarshal([]byte(result.String), &a.Result)
	}
	a.Provider = provider.String
	a.Model = model.String
	a.PromptHash = promptHash.String
	a.AnalysisVersion = analysisVersion.String
	a.ReportKey = reportKey.String
	a.ErrorCode = errorCode.String
	a.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
