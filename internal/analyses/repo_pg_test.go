package analyses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mission-backend/internal/scoring"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateIncludesPromptMetadata(t *testing.T) {
	repo, mock := newMockRepo(t)
	analysis := Analysis{
		ID:                "analysis-1",
		UserID:            "user-1",
		Status:            StatusQueued,
		AdvisoryRequested: true,
		Result:            Result{Text: "We organize the world", Industry: "technology", Overall: 71},
		AnalysisVersion:   AnalysisVersion,
		PromptHash:        "deadbeef",
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		CreatedAt:         time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			analysis.ID,
			analysis.UserID,
			analysis.Status,
			true,
			"We organize the world",
			"technology",
			71,
			sqlmock.AnyArg(), // result
			"openai",
			"gpt-4o-mini",
			"deadbeef",
			AnalysisVersion,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesResult(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "status", "advisory_requested", "result", "provider", "model",
		"prompt_hash", "analysis_version", "report_key", "error_code", "error_message",
		"started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
		"analysis-1", "user-1", StatusCompleted, false,
		`{"text":"We organize","overall":64,"scores":{"clarity":70}}`,
		nil, nil, nil, AnalysisVersion, "reports/analysis-1.md", nil, nil,
		now, now, now, now,
	)
	mock.ExpectQuery("SELECT id, user_id, status").
		WithArgs("analysis-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "analysis-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Result.Overall != 64 || got.Result.Scores.Clarity != 70 {
		t.Fatalf("unexpected result: %+v", got.Result)
	}
	if got.ReportKey != "reports/analysis-1.md" {
		t.Fatalf("report key = %q", got.ReportKey)
	}
	if got.Provider != "" || got.CompletedAt == nil {
		t.Fatalf("unexpected metadata: %+v", got)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT id, user_id, status").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), Analysis{
		ID:     "analysis-1",
		Status: StatusCompleted,
		Result: Result{Scores: scoring.Scores{Clarity: 50}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoReassignUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE analyses").
		WithArgs("user-1", "guest:abc").
		WillReturnResult(sqlmock.NewResult(0, 3))

	moved, err := repo.ReassignUser(context.Background(), "guest:abc", "user-1")
	if err != nil {
		t.Fatalf("ReassignUser: %v", err)
	}
	if moved != 3 {
		t.Fatalf("moved = %d, want 3", moved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM analyses").
		WithArgs("user-1", maxListLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.ListByUser(context.Background(), "user-1", 1000, -5)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}
