package analyses

import "context"

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	// Update replaces status, result, provider metadata, error fields and
	// timestamps of an existing analysis.
	Update(ctx context.Context, analysis Analysis) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error)
	// ReassignUser moves every analysis owned by fromUserID to toUserID and
	// returns how many moved.
	ReassignUser(ctx context.Context, fromUserID, toUserID string) (int, error)
	SetReportKey(ctx context.Context, analysisID, key string) error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
