package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Analysis)}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = analysis
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// Update overwrites the mutable fields of an existing analysis.
func (r *MemoryRepo) Update(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[analysis.ID]
	if !ok {
		return ErrNotFound
	}
	current.Status = analysis.Status
	current.Result = analysis.Result
	current.Provider = analysis.Provider
	current.Model = analysis.Model
	current.PromptHash = analysis.PromptHash
	current.ErrorCode = analysis.ErrorCode
	current.ErrorMessage = analysis.ErrorMessage
	if analysis.StartedAt != nil {
		current.StartedAt = analysis.StartedAt
	}
	if analysis.CompletedAt != nil {
		current.CompletedAt = analysis.CompletedAt
	}
	current.UpdatedAt = time.Now().UTC()
	r.byID[analysis.ID] = current
	return nil
}

// ListByUser returns analyses for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)

	r.mu.RLock()
	var owned []Analysis
	for _, a := range r.byID {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	r.mu.RUnlock()

	if offset >= len(owned) {
		return []Analysis{}, nil
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	end := len(owned)
	if offset+limit < end {
		end = offset + limit
	}
	return owned[offset:end], nil
}

// ReassignUser moves analyses between owners.
func (r *MemoryRepo) ReassignUser(ctx context.Context, fromUserID, toUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, a := range r.byID {
		if a.UserID != fromUserID {
			continue
		}
		a.UserID = toUserID
		a.UpdatedAt = time.Now().UTC()
		r.byID[id] = a
		moved++
	}
	return moved, nil
}

// SetReportKey records where the rendered report was stored.
func (r *MemoryRepo) SetReportKey(ctx context.Context, analysisID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	a.ReportKey = key
	r.byID[analysisID] = a
	return nil
}
