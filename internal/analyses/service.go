package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"mission-backend/internal/advisory"
	"mission-backend/internal/analyses/recommendations"
	"mission-backend/internal/industry"
	"mission-backend/internal/queue"
	"mission-backend/internal/scoring"
	"mission-backend/internal/session"
	"mission-backend/internal/shared/metrics"
	"mission-backend/internal/shared/storage/object"
	"mission-backend/internal/shared/telemetry"
	"mission-backend/internal/usage"
)

// AnalysisVersion tags results produced by the current rule set.
const AnalysisVersion = "rules:v1"

// Service contains business logic for analyses.
type Service struct {
	Repo            Repo
	Usage           *usage.Service
	Advisory        advisory.Generator
	History         session.Store
	Queue           queue.Client
	Store           object.ObjectStore
	Catalog         *industry.Catalog
	Provider        string
	Model           string
	AnalysisVersion string
	AdvisoryTimeout time.Duration
}

// Input is one analysis request.
type Input struct {
	Text     string
	Industry string
	Advisory bool
	Async    bool
}

// Outcome is what Analyze returns to the transport layer.
type Outcome struct {
	Analysis Analysis
	Saved    bool
	Queued   bool
}

// Score runs only the deterministic engine. Nothing is stored.
func (s *Service) Score(text, industryTag string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, &ValidationError{Field: "text", Issue: "required", Message: "text is required"}
	}
	return s.deterministic(text, industryTag), nil
}

// Analyze scores text, optionally layers the advisory result on top, stores
// the analysis and appends it to the principal's history.
func (s *Service) Analyze(ctx context.Context, principal string, in Input) (Outcome, error) {
	if principal == "" {
		return Outcome{}, errors.New("principal is required")
	}
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return Outcome{}, &ValidationError{
			Field:   "text",
			Issue:   "too_short",
			Message: fmt.Sprintf("mission statement must be at least %d characters", MinTextLength),
		}
	}

	now := time.Now().UTC()
	analysis := Analysis{
		ID:                uuid.NewString(),
		UserID:            principal,
		Status:            StatusCompleted,
		AdvisoryRequested: in.Advisory,
		Result:            s.deterministic(text, in.Industry),
		AnalysisVersion:   s.version(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if in.Advisory && in.Async && s.Repo != nil {
		return s.enqueue(ctx, analysis)
	}
	if in.Advisory {
		s.runAdvisory(ctx, &analysis)
	}
	analysis.CompletedAt = &now

	saved := s.persist(ctx, analysis)
	s.recordHistory(ctx, analysis)
	return Outcome{Analysis: analysis, Saved: saved}, nil
}

// ProcessAnalysis runs the advisory path for a queued analysis. It is safe to
// call more than once for the same ID.
func (s *Service) ProcessAnalysis(ctx context.Context, analysisID string) error {
	if analysisID == "" {
		return errors.New("analysisID is required")
	}
	if s.Repo == nil {
		return errors.New("analysis repo not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, fmt.Errorf("panic: %v", r))
		}
	}()

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("analysis lookup: %w", err)
	}
	if analysis.Status == StatusCompleted || analysis.Status == StatusFailed {
		return nil
	}

	startedAt := time.Now().UTC()
	analysis.Status = StatusProcessing
	analysis.StartedAt = &startedAt
	if err := s.Repo.Update(ctx, analysis); err != nil {
		return fmt.Errorf("set processing failed: %w", err)
	}
	s.logStatus(ctx, analysis, "queued->processing", nil)

	if analysis.AdvisoryRequested {
		s.runAdvisory(ctx, &analysis)
	}

	completedAt := time.Now().UTC()
	analysis.Status = StatusCompleted
	analysis.CompletedAt = &completedAt
	if err := s.Repo.Update(ctx, analysis); err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("set analysis result failed: %w", err))
		return fmt.Errorf("storage: %w", err)
	}
	metrics.IncJob(StatusCompleted)
	s.logStatus(ctx, analysis, "processing->completed", &startedAt)
	s.recordHistory(ctx, analysis)
	return nil
}

// Get returns an analysis owned by userID.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, ErrNotFound
	}
	if s.Repo == nil {
		return Analysis{}, ErrNotFound
	}
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// List returns analyses for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	if s.Repo == nil {
		return []Analysis{}, nil
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// RecentHistory returns the principal's recent analyses.
func (s *Service) RecentHistory(ctx context.Context, principal string) (session.History, error) {
	if s.History == nil {
		return session.NewHistory(), nil
	}
	return s.History.Load(ctx, principal)
}

// ClaimGuest moves a guest's analyses and history to userID.
func (s *Service) ClaimGuest(ctx context.Context, guestID, userID string) (int, error) {
	if guestID == "" || userID == "" || guestID == userID {
		return 0, nil
	}
	moved := 0
	if s.Repo != nil {
		n, err := s.Repo.ReassignUser(ctx, guestID, userID)
		if err != nil {
			return 0, fmt.Errorf("reassign analyses: %w", err)
		}
		moved = n
	}
	if s.History != nil {
		guest, err := session.Take(ctx, s.History, guestID)
		if err != nil {
			return moved, fmt.Errorf("take guest history: %w", err)
		}
		if guest.Len() > 0 {
			entries := guest.Entries()
			_, err := s.History.Update(ctx, userID, func(h session.History) session.History {
				for i := len(entries) - 1; i >= 0; i-- {
					h = h.Append(entries[i])
				}
				return h
			})
			if err != nil {
				return moved, fmt.Errorf("merge user history: %w", err)
			}
		}
	}
	return moved, nil
}

func (s *Service) catalog() *industry.Catalog {
	if s.Catalog != nil {
		return s.Catalog
	}
	return industry.Default()
}

func (s *Service) version() string {
	if v := strings.TrimSpace(s.AnalysisVersion); v != "" {
		return v
	}
	return AnalysisVersion
}

func (s *Service) deterministic(text, industryTag string) Result {
	catalog := s.catalog()
	scored := scoring.Score(text)
	metrics.ObserveScored(SourceRules, scored.Overall)
	return Result{
		Text:            text,
		Industry:        catalog.Canonical(industryTag),
		IndustryContext: catalog.Context(industryTag),
		WordCount:       scored.WordCount,
		Source:          SourceRules,
		Scores:          scored.Scores,
		Overall:         scored.Overall,
		Label:           scoring.Label(scored.Overall),
		Band:            scoring.Band(scored.Overall),
		Weaknesses:      scored.Weaknesses,
		RewritePlan:     scored.Rewrites,
		Recommendations: normalizeRecommendations(recommendations.Generate(scored)),
	}
}

func (s *Service) enqueue(ctx context.Context, analysis Analysis) (Outcome, error) {
	analysis.Status = StatusQueued
	analysis.CompletedAt = nil
	if err := s.Repo.Create(ctx, analysis); err != nil {
		metrics.IncPersistFailure()
		return Outcome{}, fmt.Errorf("storage: create analysis: %w", err)
	}
	if s.Queue == nil {
		go func() {
			_ = s.ProcessAnalysis(detached(ctx), analysis.ID)
		}()
		return Outcome{Analysis: analysis, Saved: true, Queued: true}, nil
	}
	if err := s.Queue.Send(ctx, queue.NewMessage(analysis.ID, requestIDFromContext(ctx), time.Now())); err != nil {
		s.failAnalysis(ctx, analysis.ID, fmt.Errorf("enqueue: %w", err))
		return Outcome{}, fmt.Errorf("enqueue analysis: %w", err)
	}
	return Outcome{Analysis: analysis, Saved: true, Queued: true}, nil
}

// runAdvisory calls the generator and merges its result into analysis, or
// marks the analysis as a fallback when the advisory path cannot be used.
func (s *Service) runAdvisory(ctx context.Context, analysis *Analysis) {
	if s.Advisory == nil {
		s.applyFallback(ctx, analysis, ErrorCodeAdvisoryUnavailable, advisory.ErrUnavailable)
		metrics.ObserveAdvisory(metrics.OutcomeUnavailable, 0)
		return
	}
	// The run is charged up front so concurrent requests cannot overdraw the
	// quota. A failed run gets its slot back.
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, analysis.UserID, 1); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				s.applyFallback(ctx, analysis, ErrorCodeQuota, usage.ErrLimitReached)
				metrics.ObserveAdvisory(metrics.OutcomeQuota, 0)
				return
			}
			s.applyFallback(ctx, analysis, ErrorCodeAdvisoryUnavailable, fmt.Errorf("usage check: %w", err))
			metrics.ObserveAdvisory(metrics.OutcomeError, 0)
			return
		}
	}

	actx := ctx
	if s.AdvisoryTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.AdvisoryTimeout)
		defer cancel()
	}
	started := time.Now()
	res, err := s.Advisory.Generate(actx, advisory.Request{
		Text:            analysis.Result.Text,
		Industry:        analysis.Result.Industry,
		IndustryContext: analysis.Result.IndustryContext,
		Scores:          analysis.Result.Scores,
	})
	elapsed := time.Since(started).Seconds()
	if err != nil {
		s.refundAdvisory(ctx, analysis)
		code, _ := classifyFailure(err)
		s.applyFallback(ctx, analysis, code, err)
		metrics.ObserveAdvisory(outcomeFor(code), elapsed)
		return
	}

	if res.Cached {
		metrics.ObserveAdvisory(metrics.OutcomeCacheHit, elapsed)
	} else {
		metrics.ObserveAdvisory(metrics.OutcomeSuccess, elapsed)
	}
	mergeAdvisory(analysis, res)
}

func (s *Service) refundAdvisory(ctx context.Context, analysis *Analysis) {
	if s.Usage == nil {
		return
	}
	if _, err := s.Usage.Refund(detached(ctx), analysis.UserID, 1); err != nil {
		telemetry.Warn("usage.refund_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}
}

func mergeAdvisory(analysis *Analysis, res advisory.Result) {
	r := &analysis.Result
	r.Baseline = &Baseline{Scores: r.Scores, Overall: r.Overall}
	r.Source = SourceAdvisory
	r.Scores = res.Scores.Scores
	r.Overall = res.Scores.Overall
	r.Label = scoring.Label(r.Overall)
	r.Band = scoring.Band(r.Overall)
	r.Weaknesses = res.Weaknesses
	r.RewritePlan = scoring.PlanRewrites(res.Weaknesses)
	r.Analysis = res.Analysis
	rewrites := res.Rewrites
	r.Rewrites = &rewrites
	if recs := fromAdvisory(res.Recommendations, r.Scores); len(recs) > 0 {
		r.Recommendations = recs
	}
	r.Fallback = false
	r.FallbackReason = ""
	r.Message = ""

	analysis.Provider = res.Provider
	analysis.Model = res.Model
	analysis.PromptHash = res.PromptHash
	analysis.ErrorCode = ""
	analysis.ErrorMessage = ""
}

func (s *Service) applyFallback(ctx context.Context, analysis *Analysis, code string, err error) {
	analysis.Result.Fallback = true
	analysis.Result.FallbackReason = fallbackReason(code)
	analysis.Result.Message = FallbackMessage
	analysis.ErrorCode = code
	analysis.ErrorMessage = sanitizeError(err)
	telemetry.Warn("advisory.fallback", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"analysis_id": analysis.ID,
		"user_id":     analysis.UserID,
		"error_code":  code,
		"error":       analysis.ErrorMessage,
	})
}

func outcomeFor(code string) string {
	switch code {
	case ErrorCodeAdvisoryTimeout:
		return metrics.OutcomeTimeout
	case ErrorCodeAdvisoryMalformed:
		return metrics.OutcomeMalformed
	case ErrorCodeAdvisoryUnavailable:
		return metrics.OutcomeUnavailable
	case ErrorCodeQuota:
		return metrics.OutcomeQuota
	default:
		return metrics.OutcomeError
	}
}

func (s *Service) persist(ctx context.Context, analysis Analysis) bool {
	if s.Repo == nil {
		return false
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		metrics.IncPersistFailure()
		telemetry.Error("analysis.persist_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"user_id":     analysis.UserID,
			"error":       sanitizeError(err),
		})
		return false
	}
	return true
}

func (s *Service) recordHistory(ctx context.Context, analysis Analysis) {
	if s.History == nil {
		return
	}
	if _, err := session.Record(ctx, s.History, analysis.UserID, analysis.HistoryEntry()); err != nil {
		telemetry.Warn("history.record_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) failAnalysis(ctx context.Context, analysisID string, err error) {
	code, retryable := classifyFailure(err)
	completedAt := time.Now().UTC()
	analysis, getErr := s.Repo.GetByID(context.Background(), analysisID)
	if getErr == nil {
		analysis.Status = StatusFailed
		analysis.ErrorCode = code
		analysis.ErrorMessage = sanitizeError(err)
		analysis.CompletedAt = &completedAt
		getErr = s.Repo.Update(context.Background(), analysis)
	}
	if getErr != nil {
		telemetry.Error("analysis.fail_update", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysisID,
			"error":       getErr.Error(),
			"cause":       sanitizeError(err),
		})
	}
	metrics.IncJob(StatusFailed)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"retryable":         retryable,
	})
}

func (s *Service) logStatus(ctx context.Context, analysis Analysis, transition string, startedAt *time.Time) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           analysis.UserID,
		"analysis_id":       analysis.ID,
		"status":            analysis.Status,
		"status_transition": transition,
		"fallback":          analysis.Result.Fallback,
	}
	if startedAt != nil {
		fields["duration_ms"] = float64(time.Since(*startedAt).Microseconds()) / 1000.0
	}
	telemetry.Info("analysis.status", fields)
}
