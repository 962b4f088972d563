package analyses

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"mission-backend/internal/advisory"
	"mission-backend/internal/scoring"
	"mission-backend/internal/session"
	"mission-backend/internal/shared/storage/object"
	local "mission-backend/internal/shared/storage/object/local"
	"mission-backend/internal/usage"
)

const teslaMission = "To accelerate the world's transition to sustainable energy."

type stubGenerator struct {
	mu     sync.Mutex
	result advisory.Result
	err    error
	delay  time.Duration
	calls  int
	last   advisory.Request
}

func (g *stubGenerator) Generate(_ context.Context, req advisory.Request) (advisory.Result, error) {
	time.Sleep(g.delay)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = req
	return g.result, g.err
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func advisoryResult() advisory.Result {
	scores := scoring.Scores{Clarity: 70, Specificity: 60, Impact: 80, Authenticity: 90, Memorability: 75}
	return advisory.Result{
		Scores:     advisory.Scores{Scores: scores, Overall: scoring.Aggregate(scores)},
		Weaknesses: scoring.Weaknesses{Primary: scoring.Specificity, Secondary: scoring.Clarity, Tertiary: scoring.Memorability},
		Recommendations: []advisory.Recommendation{
			{Category: "specificity", Issue: "No concrete outcome.", Suggestion: "Name the change you will measure."},
		},
		Rewrites: advisory.Rewrites{
			ActionFocused:   advisory.Rewrite{Text: "We accelerate clean energy adoption for every home.", ImprovesOn: []scoring.Dimension{scoring.Specificity}},
			ProblemSolution: advisory.Rewrite{Text: "Fossil fuels warm the planet; we replace them.", ImprovesOn: []scoring.Dimension{scoring.Impact}},
			VisionDriven:    advisory.Rewrite{Text: "A world powered by the sun.", ImprovesOn: []scoring.Dimension{scoring.Memorability}},
		},
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		PromptHash: "abc123",
	}
}

func newTestService(gen advisory.Generator) (*Service, *MemoryRepo, *session.MemoryStore) {
	repo := NewMemoryRepo()
	history := session.NewMemoryStore()
	svc := &Service{
		Repo:     repo,
		Usage:    usage.NewService(10),
		Advisory: gen,
		History:  history,
	}
	return svc, repo, history
}

func TestScoreRequiresText(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.Score("   ", "technology")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScoreMatchesEngine(t *testing.T) {
	svc, _, _ := newTestService(nil)
	result, err := svc.Score(teslaMission, "Tech")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.Overall != 91 {
		t.Fatalf("overall = %d, want 91", result.Overall)
	}
	if result.Industry != "technology" {
		t.Fatalf("industry = %q, want technology", result.Industry)
	}
	if result.Label != "Excellent" || result.Band != "green" {
		t.Fatalf("unexpected label/band %q/%q", result.Label, result.Band)
	}
	if result.Source != SourceRules {
		t.Fatalf("source = %q", result.Source)
	}
	if len(result.RewritePlan) != 3 {
		t.Fatalf("expected 3 rewrite plans, got %d", len(result.RewritePlan))
	}
}

func TestAnalyzeRejectsShortText(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	_, err := svc.Analyze(context.Background(), "guest:a", Input{Text: "  too short "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "text" || verr.Issue != "too_short" {
		t.Fatalf("unexpected validation error %+v", verr)
	}
	if list, _ := repo.ListByUser(context.Background(), "guest:a", 0, 0); len(list) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestAnalyzeDeterministicPersistsAndRecordsHistory(t *testing.T) {
	svc, repo, history := newTestService(nil)
	ctx := context.Background()

	outcome, err := svc.Analyze(ctx, "guest:a", Input{Text: teslaMission, Industry: "technology"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !outcome.Saved || outcome.Queued {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Analysis.Result.Fallback {
		t.Fatalf("fallback should only apply when advisory was requested")
	}

	stored, err := repo.GetByID(ctx, outcome.Analysis.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != StatusCompleted || stored.Result.Overall != 91 || stored.CompletedAt == nil {
		t.Fatalf("unexpected stored analysis %+v", stored)
	}

	h, err := history.Load(ctx, "guest:a")
	if err != nil {
		t.Fatalf("history load: %v", err)
	}
	if h.Len() != 1 || h.Entries()[0].AnalysisID != outcome.Analysis.ID {
		t.Fatalf("unexpected history %+v", h.Entries())
	}
}

func TestAnalyzeAdvisoryMergesResult(t *testing.T) {
	gen := &stubGenerator{result: advisoryResult()}
	svc, _, _ := newTestService(gen)
	ctx := context.Background()

	outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Industry: "technology", Advisory: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	r := outcome.Analysis.Result
	if r.Source != SourceAdvisory {
		t.Fatalf("source = %q, want advisory", r.Source)
	}
	if r.Overall != 74 || r.Scores.Specificity != 60 {
		t.Fatalf("advisory scores not merged: %+v overall=%d", r.Scores, r.Overall)
	}
	if r.Baseline == nil || r.Baseline.Overall != 91 {
		t.Fatalf("expected deterministic baseline 91, got %+v", r.Baseline)
	}
	if r.Rewrites == nil || r.Rewrites.VisionDriven.Text == "" {
		t.Fatalf("expected rewrites")
	}
	if len(r.Recommendations) != 1 || r.Recommendations[0].Category != scoring.Specificity {
		t.Fatalf("unexpected recommendations %+v", r.Recommendations)
	}
	if outcome.Analysis.Provider != "openai" || outcome.Analysis.PromptHash != "abc123" {
		t.Fatalf("provider metadata missing: %+v", outcome.Analysis)
	}
	if gen.last.IndustryContext == "" || gen.last.Scores.Clarity != 88 {
		t.Fatalf("generator got unexpected request %+v", gen.last)
	}

	u, err := svc.Usage.EnsurePeriod(ctx, "user-1")
	if err != nil {
		t.Fatalf("EnsurePeriod: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("used = %d, want 1", u.Used)
	}
}

func TestAnalyzeAdvisoryFallback(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		reason string
	}{
		{"timeout", advisory.ErrTimeout, ErrorCodeAdvisoryTimeout, "advisory_timeout"},
		{"malformed", &advisory.MalformedError{Problems: []string{"missing rewrites"}}, ErrorCodeAdvisoryMalformed, "advisory_malformed"},
		{"unavailable", advisory.ErrUnavailable, ErrorCodeAdvisoryUnavailable, "advisory_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(&stubGenerator{err: tc.err})
			outcome, err := svc.Analyze(context.Background(), "user-1", Input{Text: teslaMission, Advisory: true})
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			r := outcome.Analysis.Result
			if !r.Fallback || r.FallbackReason != tc.reason || r.Message != FallbackMessage {
				t.Fatalf("unexpected fallback fields %+v", r)
			}
			if r.Overall != 91 || r.Source != SourceRules {
				t.Fatalf("deterministic result should be kept, got %+v", r)
			}
			if outcome.Analysis.ErrorCode != tc.code {
				t.Fatalf("error code = %q, want %q", outcome.Analysis.ErrorCode, tc.code)
			}
			if len(r.Recommendations) == 0 {
				t.Fatalf("fallback result should still carry recommendations")
			}
			u, _ := svc.Usage.EnsurePeriod(context.Background(), "user-1")
			if u.Used != 0 {
				t.Fatalf("failed advisory consumed quota: %d", u.Used)
			}
		})
	}
}

func TestAnalyzeNilGeneratorFallsBack(t *testing.T) {
	svc, _, _ := newTestService(nil)
	outcome, err := svc.Analyze(context.Background(), "user-1", Input{Text: teslaMission, Advisory: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !outcome.Analysis.Result.Fallback {
		t.Fatalf("expected fallback")
	}
}

func TestAnalyzeQuotaExhausted(t *testing.T) {
	gen := &stubGenerator{result: advisoryResult()}
	svc, _, _ := newTestService(gen)
	svc.Usage = usage.NewService(1)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true}); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true})
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if outcome.Analysis.Result.FallbackReason != "quota_exceeded" {
		t.Fatalf("fallbackReason = %q", outcome.Analysis.Result.FallbackReason)
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.callCount())
	}
}

func TestAnalyzeConcurrentAdvisoryRespectsQuota(t *testing.T) {
	gen := &stubGenerator{result: advisoryResult(), delay: 50 * time.Millisecond}
	svc, _, _ := newTestService(gen)
	svc.Usage = usage.NewService(2)
	ctx := context.Background()

	const requests = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		advised  int
		quotaHit int
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true})
			if err != nil {
				t.Errorf("Analyze: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case outcome.Analysis.Result.Source == SourceAdvisory:
				advised++
			case outcome.Analysis.Result.FallbackReason == "quota_exceeded":
				quotaHit++
			}
		}()
	}
	wg.Wait()

	if advised != 2 || quotaHit != requests-2 {
		t.Fatalf("advised=%d quota_exceeded=%d, want 2/%d", advised, quotaHit, requests-2)
	}
	if gen.callCount() != 2 {
		t.Fatalf("generator calls = %d, want 2", gen.callCount())
	}
	u, _ := svc.Usage.EnsurePeriod(ctx, "user-1")
	if u.Used != 2 {
		t.Fatalf("used = %d, want 2", u.Used)
	}
}

func TestAnalyzeFailedAdvisoryFreesSlotForNextRun(t *testing.T) {
	gen := &stubGenerator{err: advisory.ErrTimeout}
	svc, _, _ := newTestService(gen)
	svc.Usage = usage.NewService(1)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true}); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	gen.mu.Lock()
	gen.err, gen.result = nil, advisoryResult()
	gen.mu.Unlock()

	outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true})
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if outcome.Analysis.Result.Source != SourceAdvisory {
		t.Fatalf("source = %q, fallback=%q", outcome.Analysis.Result.Source, outcome.Analysis.Result.FallbackReason)
	}
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, analysis Analysis) error {
	return errors.New("sql: connection refused")
}

func TestAnalyzePersistFailureIsNotFatal(t *testing.T) {
	svc, _, history := newTestService(nil)
	svc.Repo = failingCreateRepo{NewMemoryRepo()}

	outcome, err := svc.Analyze(context.Background(), "guest:a", Input{Text: teslaMission})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if outcome.Saved {
		t.Fatalf("expected saved=false")
	}
	h, _ := history.Load(context.Background(), "guest:a")
	if h.Len() != 1 {
		t.Fatalf("history should still be recorded")
	}
}

func TestAsyncAnalyzeEnqueuesThenProcesses(t *testing.T) {
	gen := &stubGenerator{result: advisoryResult()}
	svc, repo, history := newTestService(gen)
	q := &stubQueue{}
	svc.Queue = q
	ctx := WithRequestID(context.Background(), "req-1")

	outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Advisory: true, Async: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !outcome.Queued || outcome.Analysis.Status != StatusQueued {
		t.Fatalf("expected queued outcome, got %+v", outcome)
	}
	if len(q.messages) != 1 || q.messages[0].AnalysisID != outcome.Analysis.ID || q.messages[0].RequestID != "req-1" {
		t.Fatalf("unexpected queue messages %+v", q.messages)
	}
	if gen.callCount() != 0 {
		t.Fatalf("generator should not run before the job is processed")
	}

	if err := svc.ProcessAnalysis(ctx, outcome.Analysis.ID); err != nil {
		t.Fatalf("ProcessAnalysis: %v", err)
	}
	stored, err := repo.GetByID(ctx, outcome.Analysis.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != StatusCompleted || stored.Result.Source != SourceAdvisory {
		t.Fatalf("unexpected stored analysis %+v", stored)
	}
	if stored.StartedAt == nil || stored.CompletedAt == nil {
		t.Fatalf("expected timestamps to be set")
	}
	h, _ := history.Load(ctx, "user-1")
	if h.Len() != 1 || !h.Entries()[0].Advisory {
		t.Fatalf("expected advisory history entry, got %+v", h.Entries())
	}

	if err := svc.ProcessAnalysis(ctx, outcome.Analysis.ID); err != nil {
		t.Fatalf("second ProcessAnalysis: %v", err)
	}
	if gen.callCount() != 1 {
		t.Fatalf("completed analysis processed twice")
	}
}

func TestAsyncAnalyzeWithoutQueueRunsInBackground(t *testing.T) {
	gen := &stubGenerator{result: advisoryResult()}
	svc, repo, _ := newTestService(gen)

	outcome, err := svc.Analyze(context.Background(), "user-1", Input{Text: teslaMission, Advisory: true, Async: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stored, err := repo.GetByID(context.Background(), outcome.Analysis.ID)
		if err == nil && stored.Status == StatusCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("analysis never completed")
}

func TestAsyncEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, _ := newTestService(&stubGenerator{result: advisoryResult()})
	svc.Queue = &stubQueue{err: errors.New("sqs down")}

	_, err := svc.Analyze(context.Background(), "user-1", Input{Text: teslaMission, Advisory: true, Async: true})
	if err == nil {
		t.Fatalf("expected enqueue error")
	}
	list, _ := repo.ListByUser(context.Background(), "user-1", 0, 0)
	if len(list) != 1 || list[0].Status != StatusFailed {
		t.Fatalf("expected one failed analysis, got %+v", list)
	}
}

func TestGetIsOwnerOnly(t *testing.T) {
	svc, _, _ := newTestService(nil)
	outcome, err := svc.Analyze(context.Background(), "user-1", Input{Text: teslaMission})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := svc.Get(context.Background(), "user-2", outcome.Analysis.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "user-1", outcome.Analysis.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
}

func TestClaimGuestMovesAnalysesAndHistory(t *testing.T) {
	svc, repo, history := newTestService(nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Analyze(ctx, "guest:g1", Input{Text: teslaMission}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}

	moved, err := svc.ClaimGuest(ctx, "guest:g1", "user-1")
	if err != nil {
		t.Fatalf("ClaimGuest: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	owned, _ := repo.ListByUser(ctx, "user-1", 0, 0)
	if len(owned) != 2 {
		t.Fatalf("user owns %d analyses, want 2", len(owned))
	}
	userHistory, _ := history.Load(ctx, "user-1")
	guestHistory, _ := history.Load(ctx, "guest:g1")
	if userHistory.Len() != 2 || guestHistory.Len() != 0 {
		t.Fatalf("history not moved: user=%d guest=%d", userHistory.Len(), guestHistory.Len())
	}
}

func TestReportRendersAndStores(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	svc.Store = local.New(t.TempDir())
	ctx := context.Background()

	outcome, err := svc.Analyze(ctx, "user-1", Input{Text: teslaMission, Industry: "energy"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	body, err := svc.Report(ctx, "user-1", outcome.Analysis.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	text := string(body)
	for _, want := range []string{"# Mission Statement Analysis", teslaMission, "**91/100** (Excellent)", "| Clarity | 88 |", "## Rewrite Plan"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
	stored, _ := repo.GetByID(ctx, outcome.Analysis.ID)
	if stored.ReportKey != object.ReportKey(outcome.Analysis.ID) {
		t.Fatalf("report key = %q", stored.ReportKey)
	}

	again, err := svc.Report(ctx, "user-1", outcome.Analysis.ID)
	if err != nil {
		t.Fatalf("second Report: %v", err)
	}
	if string(again) != text {
		t.Fatalf("stored report differs from rendered one")
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{advisory.ErrTimeout, ErrorCodeAdvisoryTimeout, true},
		{context.DeadlineExceeded, ErrorCodeAdvisoryTimeout, true},
		{&advisory.MalformedError{Problems: []string{"x"}}, ErrorCodeAdvisoryMalformed, false},
		{advisory.ErrUnavailable, ErrorCodeAdvisoryUnavailable, true},
		{usage.ErrLimitReached, ErrorCodeQuota, false},
		{&ValidationError{Message: "bad"}, ErrorCodeValidation, false},
		{errors.New("storage: create analysis: boom"), ErrorCodeStorage, true},
		{errors.New("boom"), ErrorCodeInternal, false},
	}
	for _, tc := range cases {
		code, retryable := classifyFailure(tc.err)
		if code != tc.code || retryable != tc.retryable {
			t.Fatalf("classifyFailure(%v) = %s/%v, want %s/%v", tc.err, code, retryable, tc.code, tc.retryable)
		}
	}
}

func TestSanitizeErrorTruncates(t *testing.T) {
	msg := sanitizeError(errors.New("line one\nline two " + strings.Repeat("x", 600)))
	if strings.Contains(msg, "\n") {
		t.Fatalf("newline not removed")
	}
	if len(msg) != 500 {
		t.Fatalf("len = %d, want 500", len(msg))
	}
}

func TestSanitizeErrorKeepsRunesWhole(t *testing.T) {
	// 499 ASCII bytes then a 3-byte rune straddling the limit.
	msg := sanitizeError(errors.New(strings.Repeat("a", 499) + strings.Repeat("€", 10)))
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8")
	}
	if len(msg) != 499 {
		t.Fatalf("len = %d, want 499", len(msg))
	}
}
