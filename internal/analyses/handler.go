package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/shared/server/middleware"
	"mission-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/score", h.score)
	rg.POST("/analyses", h.analyze)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/report", h.getReport)
	rg.GET("/history", h.getHistory)
}

type scoreRequest struct {
	Text     string `json:"text"`
	Industry string `json:"industry"`
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Industry string `json:"industry"`
	Advisory bool   `json:"advisory"`
	Async    bool   `json:"async"`
}

func (h *Handler) score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.ValidationError(c, "body", "invalid_json", "request body must be JSON")
		return
	}
	c.Set(middleware.IndustryKey, req.Industry)
	result, err := h.Svc.Score(req.Text, req.Industry)
	if err != nil {
		writeServiceError(c, err, "failed to score statement")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.ValidationError(c, "body", "invalid_json", "request body must be JSON")
		return
	}
	c.Set(middleware.IndustryKey, req.Industry)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	outcome, err := h.Svc.Analyze(ctx, middleware.UserIDFromContext(c), Input{
		Text:     req.Text,
		Industry: req.Industry,
		Advisory: req.Advisory,
		Async:    req.Async,
	})
	if err != nil {
		writeServiceError(c, err, "failed to analyze statement")
		return
	}
	analysis := outcome.Analysis
	c.Set(middleware.AnalysisIDKey, analysis.ID)
	if analysis.Result.FallbackReason != "" {
		c.Set(middleware.FallbackKey, analysis.Result.FallbackReason)
	}

	if outcome.Queued {
		respond.JSON(c, http.StatusAccepted, gin.H{
			"analysisId": analysis.ID,
			"status":     analysis.Status,
		})
		return
	}
	respond.OK(c, analyzeResponse{
		Result:     analysis.Result,
		Saved:      outcome.Saved,
		AnalysisID: analysisIDIfSaved(outcome),
		Status:     analysis.Status,
	})
}

type analyzeResponse struct {
	Result
	Saved      bool   `json:"saved"`
	AnalysisID string `json:"analysisId,omitempty"`
	Status     string `json:"status"`
}

func analysisIDIfSaved(o Outcome) string {
	if !o.Saved {
		return ""
	}
	return o.Analysis.ID
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)
	analysis, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), analysisID)
	if err != nil {
		writeServiceError(c, err, "failed to fetch analysis")
		return
	}
	resp := gin.H{
		"id":        analysis.ID,
		"status":    analysis.Status,
		"createdAt": analysis.CreatedAt,
		"advisory":  analysis.AdvisoryRequested,
	}
	if analysis.ErrorCode != "" {
		resp["errorCode"] = analysis.ErrorCode
	}
	if analysis.Status == StatusCompleted || analysis.Status == StatusQueued || analysis.Status == StatusProcessing {
		resp["result"] = analysis.Result
	}
	respond.OK(c, resp)
}

func (h *Handler) getReport(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	body, err := h.Svc.Report(ctx, middleware.UserIDFromContext(c), analysisID)
	if err != nil {
		writeServiceError(c, err, "failed to render report")
		return
	}
	respond.Markdown(c, http.StatusOK, body)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view saved analyses", nil)
		return
	}

	limit := defaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	analyses, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	items := make([]gin.H, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, gin.H{
			"id":        a.ID,
			"status":    a.Status,
			"text":      a.Result.Text,
			"industry":  a.Result.Industry,
			"overall":   a.Result.Overall,
			"label":     a.Result.Label,
			"advisory":  a.Result.Source == SourceAdvisory,
			"fallback":  a.Result.Fallback,
			"createdAt": a.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) getHistory(c *gin.Context) {
	history, err := h.Svc.RecentHistory(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load history", nil)
		return
	}
	respond.OK(c, history)
}

func writeServiceError(c *gin.Context, err error, fallbackMsg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.ValidationError(c, verr.Field, verr.Issue, verr.Message)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	case errors.Is(err, ErrNotReady):
		respond.Error(c, http.StatusConflict, "not_ready", "analysis is not complete yet", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallbackMsg, nil)
	}
}
