package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mission-backend/internal/shared/server/middleware"
	"mission-backend/internal/shared/server/respond"
	"mission-backend/internal/shared/telemetry"
)

const guestHeader = "X-Guest-Id"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

type claimRequest struct {
	GuestID string `json:"guestId"`
}

// guestID reads the X-Guest-Id header, falling back to a JSON body.
func guestID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(guestHeader)); id != "" {
		return id
	}
	var req claimRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	return strings.TrimSpace(req.GuestID)
}

func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user := strings.TrimSpace(middleware.UserIDFromContext(c))
	if middleware.IsGuest(c) || user == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	id := guestID(c)
	if id == "" {
		respond.ValidationError(c, guestHeader, "required", "missing X-Guest-Id header")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		respond.ValidationError(c, guestHeader, "invalid", "invalid guest id")
		return
	}

	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.ClaimGuest(ctx, middleware.GuestPrefix+id, user)
	switch {
	case err == nil:
		respond.OK(c, result)
	case errors.Is(err, ErrInvalidClaim):
		respond.ValidationError(c, guestHeader, "invalid", err.Error())
	default:
		telemetry.Error("account.claim_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"user_id":    user,
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to claim guest data", nil)
	}
}
