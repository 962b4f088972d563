package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/shared/server/middleware"
	"mission-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type profile struct {
	UserID    string     `json:"userId"`
	Guest     bool       `json:"guest"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Picture   string     `json:"picture,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// me prefers the stored row and falls back to token claims for accounts
// signed in before the row existed.
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if middleware.IsGuest(c) {
		respond.OK(c, profile{UserID: userID, Guest: true})
		return
	}
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	p := profile{
		UserID:  userID,
		Email:   middleware.UserEmailFromContext(c),
		Name:    middleware.UserNameFromContext(c),
		Picture: middleware.UserPictureFromContext(c),
	}
	if h.Svc != nil {
		user, err := h.Svc.GetByID(c.Request.Context(), userID)
		switch {
		case err == nil:
			p.Email, p.Name, p.Picture = user.Email, user.FullName, user.PictureURL
			p.CreatedAt = &user.CreatedAt
		case errors.Is(err, ErrNotFound):
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
			return
		}
	}
	respond.OK(c, p)
}
