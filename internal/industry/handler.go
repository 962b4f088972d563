package industry

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/scoring"
	"mission-backend/internal/shared/server/respond"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	Catalog *Catalog
}

// NewHandler constructs a Handler for c, or the built-in catalog when c is nil.
func NewHandler(c *Catalog) *Handler {
	if c == nil {
		c = Default()
	}
	return &Handler{Catalog: c}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/industries", h.list)
	rg.GET("/industries/:id/examples", h.examples)
}

// ScoredExample is a reference statement with its live score.
type ScoredExample struct {
	Example
	Scores  scoring.Scores `json:"scores"`
	Overall int            `json:"overall"`
	Label   string         `json:"label"`
}

// ScoreExamples scores every example for tag.
func (c *Catalog) ScoreExamples(tag string) []ScoredExample {
	examples := c.Examples(tag)
	out := make([]ScoredExample, 0, len(examples))
	for _, ex := range examples {
		r := scoring.Score(ex.Mission)
		out = append(out, ScoredExample{
			Example: ex,
			Scores:  r.Scores,
			Overall: r.Overall,
			Label:   scoring.Label(r.Overall),
		})
	}
	return out
}

func (h *Handler) list(c *gin.Context) {
	respond.Negotiated(c, http.StatusOK, gin.H{
		"industries": h.Catalog.Industries,
		"fallback":   h.Catalog.Fallback,
	})
}

func (h *Handler) examples(c *gin.Context) {
	ind, ok := h.Catalog.Lookup(c.Param("id"))
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "industry not found", nil)
		return
	}
	respond.Negotiated(c, http.StatusOK, gin.H{
		"industry": ind,
		"examples": h.Catalog.ScoreExamples(ind.ID),
	})
}
