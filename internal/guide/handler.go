// Package guide serves the static writing guidance shown next to results.
package guide

import (
	"github.com/gin-gonic/gin"

	"mission-backend/internal/scoring"
	"mission-backend/internal/shared/server/respond"
)

// LabelBand describes the score range covered by one label.
type LabelBand struct {
	Min   int    `json:"min"`
	Label string `json:"label"`
	Band  string `json:"band"`
}

// Labels lists the label thresholds from best to worst.
func Labels() []LabelBand {
	mins := []int{90, 80, 70, 60, 0}
	out := make([]LabelBand, 0, len(mins))
	for _, m := range mins {
		out = append(out, LabelBand{Min: m, Label: scoring.Label(m), Band: scoring.Band(m)})
	}
	return out
}

// RegisterRoutes attaches GET /guide.
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/guide", func(c *gin.Context) {
		respond.OK(c, gin.H{
			"tips":       scoring.Tips,
			"labels":     Labels(),
			"dimensions": scoring.Dimensions,
			"weights":    scoring.DefaultWeights,
		})
	})
}
