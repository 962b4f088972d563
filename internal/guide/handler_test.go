package guide

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	labels := Labels()
	require.Len(t, labels, 5)
	assert.Equal(t, LabelBand{Min: 90, Label: "Excellent", Band: "green"}, labels[0])
	assert.Equal(t, LabelBand{Min: 60, Label: "Fair", Band: "yellow"}, labels[3])
	assert.Equal(t, LabelBand{Min: 0, Label: "Needs Work", Band: "red"}, labels[4])
}

func TestGuideRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/guide", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Tips   []string    `json:"tips"`
		Labels []LabelBand `json:"labels"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Tips, 4)
	assert.Len(t, body.Labels, 5)
}
