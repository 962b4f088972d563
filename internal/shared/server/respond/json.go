// Package respond writes API responses in one envelope shape.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Markdown writes a text/markdown body.
func Markdown(c *gin.Context, status int, body []byte) {
	c.Data(status, "text/markdown; charset=utf-8", body)
}

// Negotiated writes payload as YAML when the client asks for it and as JSON
// otherwise.
func Negotiated(c *gin.Context, status int, payload any) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEYAML, "application/yaml") == gin.MIMEJSON {
		JSON(c, status, payload)
		return
	}
	out, err := yaml.Marshal(payload)
	if err != nil {
		Error(c, http.StatusInternalServerError, "internal_error", "failed to encode response", nil)
		return
	}
	c.Data(status, "application/yaml; charset=utf-8", out)
}
