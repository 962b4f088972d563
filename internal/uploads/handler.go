package uploads

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/extract"
	"mission-backend/internal/scoring"
	"mission-backend/internal/shared/server/middleware"
	"mission-backend/internal/shared/server/respond"
	"mission-backend/internal/shared/storage/object"
	"mission-backend/internal/shared/telemetry"
)

const maxUploadBytes = 5 << 20

// Handler accepts mission statement documents and returns their text.
type Handler struct {
	Store object.ObjectStore
}

// NewHandler constructs a Handler. A nil store skips keeping the original file.
func NewHandler(store object.ObjectStore) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/mission", h.uploadMission)
}

type uploadResponse struct {
	Text       string `json:"text"`
	WordCount  int    `json:"wordCount"`
	MimeType   string `json:"mimeType"`
	StorageKey string `json:"storageKey,omitempty"`
}

func (h *Handler) uploadMission(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+1<<10)
	fh, err := c.FormFile("file")
	if err != nil {
		respond.ValidationError(c, "file", "required", "multipart field \"file\" is required")
		return
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		respond.ValidationError(c, "file", "size", "file must be between 1 byte and 5 MB")
		return
	}
	fileName, err := object.CleanFileName(fh.Filename)
	if err != nil {
		respond.ValidationError(c, "file", "name", "invalid file name")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}

	mimeType := extract.DetectType(fh.Header.Get("Content-Type"), fileName, data)
	text, err := extract.Text(c.Request.Context(), data, mimeType, fileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only PDF, DOCX and TXT files are supported", nil)
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "could not read text from the file", nil)
		return
	}
	if text == "" {
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "the file contains no text", nil)
		return
	}

	resp := uploadResponse{Text: text, WordCount: scoring.WordCount(text), MimeType: mimeType}
	if h.Store != nil {
		stored, err := h.Store.PutUpload(c.Request.Context(), middleware.UserIDFromContext(c), fileName, mimeType, bytes.NewReader(data))
		if err != nil {
			// The extracted text is still useful without the original file.
			telemetry.Warn("uploads.store_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"error":      err.Error(),
			})
		} else {
			resp.StorageKey = stored.Key
		}
	}
	respond.OK(c, resp)
}
