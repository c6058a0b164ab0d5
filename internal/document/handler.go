package document

import (
	"encoding/json"
	"net/http"
	"strings"

	"site-content-store/internal/errors"
	"site-content-store/internal/locale"
	"site-content-store/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	locales *locale.Table
}

func NewHandler(service Service, locales *locale.Table) *Handler {
	return &Handler{service: service, locales: locales}
}

// ShowContent serves the editor JSON for a document. The page renderer and
// the client fetch both call it with Document-ID and Locale headers.
func (h *Handler) ShowContent(c *gin.Context) {
	documentID := strings.TrimSpace(c.GetHeader("Document-ID"))
	if documentID == "" {
		documentID = strings.TrimSpace(c.Query("documentId"))
	}
	if documentID == "" {
		c.Error(errors.Invalid("document_id", "required"))
		return
	}

	l, err := utils.GetLocale(c, h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	content, err := h.service.Get(c.Request.Context(), documentID, l)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"paragraph": content})
}

type SaveRequest struct {
	Locale  string          `json:"locale" binding:"required"`
	Content json.RawMessage `json:"content" binding:"required"`
}

func (h *Handler) Save(c *gin.Context) {
	var form SaveRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	l, err := h.locales.Parse(form.Locale)
	if err != nil {
		c.Error(errors.Invalid("locale", "unsupported"))
		return
	}

	if err := h.service.Save(c.Request.Context(), c.Param("id"), l, form.Content); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
