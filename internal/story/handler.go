package story

import (
	"encoding/json"
	"net/http"
	"time"

	"site-content-store/internal/domain"
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"
	"site-content-store/internal/utils"

	"github.com/gin-gonic/gin"
)

// ViewRecorder counts a page view without blocking the caller.
type ViewRecorder interface {
	Record(slug string)
}

type Handler struct {
	service Service
	locales *locale.Table
	views   ViewRecorder
}

func NewHandler(service Service, locales *locale.Table, views ViewRecorder) *Handler {
	utils.RegisterValidators()
	return &Handler{service: service, locales: locales, views: views}
}

type VariantRequest struct {
	Title        string          `json:"title" binding:"required,max=255"`
	Description  string          `json:"description" binding:"max=2000"`
	Content      json.RawMessage `json:"content" binding:"required"`
	Date         time.Time       `json:"date"`
	DateModified time.Time       `json:"dateModified"`
	Tags         []string        `json:"tags" binding:"max=30,dive,max=64"`
}

func (r VariantRequest) toVariant() domain.StoryVariant {
	return domain.StoryVariant{
		Title:        r.Title,
		Description:  r.Description,
		Content:      domain.RichContent(r.Content),
		Date:         r.Date,
		DateModified: r.DateModified,
		Tags:         r.Tags,
	}
}

type CreateRequest struct {
	Slug    string         `json:"slug" binding:"required,slug"`
	Locale  string         `json:"locale" binding:"required"`
	Variant VariantRequest `json:"variant"`
}

func (h *Handler) ListSummaries(c *gin.Context) {
	l, err := utils.GetLocale(c, h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	summaries, err := h.service.ListSummaries(c.Request.Context(), l)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

// ListSlugs feeds static path generation, which fans the slugs out over every locale.
func (h *Handler) ListSlugs(c *gin.Context) {
	slugs, err := h.service.ListSlugs(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slugs": slugs, "locales": h.locales.Supported()})
}

func (h *Handler) Show(c *gin.Context) {
	l, err := utils.GetLocale(c, h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	view, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), l)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)

	// counted only once the reader has the content
	h.views.Record(view.Slug)
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	l, err := h.locales.Parse(form.Locale)
	if err != nil {
		c.Error(errors.Invalid("locale", "unsupported"))
		return
	}

	if err := h.service.Create(c.Request.Context(), form.Slug, l, form.Variant.toVariant()); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"slug": form.Slug, "locale": l})
}

func (h *Handler) UpsertVariant(c *gin.Context) {
	l, err := utils.GetLocale(c, h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	var form VariantRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	slug := c.Param("slug")
	if err := h.service.UpsertVariant(c.Request.Context(), slug, l, form.toVariant()); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slug": slug, "locale": l})
}

// SuggestSlug returns the slug the editor pre-fills for a title.
func (h *Handler) SuggestSlug(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slug": domain.Slugify(c.Query("title"))})
}
