package event

import (
	"net/http"
	"time"

	"site-content-store/internal/domain"
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
	utils.RegisterValidators()
	return &Handler{service: service, locales: locales}
}

type EventRequest struct {
	EventSlug             string    `json:"eventSlug" binding:"omitempty,slug"`
	Title                 string    `json:"title" binding:"required,max=255"`
	Description           string    `json:"description" binding:"max=5000"`
	Location              string    `json:"location" binding:"max=255"`
	Date                  time.Time `json:"date" binding:"required"`
	RequiredRegistrations int       `json:"requiredRegistrations" binding:"min=0"`
	Language              string    `json:"language" binding:"required"`
	ShownLanguages        []string  `json:"shownLanguages" binding:"required,min=1"`
}

// toEvent parses the locale codes against the table.
func (r EventRequest) toEvent(table *locale.Table) (*domain.Event, error) {
	language, err := table.Parse(r.Language)
	if err != nil {
		return nil, errors.Invalid("language", "unsupported")
	}
	shown := make([]locale.Locale, 0, len(r.ShownLanguages))
	for _, code := range r.ShownLanguages {
		l, err := table.Parse(code)
		if err != nil {
			return nil, errors.Invalid("shownLanguages", "unsupported")
		}
		shown = append(shown, l)
	}

	return &domain.Event{
		EventSlug:             r.EventSlug,
		Title:                 r.Title,
		Description:           r.Description,
		Location:              r.Location,
		Date:                  r.Date,
		RequiredRegistrations: r.RequiredRegistrations,
		Language:              language,
		ShownLanguages:        shown,
	}, nil
}

func (h *Handler) ListAll(c *gin.Context) {
	l, err := utils.GetLocale(c, h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	events, err := h.service.ListAll(c.Request.Context(), l)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (h *Handler) Show(c *gin.Context) {
	event, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *Handler) Create(c *gin.Context) {
	var form EventRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	event, err := form.toEvent(h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Create(c.Request.Context(), event); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *Handler) Update(c *gin.Context) {
	var form EventRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	event, err := form.toEvent(h.locales)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Update(c.Request.Context(), c.Param("slug"), event); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, event)
}
