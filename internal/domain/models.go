package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"site-content-store/internal/locale"
)

// Errors every repository translates its backend failures into.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// RichContent is the editor's paragraph-tree JSON. The store never looks inside it.
type RichContent = json.RawMessage

// EmptyRichContent is served for a document nobody has written yet.
var EmptyRichContent = RichContent(`{"root":{"type":"root","children":[]}}`)

// IsRichContent reports whether c is a JSON object.
func IsRichContent(c RichContent) bool {
	trimmed := bytes.TrimSpace(c)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Document is a free-standing editable block such as the home page letter.
type Document struct {
	ID         string                        `gorm:"primaryKey;size:26" json:"-"`
	DocumentID string                        `gorm:"uniqueIndex;not null" json:"document_id"`
	Variants   map[locale.Locale]RichContent `gorm:"type:json;serializer:json" json:"variants"`
	CreatedAt  time.Time                     `json:"created_at"`
	UpdatedAt  time.Time                     `json:"updated_at"`
}

// StoryVariant is one locale's version of a blog post.
type StoryVariant struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Content      RichContent `json:"content"`
	Date         time.Time   `json:"date"`
	DateModified time.Time   `json:"dateModified"`
	Tags         []string    `json:"tags"`
}

// Story is a blog post. Views is shared across all locale variants.
type Story struct {
	ID        string                         `gorm:"primaryKey;size:26" json:"-"`
	Slug      string                         `gorm:"uniqueIndex;not null" json:"slug"`
	Variants  map[locale.Locale]StoryVariant `gorm:"type:json;serializer:json" json:"variants"`
	Views     int64                          `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time                      `json:"created_at"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// StorySummary is a blog index entry.
type StorySummary struct {
	Slug        string        `json:"slug"`
	Locale      locale.Locale `json:"locale"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
}

// Event is a registration campaign. Registrations against
// RequiredRegistrations are counted by the registration flow, not here.
type Event struct {
	ID                    string          `gorm:"primaryKey;size:26" json:"-"`
	EventSlug             string          `gorm:"uniqueIndex;not null" json:"eventSlug"`
	Title                 string          `gorm:"not null" json:"title"`
	Description           string          `json:"description"`
	Location              string          `json:"location"`
	Date                  time.Time       `gorm:"index" json:"date"`
	RequiredRegistrations int             `gorm:"not null;default:0" json:"requiredRegistrations"`
	Language              locale.Locale   `gorm:"size:35;not null" json:"language"`
	ShownLanguages        []locale.Locale `gorm:"type:json;serializer:json" json:"shownLanguages"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ShownIn reports whether the event is listed for l.
func (e *Event) ShownIn(l locale.Locale) bool {
	for _, shown := range e.ShownLanguages {
		if shown == l {
			return true
		}
	}
	return false
}
