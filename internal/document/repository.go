package document

import (
	"context"
	"errors"

	"site-content-store/internal/domain"
	"site-content-store/internal/locale"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository interface {
	// FindByDocumentID returns domain.ErrNotFound when nothing was ever saved under id.
	FindByDocumentID(ctx context.Context, documentID string) (*domain.Document, error)
	// SaveVariant creates the document if needed and replaces only the l variant.
	SaveVariant(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) FindByDocumentID(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) SaveVariant(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error {
	err := r.saveVariant(ctx, documentID, l, content)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another writer created the document first, it can be locked now
		err = r.saveVariant(ctx, documentID, l, content)
	}
	return err
}

func (r *DocumentRepositoryImpl) saveVariant(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc domain.Document
		// the row lock keeps writers of other locales from overwriting this one
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("document_id = ?", documentID).
			First(&doc).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&domain.Document{
				ID:         ulid.Make().String(),
				DocumentID: documentID,
				Variants:   map[locale.Locale]domain.RichContent{l: content},
			}).Error
		}
		if err != nil {
			return err
		}

		if doc.Variants == nil {
			doc.Variants = make(map[locale.Locale]domain.RichContent, 1)
		}
		doc.Variants[l] = content

		return tx.Model(&doc).Select("Variants", "UpdatedAt").Updates(&doc).Error
	})
}
