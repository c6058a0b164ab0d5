package document

import (
	"context"
	defError "errors"
	"strings"

	"site-content-store/internal/domain"
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"
)

type Service interface {
	Get(ctx context.Context, documentID string, l locale.Locale) (domain.RichContent, error)
	Save(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error
}

type DefaultService struct {
	repository DocumentRepository
	locales    *locale.Table
}

func NewService(repository DocumentRepository, locales *locale.Table) Service {
	return &DefaultService{repository: repository, locales: locales}
}

// Get resolves the exact locale, then the default locale, then the empty
// document. A document nobody has written yet is not an error: the admin
// editor opens it blank.
func (s *DefaultService) Get(ctx context.Context, documentID string, l locale.Locale) (domain.RichContent, error) {
	if err := s.validateKey(documentID, l); err != nil {
		return nil, err
	}

	doc, err := s.repository.FindByDocumentID(ctx, documentID)
	if defError.Is(err, domain.ErrNotFound) {
		return domain.EmptyRichContent, nil
	}
	if err != nil {
		return nil, errors.FromStore(err, "Document not found", "Document already exists")
	}

	content, _, ok := locale.Resolve(doc.Variants, l, s.locales.Default())
	if !ok {
		return domain.EmptyRichContent, nil
	}
	return content, nil
}

func (s *DefaultService) Save(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error {
	if err := s.validateKey(documentID, l); err != nil {
		return err
	}
	if !domain.IsRichContent(content) {
		return errors.Invalid("content", "json_object")
	}

	err := s.repository.SaveVariant(ctx, documentID, l, content)
	return errors.FromStore(err, "Document not found", "Document already exists")
}

func (s *DefaultService) validateKey(documentID string, l locale.Locale) error {
	if strings.TrimSpace(documentID) == "" {
		return errors.Invalid("document_id", "required")
	}
	if !s.locales.Contains(l) {
		return errors.Invalid("locale", "unsupported")
	}
	return nil
}
