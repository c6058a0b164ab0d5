package story

import (
	"context"
	"errors"

	"site-content-store/internal/domain"
	"site-content-store/internal/locale"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoryRepository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Story, error)
	List(ctx context.Context) ([]domain.Story, error)
	ListSlugs(ctx context.Context) ([]string, error)
	// Create returns domain.ErrConflict when the slug is taken.
	Create(ctx context.Context, story *domain.Story) error
	// UpsertVariant returns domain.ErrNotFound for an unknown slug.
	UpsertVariant(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error
	IncrementViews(ctx context.Context, slug string) error
}

type StoryRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) StoryRepository {
	return &StoryRepositoryImpl{db: db}
}

func (r *StoryRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	var story domain.Story
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *StoryRepositoryImpl) List(ctx context.Context) ([]domain.Story, error) {
	var stories []domain.Story
	err := r.db.WithContext(ctx).Order("slug ASC").Find(&stories).Error
	return stories, err
}

func (r *StoryRepositoryImpl) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Model(&domain.Story{}).
		Order("slug ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *StoryRepositoryImpl) Create(ctx context.Context, story *domain.Story) error {
	err := r.db.WithContext(ctx).Create(story).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *StoryRepositoryImpl) UpsertVariant(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story domain.Story
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("slug = ?", slug).
			First(&story).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if story.Variants == nil {
			story.Variants = make(map[locale.Locale]domain.StoryVariant, 1)
		}
		story.Variants[l] = variant

		// views is left out so a concurrent increment is never overwritten
		return tx.Model(&story).Select("Variants", "UpdatedAt").Updates(&story).Error
	})
}

func (r *StoryRepositoryImpl) IncrementViews(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Model(&domain.Story{}).
		Where("slug = ?", slug).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
