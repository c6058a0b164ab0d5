package story

import (
	"context"
	"sort"
	"strings"
	"time"

	"site-content-store/internal/domain"
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"

	"github.com/oklog/ulid/v2"
)

type Service interface {
	GetBySlug(ctx context.Context, slug string, l locale.Locale) (*StoryView, error)
	ListSummaries(ctx context.Context, l locale.Locale) ([]domain.StorySummary, error)
	ListSlugs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error
	UpsertVariant(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error
	IncrementViews(ctx context.Context, slug string) error
}

// StoryView is a story resolved for one locale.
type StoryView struct {
	Slug   string        `json:"slug"`
	Locale locale.Locale `json:"locale"`
	Views  int64         `json:"views"`
	domain.StoryVariant
}

type DefaultService struct {
	repository StoryRepository
	locales    *locale.Table
	now        func() time.Time
}

func NewService(repository StoryRepository, locales *locale.Table) Service {
	return &DefaultService{repository: repository, locales: locales, now: time.Now}
}

func (s *DefaultService) GetBySlug(ctx context.Context, slug string, l locale.Locale) (*StoryView, error) {
	if !s.locales.Contains(l) {
		return nil, errors.Invalid("locale", "unsupported")
	}

	story, err := s.repository.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errors.FromStore(err, "Story not found", "Story already exists")
	}

	variant, from, ok := s.resolve(story.Variants, l)
	if !ok {
		return nil, errors.NotFound("Story has no content", nil)
	}

	return &StoryView{
		Slug:         story.Slug,
		Locale:       from,
		Views:        story.Views,
		StoryVariant: variant,
	}, nil
}

// ListSummaries returns the stories readable in l, newest first.
func (s *DefaultService) ListSummaries(ctx context.Context, l locale.Locale) ([]domain.StorySummary, error) {
	if !s.locales.Contains(l) {
		return nil, errors.Invalid("locale", "unsupported")
	}

	stories, err := s.repository.List(ctx)
	if err != nil {
		return nil, errors.StorageUnavailable(err)
	}

	summaries := make([]domain.StorySummary, 0, len(stories))
	for _, story := range stories {
		variant, from, ok := s.resolve(story.Variants, l)
		if !ok {
			continue
		}
		summaries = append(summaries, domain.StorySummary{
			Slug:        story.Slug,
			Locale:      from,
			Title:       variant.Title,
			Description: variant.Description,
			Date:        variant.Date,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].Date.Equal(summaries[j].Date) {
			return summaries[i].Date.After(summaries[j].Date)
		}
		return summaries[i].Slug < summaries[j].Slug
	})

	return summaries, nil
}

// ListSlugs returns every slug regardless of which locales it has.
func (s *DefaultService) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := s.repository.ListSlugs(ctx)
	if err != nil {
		return nil, errors.StorageUnavailable(err)
	}
	if slugs == nil {
		slugs = []string{}
	}
	return slugs, nil
}

func (s *DefaultService) Create(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error {
	if !domain.ValidSlug(slug) {
		return errors.Invalid("slug", "slug")
	}
	variant, err := s.normalize(l, variant)
	if err != nil {
		return err
	}

	story := &domain.Story{
		ID:       ulid.Make().String(),
		Slug:     slug,
		Variants: map[locale.Locale]domain.StoryVariant{l: variant},
		Views:    0,
	}
	err = s.repository.Create(ctx, story)
	return errors.FromStore(err, "Story not found", "Story slug already exists")
}

func (s *DefaultService) UpsertVariant(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error {
	variant, err := s.normalize(l, variant)
	if err != nil {
		return err
	}

	err = s.repository.UpsertVariant(ctx, slug, l, variant)
	return errors.FromStore(err, "Story not found", "Story slug already exists")
}

func (s *DefaultService) IncrementViews(ctx context.Context, slug string) error {
	err := s.repository.IncrementViews(ctx, slug)
	return errors.FromStore(err, "Story not found", "Story slug already exists")
}

// resolve applies the locale fallback. A story that has neither the requested
// nor the default variant is still served, in the first supported locale it
// was written in, so every slug renders in every locale.
func (s *DefaultService) resolve(variants map[locale.Locale]domain.StoryVariant, l locale.Locale) (domain.StoryVariant, locale.Locale, bool) {
	if v, from, ok := locale.Resolve(variants, l, s.locales.Default()); ok {
		return v, from, true
	}
	for _, candidate := range s.locales.Supported() {
		if v, ok := variants[candidate]; ok {
			return v, candidate, true
		}
	}
	return domain.StoryVariant{}, "", false
}

// normalize validates a variant and fills in the dates the editor may omit.
func (s *DefaultService) normalize(l locale.Locale, variant domain.StoryVariant) (domain.StoryVariant, error) {
	if !s.locales.Contains(l) {
		return variant, errors.Invalid("locale", "unsupported")
	}
	variant.Title = strings.TrimSpace(variant.Title)
	if variant.Title == "" {
		return variant, errors.Invalid("title", "required")
	}
	variant.Description = strings.TrimSpace(variant.Description)
	if !domain.IsRichContent(variant.Content) {
		return variant, errors.Invalid("content", "json_object")
	}

	if variant.Date.IsZero() {
		variant.Date = s.now().UTC()
	}
	if variant.DateModified.IsZero() {
		variant.DateModified = variant.Date
	}
	if variant.DateModified.Before(variant.Date) {
		return variant, errors.Invalid("dateModified", "gtefield=Date")
	}

	variant.Tags = normalizeTags(variant.Tags)
	return variant, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
