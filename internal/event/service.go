package event

import (
	"context"
	"sort"
	"strings"

	"site-content-store/internal/domain"
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"

	"github.com/oklog/ulid/v2"
)

type Service interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	ListAll(ctx context.Context, l locale.Locale) ([]domain.Event, error)
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, slug string, event *domain.Event) error
}

type DefaultService struct {
	repository EventRepository
	locales    *locale.Table
}

func NewService(repository EventRepository, locales *locale.Table) Service {
	return &DefaultService{repository: repository, locales: locales}
}

func (s *DefaultService) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	event, err := s.repository.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errors.FromStore(err, "Event not found", "Event slug already exists")
	}
	return event, nil
}

// ListAll returns the events shown in l, soonest first.
func (s *DefaultService) ListAll(ctx context.Context, l locale.Locale) ([]domain.Event, error) {
	if !s.locales.Contains(l) {
		return nil, errors.Invalid("locale", "unsupported")
	}

	events, err := s.repository.List(ctx)
	if err != nil {
		return nil, errors.StorageUnavailable(err)
	}

	shown := make([]domain.Event, 0, len(events))
	for _, event := range events {
		if event.ShownIn(l) {
			shown = append(shown, event)
		}
	}
	sort.SliceStable(shown, func(i, j int) bool {
		if !shown[i].Date.Equal(shown[j].Date) {
			return shown[i].Date.Before(shown[j].Date)
		}
		return shown[i].EventSlug < shown[j].EventSlug
	})
	return shown, nil
}

func (s *DefaultService) Create(ctx context.Context, event *domain.Event) error {
	if err := s.validate(event); err != nil {
		return err
	}
	event.ID = ulid.Make().String()

	err := s.repository.Create(ctx, event)
	return errors.FromStore(err, "Event not found", "Event slug already exists")
}

// Update replaces the whole event. The slug argument wins over event.EventSlug.
func (s *DefaultService) Update(ctx context.Context, slug string, event *domain.Event) error {
	event.EventSlug = slug
	if err := s.validate(event); err != nil {
		return err
	}

	err := s.repository.Replace(ctx, event)
	return errors.FromStore(err, "Event not found", "Event slug already exists")
}

// validate checks the record and canonicalizes ShownLanguages. Language is not
// required to be one of ShownLanguages.
func (s *DefaultService) validate(event *domain.Event) error {
	if !domain.ValidSlug(event.EventSlug) {
		return errors.Invalid("eventSlug", "slug")
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return errors.Invalid("title", "required")
	}
	if event.RequiredRegistrations < 0 {
		return errors.Invalid("requiredRegistrations", "min=0")
	}
	if !s.locales.Contains(event.Language) {
		return errors.Invalid("language", "unsupported")
	}

	shown, rejected := s.locales.Filter(event.ShownLanguages)
	if len(rejected) > 0 {
		return errors.Invalid("shownLanguages", "unsupported")
	}
	if len(shown) == 0 {
		return errors.Invalid("shownLanguages", "required")
	}
	event.ShownLanguages = shown
	return nil
}
