package event

import (
	"context"
	"errors"

	"site-content-store/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// List returns every event, soonest first.
	List(ctx context.Context) ([]domain.Event, error)
	// Create returns domain.ErrConflict when the slug is taken.
	Create(ctx context.Context, event *domain.Event) error
	// Replace overwrites the event stored under event.EventSlug and returns
	// domain.ErrNotFound when there is none.
	Replace(ctx context.Context, event *domain.Event) error
}

type EventRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	var event domain.Event
	err := r.db.WithContext(ctx).Where("event_slug = ?", slug).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := r.db.WithContext(ctx).Order("date ASC").Order("event_slug ASC").Find(&events).Error
	return events, err
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *domain.Event) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *EventRepositoryImpl) Replace(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_slug = ?", event.EventSlug).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
		err = tx.Model(&existing).
			Select("Title", "Description", "Location", "Date", "RequiredRegistrations", "Language", "ShownLanguages", "UpdatedAt").
			Updates(event).Error
		if err != nil {
			return err
		}
		// gorm stamps the update time on the model, not on the values
		event.UpdatedAt = existing.UpdatedAt
		return nil
	})
}
