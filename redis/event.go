package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"site-content-store/internal/domain"

	"github.com/redis/go-redis/v9"
)

var createEvent = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
  return 0
end
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`)

// maxReplaceAttempts bounds the optimistic retry loop in Replace.
const maxReplaceAttempts = 5

// EventRepository stores each event as one JSON string.
type EventRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewEventRepository(client *redis.Client) *EventRepository {
	return &EventRepository{client: client, now: time.Now}
}

func (r *EventRepository) FindBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	data, err := r.client.Get(ctx, eventPrefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeEvent(data)
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	slugs, err := r.client.SMembers(ctx, eventIndex).Result()
	if err != nil || len(slugs) == 0 {
		return nil, err
	}

	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = eventPrefix + slug
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(values))
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		event, err := decodeEvent([]byte(data))
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	now := r.now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	created, err := createEvent.Run(ctx, r.client,
		[]string{eventPrefix + event.EventSlug, eventIndex},
		data, event.EventSlug,
	).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Replace overwrites the stored event, keeping its id and creation time. The
// key is watched so a concurrent replace makes this one retry.
func (r *EventRepository) Replace(ctx context.Context, event *domain.Event) error {
	key := eventPrefix + event.EventSlug

	replace := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		existing, err := decodeEvent(data)
		if err != nil {
			return err
		}

		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
		event.UpdatedAt = r.now().UTC()
		updated, err := encodeEvent(event)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetXX(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for range maxReplaceAttempts {
		err := r.client.Watch(ctx, replace, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// storedEvent adds the id domain.Event keeps out of its JSON form.
type storedEvent struct {
	ID string `json:"id"`
	domain.Event
}

func encodeEvent(event *domain.Event) ([]byte, error) {
	return json.Marshal(storedEvent{ID: event.ID, Event: *event})
}

func decodeEvent(data []byte) (*domain.Event, error) {
	var stored storedEvent
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	event := stored.Event
	event.ID = stored.ID
	return &event, nil
}
