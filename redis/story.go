package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"site-content-store/internal/domain"
	"site-content-store/internal/locale"

	"github.com/redis/go-redis/v9"
)

// Each script checks the key and writes it in one server-side step.
var (
	createStory = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], ARGV[2], ARGV[3], 'views', 0, 'created_at', ARGV[4], 'updated_at', ARGV[4])
redis.call('SADD', KEYS[2], ARGV[5])
return 1
`)
	upsertStoryVariant = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2], 'updated_at', ARGV[3])
return 1
`)
	incrementStoryViews = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'views', 1)
`)
)

// StoryRepository keeps a story as a hash of "variant:<locale>" JSON fields
// plus a views counter, and indexes slugs in a set.
type StoryRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewStoryRepository(client *redis.Client) *StoryRepository {
	return &StoryRepository{client: client, now: time.Now}
}

func (r *StoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	fields, err := r.client.HGetAll(ctx, storyPrefix+slug).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeStory(slug, fields)
}

func (r *StoryRepository) List(ctx context.Context) ([]domain.Story, error) {
	slugs, err := r.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(slugs))
	for i, slug := range slugs {
		cmds[i] = pipe.HGetAll(ctx, storyPrefix+slug)
	}
	if len(slugs) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	stories := make([]domain.Story, 0, len(slugs))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		story, err := decodeStory(slugs[i], fields)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	return stories, nil
}

func (r *StoryRepository) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := r.client.SMembers(ctx, storyIndex).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (r *StoryRepository) Create(ctx context.Context, story *domain.Story) error {
	if len(story.Variants) != 1 {
		return fmt.Errorf("story %q must be created with exactly one variant", story.Slug)
	}
	var l locale.Locale
	for only := range story.Variants {
		l = only
	}
	data, err := json.Marshal(story.Variants[l])
	if err != nil {
		return err
	}

	created, err := createStory.Run(ctx, r.client,
		[]string{storyPrefix + story.Slug, storyIndex},
		story.ID, variantPrefix+l.String(), data, formatTime(r.now()), story.Slug,
	).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *StoryRepository) UpsertVariant(ctx context.Context, slug string, l locale.Locale, variant domain.StoryVariant) error {
	data, err := json.Marshal(variant)
	if err != nil {
		return err
	}

	updated, err := upsertStoryVariant.Run(ctx, r.client,
		[]string{storyPrefix + slug},
		variantPrefix+l.String(), data, formatTime(r.now()),
	).Int()
	if err != nil {
		return err
	}
	if updated == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StoryRepository) IncrementViews(ctx context.Context, slug string) error {
	views, err := incrementStoryViews.Run(ctx, r.client, []string{storyPrefix + slug}).Int64()
	if err != nil {
		return err
	}
	if views < 0 {
		return domain.ErrNotFound
	}
	return nil
}

func decodeStory(slug string, fields map[string]string) (*domain.Story, error) {
	story := &domain.Story{
		ID:        fields[fieldID],
		Slug:      slug,
		Variants:  make(map[locale.Locale]domain.StoryVariant),
		CreatedAt: parseTime(fields[fieldCreated]),
		UpdatedAt: parseTime(fields[fieldUpdated]),
	}
	if v, ok := fields[fieldViews]; ok {
		views, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("story %q views: %w", slug, err)
		}
		story.Views = views
	}
	for field, value := range fields {
		l, ok := strings.CutPrefix(field, variantPrefix)
		if !ok {
			continue
		}
		var variant domain.StoryVariant
		if err := json.Unmarshal([]byte(value), &variant); err != nil {
			return nil, fmt.Errorf("story %q variant %s: %w", slug, l, err)
		}
		story.Variants[locale.Locale(l)] = variant
	}
	return story, nil
}
