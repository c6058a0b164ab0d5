package story

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"site-content-store/internal/db/dbtest"
	"site-content-store/internal/domain"
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *locale.Table {
	t.Helper()
	table, err := locale.NewTable([]string{"en", "nl", "de"}, "en", nil)
	require.NoError(t, err)
	return table
}

func newTestService(t *testing.T) (Service, StoryRepository) {
	t.Helper()
	repo := NewRepository(dbtest.New(t))
	return NewService(repo, testTable(t)), repo
}

func variant(title string, date string) domain.StoryVariant {
	d, _ := time.Parse(time.DateOnly, date)
	return domain.StoryVariant{
		Title:       title,
		Description: title + " description",
		Content:     domain.RichContent(`{"root":{"children":[]}}`),
		Date:        d,
		Tags:        []string{"erp", "erp", " training "},
	}
}

func TestService_Create_ThenConflict(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))

	err := service.Create(ctx, "guide", "nl", variant("Gids", "2024-01-02"))
	assert.True(t, errors.Is(err, http.StatusConflict))
}

func TestService_UpsertVariant_LeavesOtherLocales(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))
	require.NoError(t, service.UpsertVariant(ctx, "guide", "nl", variant("Gids", "2024-01-02")))

	en, err := service.GetBySlug(ctx, "guide", "en")
	require.NoError(t, err)
	assert.Equal(t, "Guide", en.Title)
	assert.Equal(t, locale.Locale("en"), en.Locale)
	assert.Equal(t, []string{"erp", "training"}, en.Tags)
	assert.True(t, en.DateModified.Equal(en.Date))

	nl, err := service.GetBySlug(ctx, "guide", "nl")
	require.NoError(t, err)
	assert.Equal(t, "Gids", nl.Title)
	assert.Equal(t, locale.Locale("nl"), nl.Locale)
}

func TestService_UpsertVariant_UnknownSlug(t *testing.T) {
	service, _ := newTestService(t)

	err := service.UpsertVariant(context.Background(), "missing", "nl", variant("Gids", "2024-01-02"))
	assert.True(t, errors.Is(err, http.StatusNotFound))
}

func TestService_GetBySlug_Fallback(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))
	view, err := service.GetBySlug(ctx, "guide", "de")
	require.NoError(t, err)
	assert.Equal(t, "Guide", view.Title)
	assert.Equal(t, locale.Locale("en"), view.Locale)

	// no default variant: the first locale the story was written in is used
	require.NoError(t, service.Create(ctx, "alleen-nl", "nl", variant("Alleen NL", "2024-01-01")))
	view, err = service.GetBySlug(ctx, "alleen-nl", "de")
	require.NoError(t, err)
	assert.Equal(t, locale.Locale("nl"), view.Locale)

	_, err = service.GetBySlug(ctx, "missing", "en")
	assert.True(t, errors.Is(err, http.StatusNotFound))
}

func TestService_ListSummaries_NewestFirst(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	require.NoError(t, service.Create(ctx, "first", "en", variant("First", "2023-01-01")))
	require.NoError(t, service.Create(ctx, "newest", "en", variant("Newest", "2024-01-01")))
	require.NoError(t, service.Create(ctx, "middle", "en", variant("Middle", "2023-06-01")))

	summaries, err := service.ListSummaries(ctx, "en")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	var dates []string
	for _, s := range summaries {
		dates = append(dates, s.Date.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2024-01-01", "2023-06-01", "2023-01-01"}, dates)
	assert.Equal(t, "Newest", summaries[0].Title)
	assert.Equal(t, "Newest description", summaries[0].Description)
}

func TestService_ListSummaries_UsesResolvedVariant(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2023-01-01")))
	require.NoError(t, service.UpsertVariant(ctx, "guide", "nl", variant("Gids", "2024-06-01")))

	summaries, err := service.ListSummaries(ctx, "nl")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Gids", summaries[0].Title)
	assert.Equal(t, locale.Locale("nl"), summaries[0].Locale)

	summaries, err = service.ListSummaries(ctx, "de")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Guide", summaries[0].Title)
}

func TestService_ListSlugs_IncludesNonDefaultOnly(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	slugs, err := service.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Empty(t, slugs)

	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))
	require.NoError(t, service.Create(ctx, "alleen-nl", "nl", variant("Alleen NL", "2024-01-01")))

	slugs, err = service.ListSlugs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"guide", "alleen-nl"}, slugs)
}

func TestService_IncrementViews_Concurrent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))

	before, err := service.GetBySlug(ctx, "guide", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.Views)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, service.IncrementViews(ctx, "guide"))
		}()
	}
	wg.Wait()

	after, err := service.GetBySlug(ctx, "guide", "nl")
	require.NoError(t, err)
	assert.Equal(t, before.Views+100, after.Views)
}

func TestService_IncrementViews_SurvivesVariantUpsert(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	require.NoError(t, service.Create(ctx, "guide", "en", variant("Guide", "2024-01-01")))
	require.NoError(t, service.IncrementViews(ctx, "guide"))

	require.NoError(t, service.UpsertVariant(ctx, "guide", "en", variant("Guide v2", "2024-01-01")))

	view, err := service.GetBySlug(ctx, "guide", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Views)
	assert.Equal(t, "Guide v2", view.Title)
}

func TestService_IncrementViews_UnknownSlug(t *testing.T) {
	service, _ := newTestService(t)

	err := service.IncrementViews(context.Background(), "missing")
	assert.True(t, errors.Is(err, http.StatusNotFound))
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	cases := map[string]func() error{
		"bad slug": func() error {
			return service.Create(ctx, "Not A Slug", "en", variant("Guide", "2024-01-01"))
		},
		"unsupported locale": func() error {
			return service.Create(ctx, "guide", "fr", variant("Guide", "2024-01-01"))
		},
		"empty title": func() error {
			return service.Create(ctx, "guide", "en", variant("  ", "2024-01-01"))
		},
		"content not an object": func() error {
			v := variant("Guide", "2024-01-01")
			v.Content = domain.RichContent(`"text"`)
			return service.Create(ctx, "guide", "en", v)
		},
		"modified before published": func() error {
			v := variant("Guide", "2024-01-01")
			v.DateModified = v.Date.Add(-time.Hour)
			return service.Create(ctx, "guide", "en", v)
		},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(call(), http.StatusUnprocessableEntity))
		})
	}
}

func TestService_Create_DefaultsDate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	service := &DefaultService{repository: repo, locales: testTable(t), now: func() time.Time { return fixed }}

	v := variant("Guide", "2024-01-01")
	v.Date = time.Time{}
	require.NoError(t, service.Create(ctx, "guide", "en", v))

	view, err := service.GetBySlug(ctx, "guide", "en")
	require.NoError(t, err)
	assert.True(t, fixed.Equal(view.Date))
	assert.True(t, fixed.Equal(view.DateModified))
}
