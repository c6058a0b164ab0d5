package redis

import (
	"context"
	"strings"
	"time"

	"site-content-store/internal/domain"
	"site-content-store/internal/locale"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// DocumentRepository keeps a document as a hash with one field per locale.
type DocumentRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewDocumentRepository(client *redis.Client) *DocumentRepository {
	return &DocumentRepository{client: client, now: time.Now}
}

func (r *DocumentRepository) FindByDocumentID(ctx context.Context, documentID string) (*domain.Document, error) {
	fields, err := r.client.HGetAll(ctx, documentPrefix+documentID).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	doc := &domain.Document{
		ID:         fields[fieldID],
		DocumentID: documentID,
		Variants:   make(map[locale.Locale]domain.RichContent),
		CreatedAt:  parseTime(fields[fieldCreated]),
		UpdatedAt:  parseTime(fields[fieldUpdated]),
	}
	for field, value := range fields {
		if l, ok := strings.CutPrefix(field, variantPrefix); ok {
			doc.Variants[locale.Locale(l)] = domain.RichContent(value)
		}
	}
	return doc, nil
}

// SaveVariant writes a single hash field, so other locales are never touched.
func (r *DocumentRepository) SaveVariant(ctx context.Context, documentID string, l locale.Locale, content domain.RichContent) error {
	key := documentPrefix + documentID
	now := formatTime(r.now())
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldID, ulid.Make().String())
		pipe.HSetNX(ctx, key, fieldCreated, now)
		pipe.HSet(ctx, key, variantPrefix+l.String(), string(content), fieldUpdated, now)
		return nil
	})
	return err
}
