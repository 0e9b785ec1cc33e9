package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/fitroom-backend/pkg/redis"
)

const redisDocumentVersion = 1

type redisDocument struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
}

// RedisRepository stores each cart as one JSON document.
type RedisRepository struct {
	store pkgredis.DocumentStore
	ttl   time.Duration
}

// NewRedisRepository constructs a redis-backed cart repository. A zero ttl
// keeps documents until they are overwritten or cleared.
func NewRedisRepository(store pkgredis.DocumentStore, ttl time.Duration) *RedisRepository {
	return &RedisRepository{store: store, ttl: ttl}
}

// ReadCart decodes the stored document. A missing key is an empty cart.
func (r *RedisRepository) ReadCart(ctx context.Context, cartID string) ([]LineItem, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(cartID))
	if errors.Is(err, pkgredis.ErrNil) {
		return []LineItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc redisDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: decode cart document: %w", ErrCorruptCart, err)
	}
	if doc.Version != redisDocumentVersion {
		return nil, fmt.Errorf("%w: unsupported cart document version %d", ErrCorruptCart, doc.Version)
	}
	if doc.Items == nil {
		doc.Items = []LineItem{}
	}
	return doc.Items, nil
}

// WriteCart overwrites the document. An empty list deletes the key.
func (r *RedisRepository) WriteCart(ctx context.Context, cartID string, items []LineItem) error {
	key := r.store.CartKey(cartID)
	if len(items) == 0 {
		return r.store.Del(ctx, key)
	}
	payload, err := json.Marshal(redisDocument{Version: redisDocumentVersion, Items: items})
	if err != nil {
		return fmt.Errorf("encode cart document: %w", err)
	}
	return r.store.Set(ctx, key, string(payload), r.ttl)
}
