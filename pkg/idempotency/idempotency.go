package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fitroom-backend/pkg/redis"
)

// Manager claims one-shot operations using Redis SETNX with a TTL.
// Keys follow the `fr:idempotency:<scope>:<key>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds a guard whose claims expire after ttl.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// CheckAndMark returns true if key was already claimed in scope and otherwise
// claims it for the configured TTL.
func (m *Manager) CheckAndMark(ctx context.Context, scope, key string) (bool, error) {
	fullKey, err := m.buildKey(scope, key)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, fullKey, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Delete releases a claim so the operation can be attempted again.
func (m *Manager) Delete(ctx context.Context, scope, key string) error {
	fullKey, err := m.buildKey(scope, key)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, fullKey)
}

func (m *Manager) buildKey(scope, key string) (string, error) {
	scope = strings.TrimSpace(scope)
	key = strings.TrimSpace(key)
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if key == "" {
		return "", errors.New("key is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("claim:%s", scope), key), nil
}
