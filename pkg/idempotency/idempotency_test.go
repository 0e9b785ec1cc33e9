package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/fitroom-backend/pkg/redis"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "fr:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMark_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMark(context.Background(), "checkout-submit", "key-1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false, got true")
	}
	if store.lastKey != "fr:idempotency:claim:checkout-submit:key-1" {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMark_AlreadyClaimed(t *testing.T) {
	store := &fakeStore{setNXResult: false}
	manager, err := NewManager(store, 12*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMark(context.Background(), "checkout-submit", "key-1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if !already {
		t.Fatalf("expected already claimed, got false")
	}
}

func TestCheckAndMark_Errors(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXError: errors.New("boom")}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.CheckAndMark(context.Background(), "checkout-submit", "key-1"); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.CheckAndMark(context.Background(), "", "key-1"); err == nil {
		t.Fatal("expected scope error")
	}
	if _, err := manager.CheckAndMark(context.Background(), "checkout-submit", " "); err == nil {
		t.Fatal("expected key error")
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := manager.Delete(context.Background(), "checkout-submit", "key-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.lastDeleted != "fr:idempotency:claim:checkout-submit:key-1" {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}

func TestManagerAgainstRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	manager, err := NewManager(client, time.Minute)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	already, err := manager.CheckAndMark(ctx, "checkout-submit", "key-1")
	if err != nil || already {
		t.Fatalf("first claim: already=%v err=%v", already, err)
	}
	already, err = manager.CheckAndMark(ctx, "checkout-submit", "key-1")
	if err != nil || !already {
		t.Fatalf("second claim: already=%v err=%v", already, err)
	}

	mr.FastForward(2 * time.Minute)
	already, err = manager.CheckAndMark(ctx, "checkout-submit", "key-1")
	if err != nil || already {
		t.Fatalf("claim after expiry: already=%v err=%v", already, err)
	}

	if err := manager.Delete(ctx, "checkout-submit", "key-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	already, _ = manager.CheckAndMark(ctx, "checkout-submit", "key-1")
	if already {
		t.Fatal("expected claim to be free after delete")
	}
}

func TestNewManagerValidates(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := NewManager(&fakeStore{}, -time.Second); err == nil {
		t.Fatal("expected ttl error")
	}
}
