package cron

import (
	"context"
	"testing"
	"time"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) DelIfEqual(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := newMemoryStore()
	first, err := NewRedisLock(store, "fs:lock:cron-worker:test", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	second, _ := NewRedisLock(store, "fs:lock:cron-worker:test", 0)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if store.ttls["fs:lock:cron-worker:test"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v", store.ttls["fs:lock:cron-worker:test"])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second owner should not acquire a held lock")
	}
	// A non-owner release must leave the lock in place.
	if err := second.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if _, held := store.values["fs:lock:cron-worker:test"]; !held {
		t.Fatal("lock released by non-owner")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected lock to be free after owner release")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatal("expected nil client to fail")
	}
	if _, err := NewRedisLock(newMemoryStore(), "", time.Minute); err == nil {
		t.Fatal("expected empty key to fail")
	}
}
