package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.InitNopLogger()
	m.Run()
}

func newTestManager(maxSize int, ttl time.Duration) (*Manager, *time.Time) {
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: ttl})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManagerSetGet(t *testing.T) {
	m, _ := newTestManager(10, time.Hour)
	defer m.Close()
	ctx := context.Background()

	if _, err := m.Get(ctx, "tags:es-ES"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := m.Set(ctx, "tags:es-ES", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "tags:es-ES")
	if err != nil || string(got) != "[]" {
		t.Fatalf("get = %q, %v", got, err)
	}

	stats := m.GetStats()
	if stats["hits"].(int64) != 1 || stats["misses"].(int64) != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestManagerExpiry(t *testing.T) {
	m, now := newTestManager(10, time.Minute)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"))
	*now = now.Add(2 * time.Minute)

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m, now := newTestManager(2, time.Hour)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"))
	*now = now.Add(time.Second)
	m.Set(ctx, "b", []byte("2"))
	m.Get(ctx, "a")

	if err := m.Set(ctx, "c", []byte("3")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Get(ctx, "b"); !errors.Is(err, ErrMiss) {
		t.Fatal("expected b to be evicted")
	}
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("a should survive: %v", err)
	}
}

func TestNewDisabled(t *testing.T) {
	store, err := New(config.CacheConfig{Enabled: false})
	if err != nil || store != nil {
		t.Fatalf("disabled cache = %v, %v", store, err)
	}
}
