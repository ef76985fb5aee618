package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type payload struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ctx := context.Background()
	in := payload{Name: "Ada", Skills: []string{"go"}}
	if err := m.SetJSON(ctx, "profile:1", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	// mutating the original must not leak into the cache
	in.Skills[0] = "rust"

	var out payload
	ok, err := m.GetJSON(ctx, "profile:1", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if out.Name != "Ada" || out.Skills[0] != "go" {
		t.Fatalf("unexpected cached value %+v", out)
	}

	now = now.Add(time.Minute)
	ok, err = m.GetJSON(ctx, "profile:1", &out)
	if err != nil || ok {
		t.Fatalf("expected expired miss, got ok=%v err=%v", ok, err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestMemoryDefaultTTL(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.SetJSON(context.Background(), "k", 1, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(DefaultTTL - time.Second)
	var v int
	if ok, _ := m.GetJSON(context.Background(), "k", &v); !ok || v != 1 {
		t.Fatalf("expected value to live for the default ttl")
	}
}

func TestMemoryMiss(t *testing.T) {
	t.Parallel()

	var v int
	ok, err := NewMemory().GetJSON(context.Background(), "missing", &v)
	if ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	if got := Key("match", "abc", "def"); got != "match:abc:def" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisBypassesWhenUnavailable(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// nothing listens on port 1
	r := NewRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"}, zap.New(core))
	if logs.FilterMessage("redis unavailable, bypassing cache").Len() != 1 {
		t.Fatalf("expected a single bypass warning, got %d entries", logs.Len())
	}

	if err := r.SetJSON(ctx, "k", payload{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("set should be dropped silently: %v", err)
	}
	var out payload
	ok, err := r.GetJSON(ctx, "k", &out)
	if ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Redis)(nil)
)
