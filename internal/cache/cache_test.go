package cache

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	testingclock "k8s.io/utils/clock/testing"
)

func testEntry() Entry {
	return Entry{Status: 200, ContentType: "application/json", Body: []byte(`{"count":1}`)}
}

// --- FormatKey ---

func TestFormatKey_queryOrderInsensitive(t *testing.T) {
	a := FormatKey("/api/activity", url.Values{"case": {"1", "2"}, "page": {"3"}})
	b, _ := url.ParseQuery("page=3&case=1&case=2")
	if got := FormatKey("/api/activity", b); got != a {
		t.Errorf("FormatKey = %q, want %q", got, a)
	}
	if !strings.HasPrefix(a, KeyPrefix+"api/activity:") {
		t.Errorf("FormatKey = %q, want prefix %q", a, KeyPrefix+"api/activity:")
	}
	if c := FormatKey("/api/activity", url.Values{"page": {"4"}}); c == a {
		t.Error("different queries share a key")
	}
}

// --- MemoryCache ---

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(testingclock.NewFakeClock(time.Now()))
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get on empty cache = found %v, err %v", found, err)
	}
	if err := c.Set(ctx, "k", testEntry(), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if got.Status != 200 || string(got.Body) != `{"count":1}` {
		t.Errorf("entry = %+v", got)
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewMemoryCache(clk)
	ctx := context.Background()

	if err := c.Set(ctx, "k", testEntry(), time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	clk.Step(999 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "k"); !found {
		t.Fatal("entry expired early")
	}
	clk.Step(time.Millisecond)
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("found = true, want false (expired)")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (expired entry removed)", c.Len())
	}
}

func TestMemoryCache_Flush(t *testing.T) {
	c := NewMemoryCache(nil)
	ctx := context.Background()
	_ = c.Set(ctx, "a", testEntry(), time.Minute)
	_ = c.Set(ctx, "b", testEntry(), time.Minute)

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

// --- RedisCache ---

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisCache_SetAndGet(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, KeyPrefix+"k"); err != nil || found {
		t.Fatalf("Get on empty cache = found %v, err %v", found, err)
	}
	if err := c.Set(ctx, KeyPrefix+"k", testEntry(), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, found, err := c.Get(ctx, KeyPrefix+"k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if got.ContentType != "application/json" || string(got.Body) != `{"count":1}` {
		t.Errorf("entry = %+v", got)
	}
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	if err := c.Set(ctx, KeyPrefix+"k", testEntry(), time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	// Fast-forward miniredis time past TTL.
	mr.FastForward(2 * time.Second)

	if _, found, err := c.Get(ctx, KeyPrefix+"k"); err != nil || found {
		t.Errorf("Get after TTL = found %v, err %v; want miss", found, err)
	}
}

func TestRedisCache_FlushKeepsForeignKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		key := FormatKey("/api/activity", url.Values{"page": {string(rune('a'+i%26)) + strings.Repeat("x", i/26)}})
		if err := c.Set(ctx, key, testEntry(), time.Minute); err != nil {
			t.Fatalf("Set error: %v", err)
		}
	}
	if err := mr.Set("other:key", "v"); err != nil {
		t.Fatalf("miniredis Set: %v", err)
	}

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "other:key" {
		t.Errorf("keys after Flush = %v, want [other:key]", keys)
	}
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client)
	if err := mr.Set(KeyPrefix+"bad", "not json"); err != nil {
		t.Fatalf("miniredis Set: %v", err)
	}
	if _, _, err := c.Get(context.Background(), KeyPrefix+"bad"); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestRedisCache_HealthCheck(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck error: %v", err)
	}
	mr.Close()
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck succeeded after server closed")
	}
}
