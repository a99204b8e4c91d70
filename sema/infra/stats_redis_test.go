package infra

import (
	"context"
	"testing"
	"time"

	"semaforo/sema/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStatsStore(t *testing.T, opts ...RedisStatsOption) (*RedisStatsStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStatsStore(client, opts...), mr
}

func TestRedisStatsStore_RecordsTotals(t *testing.T) {
	s, mr := newTestStatsStore(t)

	_ = s.Record(context.Background(), domain.OpEvent{Name: "a", Op: domain.OpRelease})
	_ = s.Record(context.Background(), domain.OpEvent{Name: "a", Op: domain.OpAcquire, Acquired: true})
	_ = s.Record(context.Background(), domain.OpEvent{Name: "a", Op: domain.OpAcquire})

	if got := mr.HGet("sema:stats:total", "released"); got != "1" {
		t.Fatalf("expected released=1, got %q", got)
	}
	if got := mr.HGet("sema:stats:total", "acquired"); got != "1" {
		t.Fatalf("expected acquired=1, got %q", got)
	}
	if got := mr.HGet("sema:stats:total", "timeout"); got != "1" {
		t.Fatalf("expected timeout=1, got %q", got)
	}
}

func TestRedisStatsStore_MinuteBucketGetsTTL(t *testing.T) {
	s, mr := newTestStatsStore(t, WithStatsTTL(time.Hour))

	at := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	_ = s.Record(context.Background(), domain.OpEvent{Name: "a", Op: domain.OpRelease, At: at})

	bucketKey := "sema:stats:minute:202608251030"
	if got := mr.HGet(bucketKey, "released"); got != "1" {
		t.Fatalf("expected bucket released=1, got %q", got)
	}
	if ttl := mr.TTL(bucketKey); ttl <= 0 {
		t.Fatalf("expected TTL on bucket key, got %s", ttl)
	}
}

func TestRedisStatsStore_TracksNamesWhenEnabled(t *testing.T) {
	s, mr := newTestStatsStore(t, WithStatsTrackNames(true))

	_ = s.Record(context.Background(), domain.OpEvent{Name: "a", Op: domain.OpAcquire, Acquired: true})

	if got := mr.HGet("sema:stats:name:a", "acquired"); got != "1" {
		t.Fatalf("expected per-name acquired=1, got %q", got)
	}
}
