package infra

import (
	"context"
	"testing"
	"time"

	"record-gateway/middleware/resilience/domain"

	"github.com/redis/go-redis/v9"
)

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	s := NewRedisStatsStore(nil)
	if err := s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeAdmitted}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	total, err := s.Total(context.Background())
	if err != nil || len(total) != 0 {
		t.Fatalf("expected empty totals, got %v %v", total, err)
	}
}

func TestRedisStatsStore_OptionsApplied(t *testing.T) {
	s := NewRedisStatsStore(nil,
		WithStatsPrefix(":gw:stats:"),
		WithStatsTTL(time.Hour),
		WithStatsBucket(" NONE "),
		WithStatsTrackKeys(true),
	)
	if s.prefix != "gw:stats" || s.ttl != time.Hour || s.bucket != "none" || !s.trackKeys {
		t.Fatalf("unexpected options: %+v", s)
	}
}

func TestRedisStatsStore_ReportsUnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStatsStore(rdb)
	err := s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeTimeout, Method: "GET", Path: "/timeout"})
	if err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if _, err := s.Total(context.Background()); err == nil {
		t.Fatalf("expected Total error from unreachable redis")
	}
}
