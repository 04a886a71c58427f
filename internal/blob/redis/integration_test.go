//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// Integration tests require a reachable Redis
// Run with: REDIS_ADDRESS=localhost:6379 go test -tags=integration ./internal/blob/redis

func TestIntegration_RedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prefix := "receipts-test:" + time.Now().Format("150405.000000") + ":"
	s, err := New(ctx, Options{Address: addr, Prefix: prefix, LockTTL: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	if _, found, err := s.Get(ctx, "rupee_receipts"); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "rupee_receipts", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := s.Get(ctx, "rupee_receipts")
	if err != nil || !found || v != "[]" {
		t.Fatalf("unexpected value %q found=%v err=%v", v, found, err)
	}

	release, err := s.Lock(ctx, "mirror")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := s.Lock(ctx, "mirror"); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained, got %v", err)
	}
	release()
}
