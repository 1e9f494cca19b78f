package config

import (
	"context"
	"testing"
	"time"
)

func TestConnectRedis_GivesUpAfterTimeout(t *testing.T) {
	start := time.Now()
	// Nothing listens on port 1.
	err := connectRedis(context.Background(), "127.0.0.1:1", 1500*time.Millisecond)
	if err == nil {
		t.Fatalf("expected an error for an unreachable redis")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("expected connect to stop near its timeout, took %s", elapsed)
	}
	if GetRedisDB() != nil || GetRedisLock() != nil {
		t.Fatalf("redis clients must stay unset after a failed connect")
	}
}

func TestConnectRedis_DisabledWithoutAddress(t *testing.T) {
	if err := connectRedis(context.Background(), "", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
