package persistence_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/config"
	"github.com/spec-kit/contest-service/internal/persistence"
)

func TestNewRedisWithoutAddressIsDisabled(t *testing.T) {
	r := persistence.NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	if r != nil {
		t.Fatalf("redis = %+v, want nil", r)
	}
	if r.Available() {
		t.Fatal("disabled redis must not be available")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on disabled redis to fail")
	}
	r.Close()
}

func TestNewRedisUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := persistence.NewRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	if r == nil {
		t.Fatal("expected a client for a configured address")
	}
	defer r.Close()

	if r.Available() {
		t.Fatal("unreachable redis must not be available")
	}
	opts := r.Client.Options()
	if opts.DialTimeout > time.Second || opts.MaxRetries > 1 {
		t.Fatalf("dial timeout = %v, max retries = %d; want short timeouts", opts.DialTimeout, opts.MaxRetries)
	}
}
