package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"
)

func TestLocalRejectsSecondWriter(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := l.Acquire(ctx, "g1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	other, err := l.Acquire(ctx, "g2")
	if err != nil {
		t.Fatalf("different games must not block each other: %v", err)
	}
	other()

	release()
	release()
	again, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func newValkey(t *testing.T, ttl time.Duration) (*Valkey, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		mr.Close()
		t.Fatalf("valkey client create failed: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewValkey(client, logger, "dominion:lock:", ttl), mr
}

func TestValkeyMutualExclusion(t *testing.T) {
	l, mr := newValkey(t, 10*time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("dominion:lock:g1") {
		t.Fatalf("expected lock key in valkey")
	}
	if _, err := l.Acquire(ctx, "g1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	release()
	if mr.Exists("dominion:lock:g1") {
		t.Fatalf("lock key should be deleted on release")
	}
	again, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestValkeyExpiredLockIsNotStolenBack(t *testing.T) {
	l, mr := newValkey(t, 2*time.Second)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(3 * time.Second)

	fresh, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire after ttl: %v", err)
	}
	stale()
	if !mr.Exists("dominion:lock:g1") {
		t.Fatalf("stale release must not delete the new holder's lock")
	}
	fresh()
}

func TestValkeyConcurrentReleaseRunsOnce(t *testing.T) {
	l, mr := newValkey(t, 10*time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release()
		}()
	}
	wg.Wait()
	if mr.Exists("dominion:lock:g1") {
		t.Fatalf("lock key should be deleted on release")
	}

	next, err := l.Acquire(ctx, "g1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release()
	if !mr.Exists("dominion:lock:g1") {
		t.Fatalf("repeated release must not delete the next holder's lock")
	}
	next()
}
