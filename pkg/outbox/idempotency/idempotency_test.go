package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMark_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMark(context.Background(), "lowstock", "product:abc:2")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false, got true")
	}
	if store.lastKey != "sf:idempotency:lowstock:product:abc:2" {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMark_Error(t *testing.T) {
	store := &fakeStore{setNXError: errors.New("boom")}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CheckAndMark(context.Background(), "lowstock", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheckAndMark_RequiresScopeAndID(t *testing.T) {
	manager, _ := NewManager(&fakeStore{}, time.Hour)
	if _, err := manager.CheckAndMark(context.Background(), "", "x"); err == nil {
		t.Fatal("expected scope error")
	}
	if _, err := manager.CheckAndMark(context.Background(), "lowstock", " "); err == nil {
		t.Fatal("expected id error")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := NewManager(&fakeStore{}, -time.Second); err == nil {
		t.Fatal("expected ttl error")
	}
}

func TestRelease(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := manager.Release(context.Background(), "lowstock", "variant:1:0"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.lastDeleted != "sf:idempotency:lowstock:variant:1:0" {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}
