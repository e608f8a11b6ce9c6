package emulator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{name: "memory", open: func(*testing.T) Store { return NewMemoryStore() }},
		{name: "bolt", open: newTestBoltStore},
		{name: "sqlite", open: newTestSQLStore},
		{name: "cached", open: func(t *testing.T) Store {
			store, err := NewCachedStore(NewMemoryStore(), newTestCacheService(t))
			if err != nil {
				t.Fatalf("new cached store: %v", err)
			}
			return store
		}},
	}
}

func TestStoreConformance(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			t.Run("lifecycle", func(t *testing.T) {
				runLifecycle(t, factory.open(t))
			})
			t.Run("modes", func(t *testing.T) {
				runModes(t, factory.open(t))
			})
			t.Run("validation", func(t *testing.T) {
				runValidation(t, factory.open(t))
			})
			t.Run("concurrent upserts", func(t *testing.T) {
				runConcurrentUpserts(t, factory.open(t))
			})
		})
	}
}

func runLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	defer func() { _ = store.Close() }()

	if _, err := store.Get(ctx, "Todo", "first"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}

	inserted, err := store.Put(ctx, Record{Kind: "Todo", Name: "first", Payload: []byte(`{"done":{"booleanValue":false}}`)}, PutInsert)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted.Version != 1 {
		t.Fatalf("expected first version to be 1, got %d", inserted.Version)
	}
	if inserted.UpdatedAt.IsZero() {
		t.Fatalf("expected update time to be set")
	}

	got, err := store.Get(ctx, "Todo", "first")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != `{"done":{"booleanValue":false}}` {
		t.Fatalf("unexpected payload %s", got.Payload)
	}

	updated, err := store.Put(ctx, Record{Kind: "Todo", Name: "first", Payload: []byte(`{"done":{"booleanValue":true}}`)}, PutUpsert)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected upsert to bump version to 2, got %d", updated.Version)
	}
	got, err = store.Get(ctx, "Todo", "first")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if string(got.Payload) != `{"done":{"booleanValue":true}}` || got.Version != 2 {
		t.Fatalf("unexpected record after upsert: %+v", got)
	}

	deleted, err := store.Delete(ctx, "Todo", "first")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected delete version 3, got %d", deleted)
	}
	if _, err := store.Get(ctx, "Todo", "first"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	again, err := store.Delete(ctx, "Todo", "first")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected missing delete to report version 0, got %d", again)
	}

	reinserted, err := store.Put(ctx, Record{Kind: "Todo", Name: "first", Payload: []byte(`{}`)}, PutInsert)
	if err != nil {
		t.Fatalf("insert after delete: %v", err)
	}
	if reinserted.Version <= deleted {
		t.Fatalf("expected versions to keep increasing, got %d after %d", reinserted.Version, deleted)
	}
}

func runModes(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	defer func() { _ = store.Close() }()

	if _, err := store.Put(ctx, Record{Kind: "Todo", Name: "missing"}, PutUpdate); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected update of missing entity to fail with ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "Todo", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed update must not create the entity, got %v", err)
	}

	if _, err := store.Put(ctx, Record{Kind: "Todo", Name: "dup", Payload: []byte(`{"n":{"integerValue":"1"}}`)}, PutInsert); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Put(ctx, Record{Kind: "Todo", Name: "dup", Payload: []byte(`{"n":{"integerValue":"2"}}`)}, PutInsert); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected duplicate insert to fail with ErrAlreadyExists, got %v", err)
	}
	got, err := store.Get(ctx, "Todo", "dup")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != `{"n":{"integerValue":"1"}}` || got.Version != 1 {
		t.Fatalf("rejected insert must leave the record untouched, got %+v", got)
	}

	updated, err := store.Put(ctx, Record{Kind: "Todo", Name: "dup", Payload: []byte(`{"n":{"integerValue":"3"}}`)}, PutUpdate)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected update version 2, got %d", updated.Version)
	}

	if _, err := store.Put(ctx, Record{Kind: "Other", Name: "dup"}, PutUpdate); !errors.Is(err, ErrNotFound) {
		t.Fatalf("kinds must not share names, got %v", err)
	}
}

func runValidation(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	defer func() { _ = store.Close() }()

	if _, err := store.Put(ctx, Record{Kind: "", Name: "x"}, PutUpsert); err == nil {
		t.Fatalf("expected empty kind to fail")
	}
	if _, err := store.Put(ctx, Record{Kind: "Todo", Name: " "}, PutUpsert); err == nil {
		t.Fatalf("expected blank name to fail")
	}
	if _, err := store.Put(ctx, Record{Kind: "Todo", Name: "x"}, PutMode("merge")); err == nil {
		t.Fatalf("expected unsupported mode to fail")
	}
	if _, err := store.Get(ctx, "Todo", ""); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func runConcurrentUpserts(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	defer func() { _ = store.Close() }()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := fmt.Appendf(nil, `{"writer":{"integerValue":"%d"}}`, i)
			if _, err := store.Put(ctx, Record{Kind: "Counter", Name: "shared", Payload: payload}, PutUpsert); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	got, err := store.Get(ctx, "Counter", "shared")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != writers {
		t.Fatalf("expected %d serialized versions, got %d", writers, got.Version)
	}
}

func newTestBoltStore(t *testing.T) Store {
	t.Helper()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "emulator.db"), BoltOptions{NoSync: true})
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	return store
}

func newTestSQLStore(t *testing.T) Store {
	t.Helper()
	store, err := OpenSQLStore(context.Background(), SQLConfig{
		Driver: "sqlite3",
		DSN:    fmt.Sprintf("file:emulator-test-%d?mode=memory&cache=shared", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	return store
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
