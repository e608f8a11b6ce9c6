package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-datastore/core"
)

type todo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (todo) KindKey() string   { return "Todo" }
func (t todo) NameKey() string { return t.Name }

type stubWriter struct {
	insertFn func(ctx context.Context, record core.Record) error
	upsertFn func(ctx context.Context, record core.Record) error
	updateFn func(ctx context.Context, record core.Record) error
	deleteFn func(ctx context.Context, kind string, name string) error
}

func (s stubWriter) Insert(ctx context.Context, record core.Record) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, record)
}

func (s stubWriter) Upsert(ctx context.Context, record core.Record) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, record)
}

func (s stubWriter) Update(ctx context.Context, record core.Record) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, record)
}

func (s stubWriter) DeleteKey(ctx context.Context, kind string, name string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, kind, name)
}

func TestUpsertCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	called := false
	writer := stubWriter{
		upsertFn: func(_ context.Context, record core.Record) error {
			called = true
			if record.NameKey() != "a1" {
				t.Fatalf("expected record a1, got %q", record.NameKey())
			}
			return nil
		},
	}

	cmd := NewUpsertCommand(writer)
	collector := gocmd.NewResult[MutationResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, UpsertMessage{Record: todo{Name: "a1", Title: "lorem"}}); err != nil {
		t.Fatalf("execute upsert: %v", err)
	}
	if !called {
		t.Fatalf("expected upsert invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result != (MutationResult{Operation: "upsert", Kind: "Todo", Name: "a1"}) {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToWriter(t *testing.T) {
	t.Run("insert", func(t *testing.T) {
		called := false
		cmd := NewInsertCommand(stubWriter{insertFn: func(context.Context, core.Record) error {
			called = true
			return nil
		}})
		if err := cmd.Execute(context.Background(), InsertMessage{Record: todo{Name: "a1"}}); err != nil {
			t.Fatalf("execute insert: %v", err)
		}
		if !called {
			t.Fatalf("expected insert invocation")
		}
	})

	t.Run("update", func(t *testing.T) {
		called := false
		cmd := NewUpdateCommand(stubWriter{updateFn: func(context.Context, core.Record) error {
			called = true
			return nil
		}})
		if err := cmd.Execute(context.Background(), UpdateMessage{Record: &todo{Name: "a1"}}); err != nil {
			t.Fatalf("execute update: %v", err)
		}
		if !called {
			t.Fatalf("expected update invocation")
		}
	})

	t.Run("delete", func(t *testing.T) {
		collector := gocmd.NewResult[MutationResult]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		cmd := NewDeleteCommand(stubWriter{deleteFn: func(_ context.Context, kind string, name string) error {
			if kind != "Todo" || name != "a1" {
				t.Fatalf("unexpected delete payload: %q %q", kind, name)
			}
			return nil
		}})
		if err := cmd.Execute(ctx, DeleteMessage{Kind: "Todo", Name: "a1"}); err != nil {
			t.Fatalf("execute delete: %v", err)
		}
		result, ok := collector.Load()
		if !ok || result.Operation != "delete" {
			t.Fatalf("expected delete result, got %#v", result)
		}
	})
}

func TestMutationCommands_PropagateWriterErrors(t *testing.T) {
	failure := errors.New("commit rejected")
	collector := gocmd.NewResult[MutationResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	cmd := NewInsertCommand(stubWriter{insertFn: func(context.Context, core.Record) error { return failure }})
	if err := cmd.Execute(ctx, InsertMessage{Record: todo{Name: "a1"}}); !errors.Is(err, failure) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if _, ok := collector.Load(); ok {
		t.Fatalf("did not expect a stored result on failure")
	}
}

func TestMutationCommands_ValidateBeforeDelegating(t *testing.T) {
	cmd := NewUpsertCommand(stubWriter{upsertFn: func(context.Context, core.Record) error {
		t.Fatalf("writer must not be called for invalid messages")
		return nil
	}})
	if err := cmd.Execute(context.Background(), UpsertMessage{Record: todo{}}); err == nil {
		t.Fatalf("expected validation error for empty name")
	}
	var nilRecord *todo
	if err := cmd.Execute(context.Background(), UpsertMessage{Record: nilRecord}); err == nil {
		t.Fatalf("expected validation error for nil record")
	}
}
