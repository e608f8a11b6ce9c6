package query

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-datastore/core"
)

type stubReader struct {
	lookupFn func(ctx context.Context, kind string, name string) (map[string]any, error)
}

func (s stubReader) Lookup(ctx context.Context, kind string, name string) (map[string]any, error) {
	return s.lookupFn(ctx, kind, name)
}

func TestLookupQuery_DelegatesToReader(t *testing.T) {
	expected := map[string]any{"name": "a1", "title": "lorem"}
	q := NewLookupQuery(stubReader{lookupFn: func(_ context.Context, kind string, name string) (map[string]any, error) {
		if kind != "Todo" || name != "a1" {
			t.Fatalf("unexpected lookup payload: %q %q", kind, name)
		}
		return expected, nil
	}})

	out, err := q.Query(context.Background(), LookupMessage{Kind: "Todo", Name: "a1"})
	if err != nil {
		t.Fatalf("lookup query: %v", err)
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatalf("unexpected lookup result (-want +got):\n%s", diff)
	}
}

func TestLookupQuery_PropagatesNoPayload(t *testing.T) {
	q := NewLookupQuery(stubReader{lookupFn: func(_ context.Context, kind string, name string) (map[string]any, error) {
		return nil, core.NoPayloadError(kind, name)
	}})
	_, err := q.Query(context.Background(), LookupMessage{Kind: "Todo", Name: "missing"})
	if !core.IsNoPayload(err) {
		t.Fatalf("expected no payload error, got %v", err)
	}
}

func TestLookupQuery_ValidatesMessage(t *testing.T) {
	q := NewLookupQuery(stubReader{lookupFn: func(context.Context, string, string) (map[string]any, error) {
		t.Fatalf("reader must not be called for invalid messages")
		return nil, nil
	}})
	if _, err := q.Query(context.Background(), LookupMessage{Kind: "Todo"}); err == nil {
		t.Fatalf("expected validation error")
	}
}
