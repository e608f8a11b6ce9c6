package core

import (
	stderrors "errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestErrorKinds_CarryStableCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		textCode string
		category goerrors.Category
		is       func(error) bool
	}{
		{
			name:     "serialization",
			err:      SerializationError("bad record", nil),
			textCode: ErrorSerialization,
			category: goerrors.CategoryBadInput,
			is:       IsSerialization,
		},
		{
			name:     "deserialization",
			err:      DeserializationError("bad payload", map[string]any{"path": "tags[2]"}),
			textCode: ErrorDeserialization,
			category: goerrors.CategoryValidation,
			is:       IsDeserialization,
		},
		{
			name:     "database response",
			err:      DatabaseResponseError(stderrors.New("409 conflict"), "commit failed", nil),
			textCode: ErrorDatabaseResponse,
			category: goerrors.CategoryExternal,
			is:       IsDatabaseResponse,
		},
		{
			name:     "no payload",
			err:      NoPayloadError("Person", "alice"),
			textCode: ErrorNoPayload,
			category: goerrors.CategoryNotFound,
			is:       IsNoPayload,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, tc.err.TextCode)
			}
			if tc.err.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, tc.err.Category)
			}
			if tc.err.Code == 0 {
				t.Fatalf("expected status code on %s error", tc.name)
			}
			if !tc.is(tc.err) {
				t.Fatalf("expected predicate to match %s error", tc.name)
			}
		})
	}
}

func TestIsErrorKind_WalksWrappedChain(t *testing.T) {
	inner := NoPayloadError("Person", "alice")
	outer := fmt.Errorf("lookup: %w", inner)
	if !IsNoPayload(outer) {
		t.Fatalf("expected wrapped no payload error to match")
	}
	if IsSerialization(outer) {
		t.Fatalf("did not expect serialization match")
	}

	nested := WrapDeserialization(SerializationError("inner", nil), "outer", nil)
	if !IsSerialization(nested) || !IsDeserialization(nested) {
		t.Fatalf("expected both kinds to be visible in chain")
	}
	if IsErrorKind(stderrors.New("plain"), ErrorSerialization) {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestNoPayloadError_IncludesKeyMetadata(t *testing.T) {
	err := NoPayloadError("Person", "alice")
	if err.Metadata["kind"] != "Person" || err.Metadata["name"] != "alice" {
		t.Fatalf("expected kind/name metadata, got %#v", err.Metadata)
	}
}
