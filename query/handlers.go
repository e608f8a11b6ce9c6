package query

import (
	"context"
)

// EntityReader is the read half of the datastore client.
type EntityReader interface {
	Lookup(ctx context.Context, kind string, name string) (map[string]any, error)
}

type LookupQuery struct {
	reader EntityReader
}

func NewLookupQuery(reader EntityReader) *LookupQuery {
	return &LookupQuery{reader: reader}
}

func (q *LookupQuery) Query(ctx context.Context, msg LookupMessage) (map[string]any, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: entity reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Lookup(ctx, msg.Kind, msg.Name)
}
