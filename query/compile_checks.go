package query

import gocmd "github.com/goliatone/go-command"

var _ gocmd.Querier[LookupMessage, map[string]any] = (*LookupQuery)(nil)
