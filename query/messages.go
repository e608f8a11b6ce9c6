package query

import "strings"

const TypeLookup = "datastore.query.entity.lookup"

type LookupMessage struct {
	Kind string
	Name string
}

func (LookupMessage) Type() string { return TypeLookup }

func (m LookupMessage) Validate() error {
	if strings.TrimSpace(m.Kind) == "" {
		return queryValidationError("kind", "kind is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return queryValidationError("name", "name is required")
	}
	return nil
}
