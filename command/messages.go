package command

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-datastore/core"
)

const (
	TypeInsert = "datastore.command.entity.insert"
	TypeUpsert = "datastore.command.entity.upsert"
	TypeUpdate = "datastore.command.entity.update"
	TypeDelete = "datastore.command.entity.delete"
)

type InsertMessage struct {
	Record core.Record
}

func (InsertMessage) Type() string { return TypeInsert }

func (m InsertMessage) Validate() error { return validateRecord(m.Record) }

type UpsertMessage struct {
	Record core.Record
}

func (UpsertMessage) Type() string { return TypeUpsert }

func (m UpsertMessage) Validate() error { return validateRecord(m.Record) }

type UpdateMessage struct {
	Record core.Record
}

func (UpdateMessage) Type() string { return TypeUpdate }

func (m UpdateMessage) Validate() error { return validateRecord(m.Record) }

type DeleteMessage struct {
	Kind string
	Name string
}

func (DeleteMessage) Type() string { return TypeDelete }

func (m DeleteMessage) Validate() error { return validateKey(m.Kind, m.Name) }

// MutationResult is stored in the result collector after a successful
// mutation.
type MutationResult struct {
	Operation string
	Kind      string
	Name      string
}

func validateRecord(record core.Record) error {
	if record == nil {
		return commandValidationError("record", "record is required")
	}
	if value := reflect.ValueOf(record); value.Kind() == reflect.Pointer && value.IsNil() {
		return commandValidationError("record", "record is required")
	}
	return validateKey(record.KindKey(), record.NameKey())
}

func validateKey(kind string, name string) error {
	if strings.TrimSpace(kind) == "" {
		return commandValidationError("kind", "kind is required")
	}
	if strings.TrimSpace(name) == "" {
		return commandValidationError("name", "name is required")
	}
	return nil
}
