package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-datastore/core"
)

// EntityWriter is the mutating half of the datastore client.
type EntityWriter interface {
	Insert(ctx context.Context, record core.Record) error
	Upsert(ctx context.Context, record core.Record) error
	Update(ctx context.Context, record core.Record) error
	DeleteKey(ctx context.Context, kind string, name string) error
}

type InsertCommand struct {
	writer EntityWriter
}

func NewInsertCommand(writer EntityWriter) *InsertCommand {
	return &InsertCommand{writer: writer}
}

func (c *InsertCommand) Execute(ctx context.Context, msg InsertMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: insert writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.writer.Insert(ctx, msg.Record); err != nil {
		return err
	}
	storeResult(ctx, recordResult("insert", msg.Record))
	return nil
}

type UpsertCommand struct {
	writer EntityWriter
}

func NewUpsertCommand(writer EntityWriter) *UpsertCommand {
	return &UpsertCommand{writer: writer}
}

func (c *UpsertCommand) Execute(ctx context.Context, msg UpsertMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: upsert writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.writer.Upsert(ctx, msg.Record); err != nil {
		return err
	}
	storeResult(ctx, recordResult("upsert", msg.Record))
	return nil
}

type UpdateCommand struct {
	writer EntityWriter
}

func NewUpdateCommand(writer EntityWriter) *UpdateCommand {
	return &UpdateCommand{writer: writer}
}

func (c *UpdateCommand) Execute(ctx context.Context, msg UpdateMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: update writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.writer.Update(ctx, msg.Record); err != nil {
		return err
	}
	storeResult(ctx, recordResult("update", msg.Record))
	return nil
}

type DeleteCommand struct {
	writer EntityWriter
}

func NewDeleteCommand(writer EntityWriter) *DeleteCommand {
	return &DeleteCommand{writer: writer}
}

func (c *DeleteCommand) Execute(ctx context.Context, msg DeleteMessage) error {
	if c == nil || c.writer == nil {
		return commandDependencyError("command: delete writer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.writer.DeleteKey(ctx, msg.Kind, msg.Name); err != nil {
		return err
	}
	storeResult(ctx, MutationResult{Operation: "delete", Kind: msg.Kind, Name: msg.Name})
	return nil
}

func recordResult(operation string, record core.Record) MutationResult {
	return MutationResult{Operation: operation, Kind: record.KindKey(), Name: record.NameKey()}
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
