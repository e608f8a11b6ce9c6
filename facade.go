package datastore

import (
	"fmt"

	datastorecommand "github.com/goliatone/go-datastore/command"
	datastorequery "github.com/goliatone/go-datastore/query"
)

type CommandQueryClient interface {
	datastorecommand.EntityWriter
	datastorequery.EntityReader
}

type Commands struct {
	Insert *datastorecommand.InsertCommand
	Upsert *datastorecommand.UpsertCommand
	Update *datastorecommand.UpdateCommand
	Delete *datastorecommand.DeleteCommand
}

type Queries struct {
	Lookup *datastorequery.LookupQuery
}

// Facade exposes the client as go-command handlers.
type Facade struct {
	client   CommandQueryClient
	commands Commands
	queries  Queries
}

func NewFacade(client CommandQueryClient) (*Facade, error) {
	if client == nil {
		return nil, fmt.Errorf("datastore: command/query client is required")
	}
	return &Facade{
		client: client,
		commands: Commands{
			Insert: datastorecommand.NewInsertCommand(client),
			Upsert: datastorecommand.NewUpsertCommand(client),
			Update: datastorecommand.NewUpdateCommand(client),
			Delete: datastorecommand.NewDeleteCommand(client),
		},
		queries: Queries{
			Lookup: datastorequery.NewLookupQuery(client),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Client() CommandQueryClient {
	if f == nil {
		return nil
	}
	return f.client
}

var _ CommandQueryClient = (*Client)(nil)
