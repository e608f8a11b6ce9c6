// Package datastore is a client for typed record access to a Cloud
// Datastore compatible store over its REST commit and lookup endpoints.
//
// Records implement Record and are encoded through their JSON form:
//
//	type Todo struct {
//		Name  string `json:"name"`
//		Title string `json:"title"`
//	}
//
//	func (Todo) KindKey() string   { return "Todo" }
//	func (t Todo) NameKey() string { return t.Name }
//
//	client, err := datastore.NewClient(ctx, datastore.Config{})
//	err = client.Upsert(ctx, Todo{Name: "a1", Title: "lorem ipsum"})
//	todo, err := datastore.Get[Todo](ctx, client, "a1")
package datastore

import "github.com/goliatone/go-datastore/core"

type Config = core.Config

type AuthConfig = core.AuthConfig

type Record = core.Record

type TokenProvider = core.TokenProvider

func DefaultConfig() Config {
	return core.DefaultConfig()
}

var (
	IsSerialization    = core.IsSerialization
	IsDeserialization  = core.IsDeserialization
	IsDatabaseResponse = core.IsDatabaseResponse
	IsNoPayload        = core.IsNoPayload
)
