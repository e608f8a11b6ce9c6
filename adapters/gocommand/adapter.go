// Package gocommand registers the datastore command and query handlers with
// a go-command registry and the process-wide dispatcher.
package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	datastore "github.com/goliatone/go-datastore"
	datastorecommand "github.com/goliatone/go-datastore/command"
	datastorequery "github.com/goliatone/go-datastore/query"
)

// ValidateMessageContract enforces Type() plus optional Validate().
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Bus owns the registry entries and dispatcher subscriptions created for
// one facade.
type Bus struct {
	registry *command.Registry

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
}

func NewBus(registry *command.Registry) *Bus {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &Bus{registry: registry}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// RegisterFacade registers and subscribes every datastore handler exposed
// by facade. On failure the subscriptions made so far are released.
func (b *Bus) RegisterFacade(facade *datastore.Facade, runnerOpts ...runner.Option) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if facade == nil {
		return fmt.Errorf("gocommand: datastore facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	steps := []func() error{
		func() error { return registerCommand[datastorecommand.InsertMessage](b, commands.Insert, runnerOpts) },
		func() error { return registerCommand[datastorecommand.UpsertMessage](b, commands.Upsert, runnerOpts) },
		func() error { return registerCommand[datastorecommand.UpdateMessage](b, commands.Update, runnerOpts) },
		func() error { return registerCommand[datastorecommand.DeleteMessage](b, commands.Delete, runnerOpts) },
		func() error {
			return registerQuery[datastorequery.LookupMessage, map[string]any](b, queries.Lookup, runnerOpts)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.Close()
			return err
		}
	}
	return nil
}

// MirrorToQueue adds a resolver that copies registered commands into a
// go-job queue registry during Initialize. Queries stay synchronous.
func (b *Bus) MirrorToQueue(key string, queueRegistry *jobqueuecommand.Registry) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	resolve := jobqueuecommand.QueueResolver(queueRegistry)
	return b.registry.AddResolver(strings.TrimSpace(key), func(cmd any, meta command.CommandMeta, registry *command.Registry) error {
		if _, isQuery := cmd.(*datastorequery.LookupQuery); isQuery {
			return nil
		}
		return resolve(cmd, meta, registry)
	})
}

func (b *Bus) Initialize() error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return b.registry.Initialize()
}

// Close releases every dispatcher subscription held by the bus.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subscription := range b.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *Bus) track(subscription commanddispatcher.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, subscription)
}

func registerCommand[T any](b *Bus, cmd command.Commander[T], runnerOpts []runner.Option) error {
	if cmd == nil {
		return fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := b.registry.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return err
	}
	b.track(subscription)
	return nil
}

func registerQuery[T any, R any](b *Bus, qry command.Querier[T, R], runnerOpts []runner.Option) error {
	if qry == nil {
		return fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := b.registry.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return err
	}
	b.track(subscription)
	return nil
}

// Dispatch validates msg and sends it to the subscribed command handler.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

// Lookup runs the subscribed lookup query.
func Lookup(ctx context.Context, kind string, name string) (map[string]any, error) {
	msg := datastorequery.LookupMessage{Kind: kind, Name: name}
	if err := ValidateMessageContract(msg); err != nil {
		return nil, err
	}
	return commanddispatcher.Query[datastorequery.LookupMessage, map[string]any](ctx, msg)
}
