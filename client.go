package datastore

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-datastore/auth"
	"github.com/goliatone/go-datastore/convert"
	"github.com/goliatone/go-datastore/core"
	"github.com/goliatone/go-datastore/transport"
	"github.com/goliatone/go-datastore/wire"
)

const (
	opInsert = "insert"
	opUpsert = "upsert"
	opUpdate = "update"
	opDelete = "delete"
	opGet    = "get"
	opLookup = "lookup"
)

// Client performs single-entity operations against the store. It is safe
// to share between goroutines; token fetches on a service-account facade
// are serialized and fail fast when contended.
type Client struct {
	cfg       core.Config
	projectID string
	baseURL   string
	tokens    core.TokenProvider
	transport core.TransportAdapter
	logger    core.Logger
	metrics   core.MetricsRecorder
	requestID func() string
}

// NewClient resolves configuration, builds the credential chain and fixes
// the project id. The chain is skipped when a token provider is injected or
// an emulator host is configured.
func NewClient(ctx context.Context, cfg core.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	builder := clientBuilder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider := builder.configProvider
	if provider == nil {
		provider = core.NewCfgxConfigProvider(core.EnvRawConfigLoader{})
	}
	resolved, err := core.ResolveConfig(ctx, cfg, provider, builder.optionsResolver)
	if err != nil {
		return nil, err
	}

	loggerProvider, logger := glog.Resolve("datastore", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if loggerProvider != nil {
		if named := loggerProvider.GetLogger("datastore"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	adapter := builder.transport
	if adapter == nil {
		var doer transport.HTTPDoer
		if builder.httpClient != nil {
			doer = builder.httpClient
		}
		adapter = transport.NewRESTAdapter(doer)
	}

	tokens := builder.tokenProvider
	if tokens == nil && strings.TrimSpace(resolved.EmulatorHost) == "" {
		authOpts := []auth.Option{
			auth.WithConfig(resolved),
			auth.WithTransport(adapter),
			auth.WithLogger(logger),
		}
		if builder.httpClient != nil {
			authOpts = append(authOpts, auth.WithHTTPClient(builder.httpClient))
		}
		facade, err := auth.New(ctx, append(authOpts, builder.authOptions...)...)
		if err != nil {
			return nil, err
		}
		tokens = facade
	}

	projectID := strings.TrimSpace(resolved.ProjectID)
	if projectID == "" {
		if withProject, ok := tokens.(core.ProjectTokenProvider); ok {
			projectID = strings.TrimSpace(withProject.ProjectID())
		}
	}
	if projectID == "" {
		return nil, core.BadInputError("datastore: project id could not be resolved")
	}

	metrics := builder.metricsRecorder
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	requestID := builder.requestID
	if requestID == nil {
		requestID = uuid.NewString
	}

	return &Client{
		cfg:       resolved,
		projectID: projectID,
		baseURL:   resolved.BaseURL(),
		tokens:    tokens,
		transport: adapter,
		logger:    logger,
		metrics:   metrics,
		requestID: requestID,
	}, nil
}

func (c *Client) ProjectID() string { return c.projectID }

func (c *Client) Config() core.Config { return c.cfg }

// Insert creates the entity and fails when it already exists.
func (c *Client) Insert(ctx context.Context, record core.Record) error {
	return c.mutateRecord(ctx, opInsert, record)
}

// Upsert creates or replaces the entity.
func (c *Client) Upsert(ctx context.Context, record core.Record) error {
	return c.mutateRecord(ctx, opUpsert, record)
}

// Update replaces the entity and fails when it does not exist.
func (c *Client) Update(ctx context.Context, record core.Record) error {
	return c.mutateRecord(ctx, opUpdate, record)
}

// Lookup fetches one entity by kind and name as a dynamic object.
func (c *Client) Lookup(ctx context.Context, kind string, name string) (_ map[string]any, err error) {
	startedAt := time.Now()
	fields := c.operationFields(kind, name)
	defer func() { c.observeOperation(ctx, startedAt, opLookup, err, fields) }()

	entity, err := c.lookupEntity(ctx, kind, name, fields)
	if err != nil {
		return nil, err
	}
	decoded, err := convert.Decode(convert.EntityValue(entity))
	if err != nil {
		return nil, err
	}
	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, core.DeserializationError("datastore: entity did not decode to an object", map[string]any{"kind": kind, "name": name})
	}
	return object, nil
}

// DeleteKey removes one entity by kind and name. Deleting a missing entity
// succeeds.
func (c *Client) DeleteKey(ctx context.Context, kind string, name string) (err error) {
	startedAt := time.Now()
	fields := c.operationFields(kind, name)
	defer func() { c.observeOperation(ctx, startedAt, opDelete, err, fields) }()

	if err := validateKey(kind, name); err != nil {
		return err
	}
	return c.commit(ctx, wire.Mutation{Delete: convert.KeyToWire(convert.NewKey(c.projectID, kind, name))}, fields)
}

// Get fetches the record of type T stored under name.
func Get[T core.Record](ctx context.Context, c *Client, name string) (_ T, err error) {
	var zero T
	out, target, err := newRecord[T]()
	if err != nil {
		return zero, err
	}
	kind := out.KindKey()

	startedAt := time.Now()
	fields := c.operationFields(kind, name)
	defer func() { c.observeOperation(ctx, startedAt, opGet, err, fields) }()

	entity, err := c.lookupEntity(ctx, kind, name, fields)
	if err != nil {
		return zero, err
	}
	if err := convert.ToRecord(entity, target); err != nil {
		return zero, err
	}
	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		return out, nil
	}
	return *(target.(*T)), nil
}

// Delete removes the record of type T stored under name.
func Delete[T core.Record](ctx context.Context, c *Client, name string) error {
	out, _, err := newRecord[T]()
	if err != nil {
		return err
	}
	return c.DeleteKey(ctx, out.KindKey(), name)
}

// newRecord returns a usable T together with the pointer json decodes into.
func newRecord[T core.Record]() (T, any, error) {
	var out T
	recordType := reflect.TypeFor[T]()
	switch recordType.Kind() {
	case reflect.Interface:
		return out, nil, core.BadInputError("datastore: record type must be concrete")
	case reflect.Pointer:
		out = reflect.New(recordType.Elem()).Interface().(T)
		return out, out, nil
	default:
		return out, &out, nil
	}
}

func (c *Client) mutateRecord(ctx context.Context, operation string, record core.Record) (err error) {
	startedAt := time.Now()
	var kind, name string
	if record != nil && !isNilPointer(record) {
		kind, name = record.KindKey(), record.NameKey()
	}
	fields := c.operationFields(kind, name)
	defer func() { c.observeOperation(ctx, startedAt, operation, err, fields) }()

	if record == nil || isNilPointer(record) {
		return core.BadInputError("datastore: record is required")
	}
	if err := validateKey(kind, name); err != nil {
		return err
	}
	entity, err := convert.FromRecord(record)
	if err != nil {
		return err
	}
	entity.Key = convert.NewKey(c.projectID, kind, name)
	wireEntity := convert.EntityToWire(entity)

	var mutation wire.Mutation
	switch operation {
	case opInsert:
		mutation.Insert = wireEntity
	case opUpsert:
		mutation.Upsert = wireEntity
	case opUpdate:
		mutation.Update = wireEntity
	default:
		return core.InternalError("datastore: unknown mutation " + operation)
	}
	return c.commit(ctx, mutation, fields)
}

func (c *Client) commit(ctx context.Context, mutation wire.Mutation, fields map[string]any) error {
	var res wire.CommitResponse
	if err := c.call(ctx, wire.MethodCommit, wire.CommitRequest{
		Mode:      wire.ModeNonTransactional,
		Mutations: []wire.Mutation{mutation},
	}, &res, fields); err != nil {
		return err
	}
	if len(res.MutationResults) > 0 {
		fields["version"] = res.MutationResults[0].Version
	}
	return nil
}

func (c *Client) lookupEntity(ctx context.Context, kind string, name string, fields map[string]any) (*convert.Entity, error) {
	if err := validateKey(kind, name); err != nil {
		return nil, err
	}
	var res wire.LookupResponse
	if err := c.call(ctx, wire.MethodLookup, wire.LookupRequest{
		Keys: []wire.Key{*convert.KeyToWire(convert.NewKey(c.projectID, kind, name))},
	}, &res, fields); err != nil {
		return nil, err
	}
	if len(res.Found) == 0 {
		return nil, core.NoPayloadError(kind, name)
	}
	fields["version"] = res.Found[0].Version
	return convert.EntityFromWire(&res.Found[0].Entity)
}

// call issues one authenticated POST to the project method and decodes the
// response into out. There are no retries.
func (c *Client) call(ctx context.Context, method string, payload any, out any, fields map[string]any) error {
	requestID := c.requestID()
	fields["request_id"] = requestID
	metadata := map[string]any{
		"method":     method,
		"project_id": c.projectID,
		"request_id": requestID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapSerialization(err, "datastore: request body could not be encoded", metadata)
	}

	headers := map[string]string{}
	query := map[string]string{}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx, c.cfg.Scopes)
		if err != nil {
			return core.DatabaseResponseError(err, "datastore: token fetch failed", metadata)
		}
		authorization, err := core.BearerAuthorization(token)
		if err != nil {
			return core.DatabaseResponseError(err, "datastore: token could not sign request", metadata)
		}
		headers["Authorization"] = authorization
		if key := strings.TrimSpace(c.tokens.APIKey()); key != "" {
			query["key"] = key
		}
	}

	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method:   http.MethodPost,
		URL:      c.baseURL + wire.ProjectPath(c.projectID, method),
		Headers:  headers,
		Query:    query,
		Body:     body,
		Timeout:  c.cfg.RequestTimeout,
		Metadata: metadata,
	})
	if err != nil {
		return core.DatabaseResponseError(err, "datastore: "+method+" request failed", metadata)
	}
	if !transport.IsSuccess(res) {
		apiErr := wire.ParseAPIError(res.StatusCode, res.Body)
		metadata["status_code"] = res.StatusCode
		metadata["status"] = apiErr.Status
		return core.DatabaseResponseError(apiErr, "datastore: "+method+" rejected", metadata)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		metadata["stage"] = "response"
		return core.WrapDeserialization(err, "datastore: "+method+" response could not be decoded", metadata)
	}
	return nil
}

func (c *Client) operationFields(kind string, name string) map[string]any {
	return map[string]any{"kind": kind, "name": name}
}

func validateKey(kind string, name string) error {
	if strings.TrimSpace(kind) == "" {
		return core.BadInputError("datastore: entity kind is required")
	}
	if strings.TrimSpace(name) == "" {
		return core.BadInputError("datastore: entity name is required")
	}
	return nil
}

func isNilPointer(record core.Record) bool {
	value := reflect.ValueOf(record)
	return value.Kind() == reflect.Pointer && value.IsNil()
}
