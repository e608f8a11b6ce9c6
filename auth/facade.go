package auth

import (
	"context"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-datastore/core"
	"github.com/goliatone/go-datastore/transport"
)

// Auth is the credential facade used by the client. The active provider is
// chosen once at construction.
type Auth struct {
	provider Provider
	scopes   []string
	logger   core.Logger
	// guard is set when the provider reports shared mutable state.
	guard *semaphore.Weighted
}

type Option func(*options)

type options struct {
	config     core.Config
	locator    *Locator
	factories  []ProviderFactory
	transport  core.TransportAdapter
	httpClient *http.Client
	logger     core.Logger
}

func WithConfig(cfg core.Config) Option {
	return func(o *options) { o.config = cfg }
}

func WithLocator(locator Locator) Option {
	return func(o *options) { o.locator = &locator }
}

// WithProviderFactories replaces the default chain.
func WithProviderFactories(factories ...ProviderFactory) Option {
	return func(o *options) { o.factories = append([]ProviderFactory(nil), factories...) }
}

func WithTransport(adapter core.TransportAdapter) Option {
	return func(o *options) { o.transport = adapter }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New walks the provider chain in order and keeps the first provider that
// builds. When none does the error wraps a *ChainError.
func New(ctx context.Context, opts ...Option) (*Auth, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := options{config: core.DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := glog.Ensure(o.logger)
	if o.factories == nil {
		o.factories = DefaultFactories()
	}
	if o.transport == nil {
		var doer transport.HTTPDoer
		if o.httpClient != nil {
			doer = o.httpClient
		}
		o.transport = transport.NewRESTAdapter(doer)
	}
	locator := NewLocator(o.config.Auth, logger)
	if o.locator != nil {
		locator = *o.locator
		if locator.Logger == nil {
			locator.Logger = logger
		}
	}
	env := BuildEnv{
		Config:     o.config,
		Locator:    locator,
		Transport:  o.transport,
		HTTPClient: o.httpClient,
		Logger:     logger,
	}

	chain := &ChainError{}
	for _, factory := range o.factories {
		name := firstNonEmpty(factory.Name, "unnamed")
		if factory.Build == nil {
			chain.Attempts = append(chain.Attempts, ProviderAttempt{Provider: name, Err: errMissingBuild})
			continue
		}
		provider, err := factory.Build(ctx, env)
		if err == nil && provider == nil {
			err = errNilProvider
		}
		if err != nil {
			logger.Info("credential provider unavailable", "provider", name, "error", err.Error())
			chain.Attempts = append(chain.Attempts, ProviderAttempt{Provider: name, Err: err})
			continue
		}
		logger.Info("credential provider selected", "provider", name, "project_id", provider.ProjectID())
		return newAuth(provider, o.config.Scopes, logger), nil
	}
	return nil, authUnavailableError(chain)
}

// FromProvider wraps an already built provider in the facade.
func FromProvider(provider Provider, scopes []string, logger core.Logger) *Auth {
	return newAuth(provider, scopes, glog.Ensure(logger))
}

func newAuth(provider Provider, scopes []string, logger core.Logger) *Auth {
	a := &Auth{
		provider: provider,
		scopes:   normalizeScopes(scopes),
		logger:   logger,
	}
	if reporter, ok := provider.(SharedStateReporter); ok && reporter.SharesState() {
		a.guard = semaphore.NewWeighted(1)
	}
	return a
}

func (a *Auth) Provider() string { return a.provider.Name() }

func (a *Auth) ProjectID() string { return a.provider.ProjectID() }

func (a *Auth) APIKey() string { return a.provider.APIKey() }

// Token fetches a token for scopes, or the configured scopes when none are
// given. A concurrent fetch on a guarded provider fails immediately with
// ErrTokenFetchInProgress.
func (a *Auth) Token(ctx context.Context, scopes []string) (*oauth2.Token, error) {
	if len(scopes) == 0 {
		scopes = a.scopes
	}
	scopes = normalizeScopes(scopes)
	if a.guard != nil {
		if !a.guard.TryAcquire(1) {
			return nil, tokenBusyError(a.provider.Name())
		}
		defer a.guard.Release(1)
	}
	token, err := a.provider.Token(ctx, cloneScopes(scopes))
	if err != nil {
		return nil, tokenFetchError(err, a.provider.Name(), scopes)
	}
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil, tokenFetchError(errEmptyToken, a.provider.Name(), scopes)
	}
	return token, nil
}

var _ core.ProjectTokenProvider = (*Auth)(nil)
