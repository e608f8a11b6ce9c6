package datastore

import (
	"net/http"

	"github.com/goliatone/go-datastore/auth"
	"github.com/goliatone/go-datastore/core"
)

type Option func(*clientBuilder)

type clientBuilder struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	transport       core.TransportAdapter
	httpClient      *http.Client
	tokenProvider   core.TokenProvider
	authOptions     []auth.Option
	requestID       func() string
}

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

// WithTransport replaces the REST adapter used for store requests.
func WithTransport(adapter core.TransportAdapter) Option {
	return func(b *clientBuilder) {
		b.transport = adapter
	}
}

// WithHTTPClient sets the client used by the default transport and by the
// credential providers.
func WithHTTPClient(client *http.Client) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

// WithTokenProvider skips the auth chain and signs requests with provider.
func WithTokenProvider(provider core.TokenProvider) Option {
	return func(b *clientBuilder) {
		b.tokenProvider = provider
	}
}

// WithAuthOptions forwards options to the auth facade built by NewClient.
func WithAuthOptions(opts ...auth.Option) Option {
	return func(b *clientBuilder) {
		b.authOptions = append(b.authOptions, opts...)
	}
}

func WithRequestIDGenerator(generate func() string) Option {
	return func(b *clientBuilder) {
		b.requestID = generate
	}
}
