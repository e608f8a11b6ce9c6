package auth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-datastore/core"
)

const (
	ProviderServiceAccount = "service_account"
	ProviderMetadata       = "metadata"
)

// Provider is one credential source in the chain.
type Provider interface {
	core.ProjectTokenProvider
	Name() string
}

// SharedStateReporter is implemented by providers that mutate internal
// state while fetching tokens. The facade guards those providers.
type SharedStateReporter interface {
	SharesState() bool
}

// BuildEnv carries the dependencies a ProviderFactory may use.
type BuildEnv struct {
	Config     core.Config
	Locator    Locator
	Transport  core.TransportAdapter
	HTTPClient *http.Client
	Logger     core.Logger
}

type ProviderFactory struct {
	Name  string
	Build func(ctx context.Context, env BuildEnv) (Provider, error)
}

func ServiceAccountFactory() ProviderFactory {
	return ProviderFactory{
		Name: ProviderServiceAccount,
		Build: func(ctx context.Context, env BuildEnv) (Provider, error) {
			creds, err := env.Locator.Locate()
			if err != nil {
				return nil, err
			}
			return NewServiceAccountProvider(ctx, creds, env.HTTPClient)
		},
	}
}

func MetadataFactory() ProviderFactory {
	return ProviderFactory{
		Name: ProviderMetadata,
		Build: func(ctx context.Context, env BuildEnv) (Provider, error) {
			return NewMetadataProvider(ctx, MetadataConfig{
				BaseURL:   env.Config.Auth.MetadataURL,
				Transport: env.Transport,
				Timeout:   env.Config.RequestTimeout,
			})
		},
	}
}

// DefaultFactories is the standard chain: key file, then metadata server.
func DefaultFactories() []ProviderFactory {
	return []ProviderFactory{ServiceAccountFactory(), MetadataFactory()}
}
