package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// ServiceAccountProvider mints tokens from a service-account key file. It
// keeps one token source per scope set and is not safe for concurrent use
// on its own; the Auth facade serializes access.
type ServiceAccountProvider struct {
	projectID string
	filePath  string
	config    *jwt.Config
	baseCtx   context.Context
	sources   map[string]oauth2.TokenSource
}

func NewServiceAccountProvider(ctx context.Context, creds Credentials, httpClient *http.Client) (*ServiceAccountProvider, error) {
	if len(creds.JSON) == 0 {
		return nil, fmt.Errorf("auth: service account key %s is empty", creds.FilePath)
	}
	config, err := google.JWTConfigFromJSON(creds.JSON)
	if err != nil {
		return nil, fmt.Errorf("auth: parse service account key %s: %w", creds.FilePath, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx := context.WithoutCancel(ctx)
	if httpClient != nil {
		baseCtx = context.WithValue(baseCtx, oauth2.HTTPClient, httpClient)
	}
	return &ServiceAccountProvider{
		projectID: creds.ProjectID,
		filePath:  creds.FilePath,
		config:    config,
		baseCtx:   baseCtx,
		sources:   map[string]oauth2.TokenSource{},
	}, nil
}

func (*ServiceAccountProvider) Name() string { return ProviderServiceAccount }

func (*ServiceAccountProvider) APIKey() string { return "" }

func (p *ServiceAccountProvider) ProjectID() string { return p.projectID }

func (*ServiceAccountProvider) SharesState() bool { return true }

// Token returns a cached or freshly minted token for scopes. The token
// source outlives ctx, so cancellation only applies before the fetch.
func (p *ServiceAccountProvider) Token(ctx context.Context, scopes []string) (*oauth2.Token, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	key := scopeKey(scopes)
	source, ok := p.sources[key]
	if !ok {
		config := *p.config
		config.Scopes = normalizeScopes(scopes)
		source = config.TokenSource(p.baseCtx)
		p.sources[key] = source
	}
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: service account token: %w", err)
	}
	return token, nil
}
