package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/goliatone/go-datastore/core"
	"github.com/goliatone/go-datastore/transport"
)

const (
	metadataFlavorHeader = "Metadata-Flavor"
	metadataFlavor       = "Google"
	metadataProjectPath  = "project/project-id"
	metadataTokenPath    = "instance/service-accounts/default/token"
)

type MetadataConfig struct {
	BaseURL   string
	Transport core.TransportAdapter
	Timeout   time.Duration
}

// MetadataProvider reads the project id and one cloud-platform token from
// the instance metadata server at construction. The token is never
// refreshed.
type MetadataProvider struct {
	projectID string
	token     *oauth2.Token
}

func NewMetadataProvider(ctx context.Context, cfg MetadataConfig) (*MetadataProvider, error) {
	baseURL := firstNonEmpty(cfg.BaseURL, core.DefaultMetadataURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}

	projectBody, err := metadataGet(ctx, adapter, baseURL+metadataProjectPath, nil, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	projectID := strings.TrimSpace(string(projectBody))
	if projectID == "" {
		return nil, fmt.Errorf("auth: metadata server returned an empty project id")
	}

	tokenBody, err := metadataGet(ctx, adapter, baseURL+metadataTokenPath, map[string]string{
		"scopes": core.ScopeCloudPlatform,
	}, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	accessToken := gjson.GetBytes(tokenBody, "access_token").String()
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("auth: metadata token response has no access_token")
	}
	return &MetadataProvider{
		projectID: projectID,
		token: &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		},
	}, nil
}

func metadataGet(
	ctx context.Context,
	adapter core.TransportAdapter,
	url string,
	query map[string]string,
	timeout time.Duration,
) ([]byte, error) {
	res, err := adapter.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     url,
		Query:   query,
		Headers: map[string]string{metadataFlavorHeader: metadataFlavor},
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: metadata request %s: %w", url, err)
	}
	if !transport.IsSuccess(res) {
		return nil, fmt.Errorf("auth: metadata request %s returned status %d", url, res.StatusCode)
	}
	return res.Body, nil
}

func (*MetadataProvider) Name() string { return ProviderMetadata }

func (*MetadataProvider) APIKey() string { return "" }

func (p *MetadataProvider) ProjectID() string { return p.projectID }

// Token returns the construction-time token for any scopes.
func (p *MetadataProvider) Token(context.Context, []string) (*oauth2.Token, error) {
	token := *p.token
	return &token, nil
}
