package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint        = "https://datastore.googleapis.com"
	ScopeCloudPlatform     = "https://www.googleapis.com/auth/cloud-platform"
	ScopeDatastore         = "https://www.googleapis.com/auth/datastore"
	DefaultCredentialsPath = ".config/gcloud-api-keys/dev.json"
	CredentialsEnvVar      = "GOOGLE_APPLICATION_CREDENTIALS"
	EmulatorHostEnvVar     = "DATASTORE_EMULATOR_HOST"
	MetadataHostEnvVar     = "GCE_METADATA_HOST"
	DefaultMetadataURL     = "http://metadata.google.internal/computeMetadata/v1/"
	defaultRequestTimeout  = 30 * time.Second
)

type AuthConfig struct {
	// CredentialsPath is relative to the user's home directory.
	CredentialsPath string `koanf:"credentials_path" mapstructure:"credentials_path"`
	CredentialsEnv  string `koanf:"credentials_env" mapstructure:"credentials_env"`
	MetadataURL     string `koanf:"metadata_url" mapstructure:"metadata_url"`
}

type Config struct {
	ServiceName    string        `koanf:"service_name" mapstructure:"service_name"`
	ProjectID      string        `koanf:"project_id" mapstructure:"project_id"`
	Endpoint       string        `koanf:"endpoint" mapstructure:"endpoint"`
	EmulatorHost   string        `koanf:"emulator_host" mapstructure:"emulator_host"`
	Scopes         []string      `koanf:"scopes" mapstructure:"scopes"`
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	Auth           AuthConfig    `koanf:"auth" mapstructure:"auth"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "datastore",
		Endpoint:       DefaultEndpoint,
		Scopes:         []string{ScopeCloudPlatform},
		RequestTimeout: defaultRequestTimeout,
		Auth: AuthConfig{
			CredentialsPath: DefaultCredentialsPath,
			CredentialsEnv:  CredentialsEnvVar,
			MetadataURL:     DefaultMetadataURL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.EmulatorHost) == "" {
		if _, err := parseAbsoluteURL(c.Endpoint); err != nil {
			return fmt.Errorf("core: endpoint is invalid: %w", err)
		}
	} else if strings.TrimSpace(c.ProjectID) == "" {
		return fmt.Errorf("core: project_id is required when emulator_host is set")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	if strings.TrimSpace(c.Auth.MetadataURL) != "" {
		if _, err := parseAbsoluteURL(c.Auth.MetadataURL); err != nil {
			return fmt.Errorf("core: auth.metadata_url is invalid: %w", err)
		}
	}
	return nil
}

// BaseURL returns the store endpoint, preferring the emulator host.
func (c Config) BaseURL() string {
	if host := strings.TrimSpace(c.EmulatorHost); host != "" {
		if strings.Contains(host, "://") {
			return strings.TrimRight(host, "/")
		}
		return "http://" + strings.TrimRight(host, "/")
	}
	return strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}
	return parsed, nil
}
