package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/oauth2"
)

// Record is implemented by every type stored through the client.
//
// KindKey must not depend on receiver state: it is called on the zero value
// of the record type when looking records up by name.
type Record interface {
	KindKey() string
	NameKey() string
}

// TokenProvider produces bearer tokens for outbound store requests.
type TokenProvider interface {
	// APIKey returns a provider specific API key, empty when unused.
	APIKey() string
	Token(ctx context.Context, scopes []string) (*oauth2.Token, error)
}

// ProjectTokenProvider is a TokenProvider that also knows the project it
// was resolved for.
type ProjectTokenProvider interface {
	TokenProvider
	ProjectID() string
}

type TransportRequest struct {
	Method   string
	URL      string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration
	// MaxResponseBodyBytes overrides the adapter limit when positive.
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
