package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-datastore/core"
)

type recordingLogger struct {
	mu       *sync.Mutex
	messages *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (l recordingLogger) record(level string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = append(*l.messages, level+":"+msg)
}

func (l recordingLogger) Trace(msg string, _ ...any) { l.record("trace", msg) }
func (l recordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }
func (l recordingLogger) Fatal(msg string, _ ...any) { l.record("fatal", msg) }
func (l recordingLogger) WithContext(context.Context) core.Logger {
	return l
}

func (l recordingLogger) contains(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, message := range *l.messages {
		if message == entry {
			return true
		}
	}
	return false
}

func generateTestRSAPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	encoded, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		t.Fatalf("marshal rsa key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: encoded}))
}

func serviceAccountJSON(t *testing.T, projectID string, tokenURL string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type":           "service_account",
		"project_id":     projectID,
		"private_key_id": "kid-1",
		"private_key":    generateTestRSAPrivateKeyPEM(t),
		"client_email":   "svc@" + projectID + ".iam.gserviceaccount.com",
		"client_id":      "1234",
		"token_uri":      tokenURL,
	})
	if err != nil {
		t.Fatalf("marshal service account json: %v", err)
	}
	return payload
}

func writeFile(t *testing.T, path string, payload []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func homeLocator(home string, env map[string]string, logger core.Logger) Locator {
	return Locator{
		HomeDir: func() (string, error) { return home, nil },
		LookupEnv: func(key string) (string, bool) {
			value, ok := env[key]
			return value, ok
		},
		Logger: logger,
	}
}

type tokenServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.hits.Add(1)
		if handler != nil {
			handler(w, r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"sa-token-%d","token_type":"Bearer","expires_in":3600}`, n)
	}))
	t.Cleanup(ts.Close)
	return ts
}

type metadataServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newMetadataServer(t *testing.T, projectID string) *metadataServer {
	t.Helper()
	ms := &metadataServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.hits.Add(1)
		if r.Header.Get("Metadata-Flavor") != "Google" {
			http.Error(w, "missing flavor", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/computeMetadata/v1/project/project-id":
			_, _ = w.Write([]byte(projectID))
		case "/computeMetadata/v1/instance/service-accounts/default/token":
			if r.URL.Query().Get("scopes") != core.ScopeCloudPlatform {
				http.Error(w, "bad scopes", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"metadata-token","expires_in":3599,"token_type":"Bearer"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *metadataServer) baseURL() string {
	return ms.URL + "/computeMetadata/v1/"
}
