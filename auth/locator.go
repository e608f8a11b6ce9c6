package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-datastore/core"
)

// Credentials describes a located service-account key file.
type Credentials struct {
	FilePath  string
	ProjectID string
	JSON      []byte
}

// Locator finds the credentials file. The home-relative path is tried
// first, then the file named by the environment variable.
type Locator struct {
	RelativePath string
	EnvVar       string
	HomeDir      func() (string, error)
	LookupEnv    func(string) (string, bool)
	ReadFile     func(string) ([]byte, error)
	Logger       core.Logger
}

func NewLocator(cfg core.AuthConfig, logger core.Logger) Locator {
	return Locator{
		RelativePath: cfg.CredentialsPath,
		EnvVar:       cfg.CredentialsEnv,
		Logger:       logger,
	}
}

func (l Locator) withDefaults() Locator {
	if strings.TrimSpace(l.RelativePath) == "" {
		l.RelativePath = core.DefaultCredentialsPath
	}
	if strings.TrimSpace(l.EnvVar) == "" {
		l.EnvVar = core.CredentialsEnvVar
	}
	if l.HomeDir == nil {
		l.HomeDir = os.UserHomeDir
	}
	if l.LookupEnv == nil {
		l.LookupEnv = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}
	l.Logger = glog.Ensure(l.Logger)
	return l
}

func (l Locator) Locate() (Credentials, error) {
	l = l.withDefaults()

	var homeErr error
	if home, err := l.HomeDir(); err != nil {
		homeErr = fmt.Errorf("auth: resolve home directory: %w", err)
	} else {
		path := filepath.Join(home, l.RelativePath)
		creds, err := l.load(path)
		if err == nil {
			return creds, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			l.Logger.Warn("missing api keys at: ~/" + filepath.ToSlash(l.RelativePath))
		} else {
			l.Logger.Warn("ignoring credentials file", "path", path, "error", err.Error())
		}
		homeErr = err
	}

	envPath, ok := l.LookupEnv(l.EnvVar)
	envPath = strings.TrimSpace(envPath)
	if !ok || envPath == "" {
		return Credentials{}, fmt.Errorf("%w: %v; %s is not set", ErrCredentialsNotFound, homeErr, l.EnvVar)
	}
	creds, err := l.load(envPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v; %s: %v", ErrCredentialsNotFound, homeErr, l.EnvVar, err)
	}
	return creds, nil
}

func (l Locator) load(path string) (Credentials, error) {
	payload, err := l.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	if !gjson.ValidBytes(payload) {
		return Credentials{}, fmt.Errorf("auth: credentials file %s is not valid json", path)
	}
	projectID := gjson.GetBytes(payload, "project_id")
	if projectID.Type != gjson.String || strings.TrimSpace(projectID.String()) == "" {
		return Credentials{}, fmt.Errorf("auth: credentials file %s has no project_id", path)
	}
	return Credentials{
		FilePath:  path,
		ProjectID: strings.TrimSpace(projectID.String()),
		JSON:      payload,
	}, nil
}
