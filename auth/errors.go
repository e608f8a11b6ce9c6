package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-datastore/core"
)

var (
	ErrTokenFetchInProgress = errors.New("auth: token fetch already in progress")
	ErrCredentialsNotFound  = errors.New("auth: no credentials file found")
)

// ProviderAttempt records why one provider in the chain could not be built.
type ProviderAttempt struct {
	Provider string
	Err      error
}

// ChainError lists every failed provider attempt in chain order.
type ChainError struct {
	Attempts []ProviderAttempt
}

func (e *ChainError) Error() string {
	if e == nil || len(e.Attempts) == 0 {
		return "auth: no credential providers configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", attempt.Provider, attempt.Err))
	}
	return "auth: all credential providers failed (" + strings.Join(parts, "; ") + ")"
}

func (e *ChainError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		if attempt.Err != nil {
			errs = append(errs, attempt.Err)
		}
	}
	return errs
}

func authUnavailableError(chain *ChainError) error {
	providers := make([]string, 0, len(chain.Attempts))
	for _, attempt := range chain.Attempts {
		providers = append(providers, attempt.Provider)
	}
	err := goerrors.New("datastore: no credential provider available", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorAuthUnavailable).
		WithMetadata(map[string]any{"providers": providers})
	err.Source = chain
	return err
}

func tokenBusyError(provider string) error {
	err := goerrors.New("datastore: token fetch already in progress", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(core.ErrorTokenBusy).
		WithMetadata(map[string]any{"provider": provider})
	err.Source = ErrTokenFetchInProgress
	return err
}

func tokenFetchError(source error, provider string, scopes []string) error {
	err := goerrors.New("datastore: token fetch failed", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorTokenFetch).
		WithMetadata(map[string]any{"provider": provider, "scopes": strings.Join(scopes, " ")})
	err.Source = source
	return err
}

var (
	errMissingBuild = errors.New("auth: provider factory has no build function")
	errNilProvider  = errors.New("auth: provider factory returned no provider")
	errEmptyToken   = errors.New("auth: provider returned an empty token")
)
