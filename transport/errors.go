package transport

import (
	"net/http"

	"github.com/goliatone/go-datastore/core"
	goerrors "github.com/goliatone/go-errors"
)

// requestError reports a request the adapter could not build.
func requestError(source error, message string, metadata map[string]any) error {
	return newError(source, message, goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadInput, metadata)
}

// upstreamError reports a failed round trip or an unreadable response.
func upstreamError(source error, message string, metadata map[string]any) error {
	return newError(source, message, goerrors.CategoryExternal, http.StatusBadGateway, core.ErrorTransport, metadata)
}

// unconfiguredError reports an adapter without an http client.
func unconfiguredError(message string, metadata map[string]any) error {
	return newError(nil, message, goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, metadata)
}

func newError(
	source error,
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	err.Source = source
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
