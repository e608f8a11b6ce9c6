package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorSerialization    = "DATASTORE_SERIALIZATION"
	ErrorDeserialization  = "DATASTORE_DESERIALIZATION"
	ErrorDatabaseResponse = "DATASTORE_DATABASE_RESPONSE"
	ErrorNoPayload        = "DATASTORE_NO_PAYLOAD"
	ErrorAuthUnavailable  = "DATASTORE_AUTH_UNAVAILABLE"
	ErrorTokenBusy        = "DATASTORE_TOKEN_BUSY"
	ErrorTokenFetch       = "DATASTORE_TOKEN_FETCH"
	ErrorTransport        = "DATASTORE_TRANSPORT"
	ErrorBadInput         = "DATASTORE_BAD_INPUT"
	ErrorInternal         = "DATASTORE_INTERNAL_ERROR"
)

// SerializationError reports a record that could not be encoded.
func SerializationError(message string, metadata map[string]any) *goerrors.Error {
	return kindError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorSerialization, metadata)
}

func WrapSerialization(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapKindError(source, message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorSerialization, metadata)
}

// DeserializationError reports a remote payload that could not be decoded
// into the requested type.
func DeserializationError(message string, metadata map[string]any) *goerrors.Error {
	return kindError(message, goerrors.CategoryValidation, http.StatusUnprocessableEntity, ErrorDeserialization, metadata)
}

func WrapDeserialization(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapKindError(source, message, goerrors.CategoryValidation, http.StatusUnprocessableEntity, ErrorDeserialization, metadata)
}

// DatabaseResponseError wraps a transport or remote store failure.
func DatabaseResponseError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapKindError(source, message, goerrors.CategoryExternal, http.StatusBadGateway, ErrorDatabaseResponse, metadata)
}

// NoPayloadError reports a lookup that succeeded without matching entities.
func NoPayloadError(kind string, name string) *goerrors.Error {
	return kindError(
		"datastore: lookup returned no entity",
		goerrors.CategoryNotFound,
		http.StatusNotFound,
		ErrorNoPayload,
		map[string]any{"kind": kind, "name": name},
	)
}

func BadInputError(message string) *goerrors.Error {
	return kindError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorBadInput, nil)
}

func InternalError(message string) *goerrors.Error {
	return kindError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorInternal, nil)
}

// IsErrorKind reports whether err carries the given text code anywhere in
// its chain.
func IsErrorKind(err error, textCode string) bool {
	for err != nil {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			return false
		}
		if strings.EqualFold(strings.TrimSpace(rich.TextCode), textCode) {
			return true
		}
		err = rich.Source
	}
	return false
}

func IsSerialization(err error) bool { return IsErrorKind(err, ErrorSerialization) }

func IsDeserialization(err error) bool { return IsErrorKind(err, ErrorDeserialization) }

func IsDatabaseResponse(err error) bool { return IsErrorKind(err, ErrorDatabaseResponse) }

func IsNoPayload(err error) bool { return IsErrorKind(err, ErrorNoPayload) }

func kindError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapKindError(
	source error,
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := kindError(message, category, code, textCode, metadata)
	// Source stays in the chain so inner kinds remain visible to IsErrorKind.
	err.Source = source
	return err
}
