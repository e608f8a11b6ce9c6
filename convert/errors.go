package convert

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-datastore/core"
)

var (
	ErrUnsupportedVariant = errors.New("convert: unsupported wire value variant")
	ErrMultipleVariants   = errors.New("convert: wire value has more than one variant")
	ErrUnsupportedType    = errors.New("convert: unsupported dynamic value type")
	ErrIntegerRange       = errors.New("convert: integer outside 64-bit range")
)

func childPath(parent string, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, index int) string {
	return fmt.Sprintf("%s[%d]", parent, index)
}

func pathMetadata(path string, extra map[string]any) map[string]any {
	metadata := map[string]any{"path": path}
	if path == "" {
		metadata["path"] = "$"
	}
	for key, value := range extra {
		metadata[key] = value
	}
	return metadata
}

func serializationFailure(source error, path string, message string, extra map[string]any) error {
	return core.WrapSerialization(source, message, pathMetadata(path, extra))
}

func deserializationFailure(source error, path string, message string, extra map[string]any) error {
	return core.WrapDeserialization(source, message, pathMetadata(path, extra))
}
