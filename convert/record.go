package convert

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/goliatone/go-datastore/core"
)

const (
	stageConvert   = "convert"
	stageUnmarshal = "unmarshal"
)

// ToDynamic renders v as a dynamic value using its JSON field names. Go
// float kinds stay float64 so whole-valued floats keep the double tag.
func ToDynamic(v any) (any, error) {
	dynamic, err := dynamicOf(reflect.ValueOf(v))
	if err != nil {
		return nil, core.WrapSerialization(err, "datastore: record is not serializable", map[string]any{"type": fmt.Sprintf("%T", v)})
	}
	return dynamic, nil
}

// FromRecord encodes a struct or map into an entity without a key.
func FromRecord(v any) (*Entity, error) {
	dynamic, err := ToDynamic(v)
	if err != nil {
		return nil, err
	}
	object, ok := dynamic.(map[string]any)
	if !ok {
		return nil, core.SerializationError("expecting struct/map like input", map[string]any{"type": fmt.Sprintf("%T", v)})
	}
	return encodeProperties("", object)
}

// ToRecord decodes entity properties into target, a pointer. Failures
// report stage=convert when the store value is malformed and
// stage=unmarshal when the shape does not fit target.
func ToRecord(entity *Entity, target any) error {
	object, err := decodeProperties("", entity)
	if err != nil {
		return core.WrapDeserialization(err, "datastore: entity could not be decoded", map[string]any{"stage": stageConvert})
	}
	payload, err := json.Marshal(object)
	if err != nil {
		return core.WrapDeserialization(err, "datastore: entity could not be decoded", map[string]any{"stage": stageConvert})
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return core.WrapDeserialization(err, "datastore: entity does not match record type", map[string]any{
			"stage":  stageUnmarshal,
			"target": fmt.Sprintf("%T", target),
		})
	}
	return nil
}
