package convert

import (
	"fmt"
	"strconv"
)

// Decode converts a store Value back into a dynamic value. Integers decode
// as uint64 when non-negative and int64 otherwise; doubles as float64.
func Decode(v Value) (any, error) {
	return decodeAt("", v)
}

func decodeAt(path string, v Value) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBoolean:
		return v.boolean, nil
	case KindString:
		return v.text, nil
	case KindDouble:
		return v.double, nil
	case KindInteger:
		return decodeInteger(path, v.integer)
	case KindArray:
		items := make([]any, 0, len(v.array))
		for i, element := range v.array {
			item, err := decodeAt(indexPath(path, i), element)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case KindEntity:
		return decodeProperties(path, v.entity)
	default:
		return nil, deserializationFailure(nil, path, "datastore: unknown value kind", map[string]any{"kind": fmt.Sprint(v.kind)})
	}
}

func decodeInteger(path string, decimal string) (any, error) {
	if n, err := strconv.ParseUint(decimal, 10, 64); err == nil {
		return n, nil
	}
	if n, err := strconv.ParseInt(decimal, 10, 64); err == nil {
		return n, nil
	}
	return nil, deserializationFailure(ErrIntegerRange, path, "datastore: invalid integer value", map[string]any{"value": decimal})
}

func decodeProperties(path string, entity *Entity) (map[string]any, error) {
	object := map[string]any{}
	if entity == nil {
		return object, nil
	}
	for _, key := range sortedKeys(entity.Properties) {
		item, err := decodeAt(childPath(path, key), entity.Properties[key])
		if err != nil {
			return nil, err
		}
		object[key] = item
	}
	return object, nil
}
