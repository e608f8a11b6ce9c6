package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encode converts a dynamic value into a store Value. Arrays and objects
// succeed only when every element does; the error of the first failing
// element (objects are visited in key order) is returned.
func Encode(v any) (Value, error) {
	return encodeAt("", v)
}

func encodeAt(path string, v any) (Value, error) {
	switch typed := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		return encodeNumber(path, typed.String())
	case float64:
		return encodeFloat(path, typed)
	case float32:
		return encodeFloat(path, float64(typed))
	case int:
		return Integer(strconv.FormatInt(int64(typed), 10)), nil
	case int8:
		return Integer(strconv.FormatInt(int64(typed), 10)), nil
	case int16:
		return Integer(strconv.FormatInt(int64(typed), 10)), nil
	case int32:
		return Integer(strconv.FormatInt(int64(typed), 10)), nil
	case int64:
		return Integer(strconv.FormatInt(typed, 10)), nil
	case uint:
		return Integer(strconv.FormatUint(uint64(typed), 10)), nil
	case uint8:
		return Integer(strconv.FormatUint(uint64(typed), 10)), nil
	case uint16:
		return Integer(strconv.FormatUint(uint64(typed), 10)), nil
	case uint32:
		return Integer(strconv.FormatUint(uint64(typed), 10)), nil
	case uint64:
		return Integer(strconv.FormatUint(typed, 10)), nil
	case []any:
		return encodeArray(path, typed)
	case map[string]any:
		entity, err := encodeProperties(path, typed)
		if err != nil {
			return Value{}, err
		}
		return EntityValue(entity), nil
	case Value:
		return typed, nil
	default:
		return Value{}, serializationFailure(
			ErrUnsupportedType,
			path,
			"datastore: cannot encode value",
			map[string]any{"type": fmt.Sprintf("%T", v)},
		)
	}
}

func encodeFloat(path string, f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, serializationFailure(nil, path, "datastore: non-finite number", map[string]any{"value": f})
	}
	return Double(f), nil
}

// encodeNumber tags literals with a fraction or exponent as doubles and
// everything else as integers, trying the signed range first.
func encodeNumber(path string, literal string) (Value, error) {
	literal = strings.TrimSpace(literal)
	if strings.ContainsAny(literal, ".eE") {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return Value{}, serializationFailure(err, path, "datastore: malformed number", map[string]any{"value": literal})
		}
		return encodeFloat(path, f)
	}
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return Integer(strconv.FormatInt(n, 10)), nil
	}
	if n, err := strconv.ParseUint(literal, 10, 64); err == nil {
		return Integer(strconv.FormatUint(n, 10)), nil
	}
	return Value{}, serializationFailure(ErrIntegerRange, path, "datastore: number cannot be represented", map[string]any{"value": literal})
}

func encodeArray(path string, items []any) (Value, error) {
	values := make([]Value, 0, len(items))
	for i, item := range items {
		value, err := encodeAt(indexPath(path, i), item)
		if err != nil {
			return Value{}, err
		}
		values = append(values, value)
	}
	return Array(values...), nil
}

func encodeProperties(path string, object map[string]any) (*Entity, error) {
	properties := make(map[string]Value, len(object))
	for _, key := range sortedKeys(object) {
		value, err := encodeAt(childPath(path, key), object[key])
		if err != nil {
			return nil, err
		}
		properties[key] = value
	}
	return &Entity{Properties: properties}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
