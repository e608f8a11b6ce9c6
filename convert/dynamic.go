package convert

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	jsonNumberType    = reflect.TypeFor[json.Number]()
)

// dynamicOf walks v with the field naming rules of encoding/json but keeps
// the Go number kind: float fields stay float64 even when whole-valued,
// signed integers become int64 and unsigned ones uint64.
func dynamicOf(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if v.Type() == jsonNumberType {
		return json.Number(v.String()), nil
	}
	if marshaler, ok := asInterface(v, jsonMarshalerType); ok {
		return dynamicFromJSON(marshaler)
	}
	if marshaler, ok := asInterface(v, textMarshalerType); ok {
		text, err := marshaler.(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return dynamicOf(v.Elem())
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32:
		// Shortest float32 text keeps 0.1 as 0.1 instead of its widened form.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(v.Float(), 'g', -1, 32), 64)
		return f, nil
	case reflect.Float64:
		return v.Float(), nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
		return dynamicElements(v)
	case reflect.Array:
		return dynamicElements(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Key().Kind() != reflect.String {
			if !v.CanInterface() {
				return nil, &json.UnsupportedTypeError{Type: v.Type()}
			}
			return dynamicFromJSON(v.Interface())
		}
		object := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			item, err := dynamicOf(iter.Value())
			if err != nil {
				return nil, err
			}
			object[iter.Key().String()] = item
		}
		return object, nil
	case reflect.Struct:
		object := map[string]any{}
		if err := dynamicFields(v, object); err != nil {
			return nil, err
		}
		return object, nil
	default:
		return nil, &json.UnsupportedTypeError{Type: v.Type()}
	}
}

func dynamicElements(v reflect.Value) ([]any, error) {
	items := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item, err := dynamicOf(v.Index(i))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// dynamicFields writes the exported fields of struct v into object.
// Embedded structs without a name are flattened; their fields never
// replace a field of the enclosing struct.
func dynamicFields(v reflect.Value, object map[string]any) error {
	t := v.Type()
	var embedded []reflect.Value
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		value := v.Field(i)
		if field.Anonymous && name == "" {
			inner := field.Type
			if inner.Kind() == reflect.Pointer {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				if value.Kind() == reflect.Pointer {
					if value.IsNil() {
						continue
					}
					value = value.Elem()
				}
				embedded = append(embedded, value)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if omitEmpty && isEmptyValue(value) {
			continue
		}
		item, err := dynamicOf(value)
		if err != nil {
			return err
		}
		object[name] = item
	}

	for _, value := range embedded {
		inner := map[string]any{}
		if err := dynamicFields(value, inner); err != nil {
			return err
		}
		for key, item := range inner {
			if _, exists := object[key]; !exists {
				object[key] = item
			}
		}
	}
	return nil
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, options, _ := strings.Cut(tag, ",")
	for _, option := range strings.Split(options, ",") {
		if option == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// asInterface reports v as an implementation of iface, taking the address
// when only the pointer receiver satisfies it.
func asInterface(v reflect.Value, iface reflect.Type) (any, bool) {
	if !v.CanInterface() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, false
	}
	if v.Type().Implements(iface) {
		if v.Kind() == reflect.Interface {
			return nil, false
		}
		return v.Interface(), true
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(iface) {
		return v.Addr().Interface(), true
	}
	return nil, false
}

// dynamicFromJSON renders a value that controls its own JSON form.
func dynamicFromJSON(v any) (any, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var dynamic any
	if err := decoder.Decode(&dynamic); err != nil {
		return nil, fmt.Errorf("convert: decode %T json: %w", v, err)
	}
	return dynamic, nil
}
