package convert

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-datastore/wire"
)

var unsupportedVariants = map[string]struct{}{
	"timestampValue":     {},
	"geoPointValue":      {},
	"blobValue":          {},
	"keyValue":           {},
	"meaning":            {},
	"excludeFromIndexes": {},
}

func ToWire(v Value) wire.Value {
	switch v.kind {
	case KindBoolean:
		b := v.boolean
		return wire.Value{BooleanValue: &b}
	case KindInteger:
		s := v.integer
		return wire.Value{IntegerValue: &s}
	case KindDouble:
		f := v.double
		return wire.Value{DoubleValue: &f}
	case KindString:
		s := v.text
		return wire.Value{StringValue: &s}
	case KindArray:
		values := make([]wire.Value, 0, len(v.array))
		for _, element := range v.array {
			values = append(values, ToWire(element))
		}
		return wire.Value{ArrayValue: &wire.ArrayValue{Values: values}}
	case KindEntity:
		return wire.Value{EntityValue: EntityToWire(v.entity)}
	default:
		null := wire.NullValue
		return wire.Value{NullValue: &null}
	}
}

// FromWire validates a wire value and converts it. A value with no
// populated field is Null.
func FromWire(w wire.Value) (Value, error) {
	return fromWireAt("", w)
}

func fromWireAt(path string, w wire.Value) (Value, error) {
	fields := w.PopulatedFields()
	for _, field := range fields {
		if _, unsupported := unsupportedVariants[field]; unsupported {
			return Value{}, deserializationFailure(
				ErrUnsupportedVariant,
				path,
				"datastore: unsupported value variant "+field,
				map[string]any{"variant": field},
			)
		}
	}
	if len(fields) > 1 {
		return Value{}, deserializationFailure(
			ErrMultipleVariants,
			path,
			"datastore: value carries multiple variants",
			map[string]any{"variants": strings.Join(fields, ",")},
		)
	}

	switch {
	case w.BooleanValue != nil:
		return Bool(*w.BooleanValue), nil
	case w.IntegerValue != nil:
		decimal := strings.TrimSpace(*w.IntegerValue)
		if _, err := decodeInteger(path, decimal); err != nil {
			return Value{}, err
		}
		return Integer(decimal), nil
	case w.DoubleValue != nil:
		return Double(*w.DoubleValue), nil
	case w.StringValue != nil:
		return String(*w.StringValue), nil
	case w.ArrayValue != nil:
		values := make([]Value, 0, len(w.ArrayValue.Values))
		for i, element := range w.ArrayValue.Values {
			value, err := fromWireAt(indexPath(path, i), element)
			if err != nil {
				return Value{}, err
			}
			values = append(values, value)
		}
		return Array(values...), nil
	case w.EntityValue != nil:
		entity, err := entityFromWireAt(path, w.EntityValue)
		if err != nil {
			return Value{}, err
		}
		return EntityValue(entity), nil
	default:
		return Null(), nil
	}
}

func EntityToWire(entity *Entity) *wire.Entity {
	if entity == nil {
		return &wire.Entity{Properties: map[string]wire.Value{}}
	}
	properties := make(map[string]wire.Value, len(entity.Properties))
	for name, value := range entity.Properties {
		properties[name] = ToWire(value)
	}
	return &wire.Entity{
		Key:        KeyToWire(entity.Key),
		Properties: properties,
	}
}

func EntityFromWire(entity *wire.Entity) (*Entity, error) {
	return entityFromWireAt("", entity)
}

func entityFromWireAt(path string, entity *wire.Entity) (*Entity, error) {
	if entity == nil {
		return &Entity{Properties: map[string]Value{}}, nil
	}
	key, err := KeyFromWire(entity.Key)
	if err != nil {
		return nil, err
	}
	properties := make(map[string]Value, len(entity.Properties))
	for _, name := range sortedKeys(entity.Properties) {
		value, err := fromWireAt(childPath(path, name), entity.Properties[name])
		if err != nil {
			return nil, err
		}
		properties[name] = value
	}
	return &Entity{Key: key, Properties: properties}, nil
}

func KeyToWire(key *Key) *wire.Key {
	if key == nil {
		return nil
	}
	out := &wire.Key{Path: make([]wire.PathElement, 0, len(key.Path))}
	if key.ProjectID != "" {
		out.PartitionID = &wire.PartitionID{ProjectID: key.ProjectID}
	}
	for _, element := range key.Path {
		out.Path = append(out.Path, wire.PathElement{Kind: element.Kind, Name: element.Name, ID: element.ID})
	}
	return out
}

// KeyFromWire requires every path element to carry a kind and either a
// name or a numeric id.
func KeyFromWire(key *wire.Key) (*Key, error) {
	if key == nil {
		return nil, nil
	}
	out := &Key{Path: make([]PathElement, 0, len(key.Path))}
	if key.PartitionID != nil {
		out.ProjectID = key.PartitionID.ProjectID
	}
	for i, element := range key.Path {
		path := indexPath("key.path", i)
		if strings.TrimSpace(element.Kind) == "" {
			return nil, deserializationFailure(nil, path, "datastore: key path element requires a kind", nil)
		}
		if element.ID != "" {
			if _, err := strconv.ParseInt(element.ID, 10, 64); err != nil {
				return nil, deserializationFailure(err, path, "datastore: key path element has invalid id", map[string]any{"id": element.ID})
			}
		}
		out.Path = append(out.Path, PathElement{Kind: element.Kind, Name: element.Name, ID: element.ID})
	}
	return out, nil
}
