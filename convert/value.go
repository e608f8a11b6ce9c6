package convert

import "strings"

type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindString
	KindArray
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Value is a store value. Each instance holds exactly one variant; the zero
// Value is Null.
type Value struct {
	kind    Kind
	boolean bool
	integer string
	double  float64
	text    string
	array   []Value
	entity  *Entity
}

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// Integer wraps the decimal rendering of a 64-bit integer.
func Integer(decimal string) Value { return Value{kind: KindInteger, integer: decimal} }

func Double(f float64) Value { return Value{kind: KindDouble, double: f} }

func String(s string) Value { return Value{kind: KindString, text: s} }

func Array(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{kind: KindArray, array: values}
}

func EntityValue(entity *Entity) Value {
	if entity == nil {
		entity = &Entity{}
	}
	if entity.Properties == nil {
		entity.Properties = map[string]Value{}
	}
	return Value{kind: KindEntity, entity: entity}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Boolean() bool { return v.boolean }

func (v Value) IntegerText() string { return v.integer }

func (v Value) Double() float64 { return v.double }

func (v Value) Text() string { return v.text }

func (v Value) Elements() []Value { return v.array }

func (v Value) Entity() *Entity { return v.entity }

// Entity is an ordered-irrelevant set of named properties with an optional
// key. Nested entities carry no key.
type Entity struct {
	Key        *Key
	Properties map[string]Value
}

type PathElement struct {
	Kind string
	Name string
	ID   string
}

// Key identifies an entity within a project. Keys built by this package
// always use names.
type Key struct {
	ProjectID string
	Path      []PathElement
}

func NewKey(projectID string, kind string, name string) *Key {
	return &Key{
		ProjectID: strings.TrimSpace(projectID),
		Path:      []PathElement{{Kind: kind, Name: name}},
	}
}

func (k *Key) leaf() PathElement {
	if k == nil || len(k.Path) == 0 {
		return PathElement{}
	}
	return k.Path[len(k.Path)-1]
}

func (k *Key) Kind() string { return k.leaf().Kind }

func (k *Key) Name() string { return k.leaf().Name }
