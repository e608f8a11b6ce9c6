package wire

import "encoding/json"

const NullValue = "NULL_VALUE"

// Value is the wire rendering of a store value. At most one field may be
// populated on a well formed value.
type Value struct {
	NullValue      *string     `json:"nullValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	EntityValue    *Entity     `json:"entityValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"`
	GeoPointValue  *LatLng     `json:"geoPointValue,omitempty"`
	BlobValue      *string     `json:"blobValue,omitempty"`
	KeyValue       *Key        `json:"keyValue,omitempty"`

	Meaning            *int32 `json:"meaning,omitempty"`
	ExcludeFromIndexes *bool  `json:"excludeFromIndexes,omitempty"`
}

type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Entity struct {
	Key        *Key             `json:"key,omitempty"`
	Properties map[string]Value `json:"properties,omitempty"`
}

type PartitionID struct {
	ProjectID   string `json:"projectId,omitempty"`
	NamespaceID string `json:"namespaceId,omitempty"`
}

type PathElement struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

type Key struct {
	PartitionID *PartitionID  `json:"partitionId,omitempty"`
	Path        []PathElement `json:"path"`
}

// PopulatedFields lists the JSON names of every populated field, variant
// fields first, in declaration order.
func (v Value) PopulatedFields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(v.NullValue != nil, "nullValue")
	add(v.BooleanValue != nil, "booleanValue")
	add(v.IntegerValue != nil, "integerValue")
	add(v.DoubleValue != nil, "doubleValue")
	add(v.StringValue != nil, "stringValue")
	add(v.ArrayValue != nil, "arrayValue")
	add(v.EntityValue != nil, "entityValue")
	add(v.TimestampValue != nil, "timestampValue")
	add(v.GeoPointValue != nil, "geoPointValue")
	add(v.BlobValue != nil, "blobValue")
	add(v.KeyValue != nil, "keyValue")
	add(v.Meaning != nil, "meaning")
	add(v.ExcludeFromIndexes != nil, "excludeFromIndexes")
	return fields
}

// MarshalProperties renders entity properties as a JSON object.
func MarshalProperties(properties map[string]Value) ([]byte, error) {
	if properties == nil {
		properties = map[string]Value{}
	}
	return json.Marshal(properties)
}

func UnmarshalProperties(payload []byte) (map[string]Value, error) {
	properties := map[string]Value{}
	if len(payload) == 0 {
		return properties, nil
	}
	if err := json.Unmarshal(payload, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}
