package record

import (
	"encoding/json"
	"strconv"
)

const nullSentinel = "none"

// ToStorage encodes a record's typed values into the flat string map a
// hash-backed Store wants: booleans as "0"/"1", integers as decimal,
// lists as a JSON array, and null fields (Field.Null, value == nil) as
// the literal "none". Calculated fields are left out.
func ToStorage(schema *Schema, values map[string]any) map[string]string {
	out := make(map[string]string, len(schema.Fields))

	for _, f := range schema.Fields {
		v := values[f.Name]

		if f.Null && v == nil {
			out[f.Name] = nullSentinel
			continue
		}

		switch f.Kind {
		case KindBool:
			b, _ := v.(bool)
			if b {
				out[f.Name] = "1"
			} else {
				out[f.Name] = "0"
			}
		case KindInt:
			n, _ := v.(int)
			out[f.Name] = strconv.Itoa(n)
		case KindList:
			list, _ := v.([]string)
			if list == nil {
				list = []string{}
			}
			b, _ := json.Marshal(list)
			out[f.Name] = string(b)
		case KindString, KindID, KindRelation:
			s, _ := v.(string)
			out[f.Name] = s
		}
	}

	return out
}

// FromStorage decodes a flat string map read from a hash back into
// typed values, reversing ToStorage.
func FromStorage(schema *Schema, raw map[string]string) map[string]any {
	out := make(map[string]any, len(schema.Fields))

	for _, f := range schema.Fields {
		v, present := raw[f.Name]

		if f.Null && (!present || v == nullSentinel) {
			out[f.Name] = nil
			continue
		}

		switch f.Kind {
		case KindBool:
			out[f.Name] = v == "1"
		case KindInt:
			n, _ := strconv.Atoi(v)
			out[f.Name] = n
		case KindList:
			var list []string
			if v != "" {
				_ = json.Unmarshal([]byte(v), &list)
			}
			if list == nil {
				list = []string{}
			}
			out[f.Name] = list
		case KindString, KindID, KindRelation, KindCalculated:
			out[f.Name] = v
		}
	}

	return out
}

// RecomputeCalculated fills in every KindCalculated field from its
// Calc callback. Calculated fields are pure functions of the rest of
// the record's state and are never themselves persisted to storage;
// Refresh and GetByID rebuild them here after every read.
func RecomputeCalculated(schema *Schema, values map[string]any) {
	raw := ToStorage(schema, values)
	for _, f := range schema.Fields {
		if f.Kind != KindCalculated || f.Calc == nil {
			continue
		}
		values[f.Name] = f.Calc(raw)
	}
}

// PublicData returns the non-internal fields whose value is neither
// the empty string nor nil/empty-list, the same projection rule as
// StorageComplexObject.__update_common_data.
func PublicData(schema *Schema, values map[string]any) map[string]any {
	out := make(map[string]any, len(schema.Fields))

	for _, f := range schema.Fields {
		if f.Internal {
			continue
		}
		v := values[f.Name]
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
		case []string:
			if len(val) == 0 {
				continue
			}
		}
		out[f.Name] = v
	}

	return out
}
