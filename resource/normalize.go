package resource

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/crmarques/boardprompt/faults"
)

// NormalizeFields canonicalizes every value in f so that values decoded
// from JSON, YAML, and Go literals compare equal: all signed integers
// widen to int64, json.Number resolves to int64 or float64, and nested
// containers normalize recursively.
func NormalizeFields(f Fields) (Fields, error) {
	normalized := make(Fields, len(f))
	for key, value := range f {
		item, err := normalizeValue(value)
		if err != nil {
			return nil, err
		}
		normalized[key] = item
	}
	return normalized, nil
}

// EqualValue reports whether two field values are equal after normalization.
func EqualValue(a, b any) bool {
	na, errA := normalizeValue(a)
	nb, errB := normalizeValue(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalizeValue(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, string:
		return typed, nil
	case float32:
		return normalizeFloat(float64(typed))
	case float64:
		return normalizeFloat(typed)
	case int:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case uint:
		return normalizeUint(uint64(typed))
	case uint8:
		return normalizeUint(uint64(typed))
	case uint16:
		return normalizeUint(uint64(typed))
	case uint32:
		return normalizeUint(uint64(typed))
	case uint64:
		return normalizeUint(typed)
	case json.Number:
		return normalizeJSONNumber(typed)
	case []any:
		return normalizeSlice(typed)
	case []string:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = item
		}
		return out, nil
	case map[string]any:
		return normalizeStringMap(typed)
	case Fields:
		return normalizeStringMap(typed)
	case map[any]any:
		return normalizeAnyMap(typed)
	}

	return nil, faults.Validation("field value has unsupported type", nil)
}

func normalizeFloat(value float64) (any, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, faults.Validation("field contains non-finite float", nil)
	}
	if value == math.Trunc(value) && math.Abs(value) < float64(math.MaxInt64) {
		return int64(value), nil
	}
	return value, nil
}

func normalizeUint(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, faults.Validation("field contains integer out of range", nil)
	}
	return int64(value), nil
}

func normalizeJSONNumber(value json.Number) (any, error) {
	if asInt, err := value.Int64(); err == nil {
		return asInt, nil
	}
	asFloat, err := value.Float64()
	if err != nil {
		return nil, faults.Validation("field contains invalid number", err)
	}
	return normalizeFloat(asFloat)
}

func normalizeSlice(values []any) ([]any, error) {
	normalized := make([]any, len(values))
	for idx, item := range values {
		itemValue, err := normalizeValue(item)
		if err != nil {
			return nil, err
		}
		normalized[idx] = itemValue
	}
	return normalized, nil
}

func normalizeStringMap(values map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	for key, item := range values {
		itemValue, err := normalizeValue(item)
		if err != nil {
			return nil, err
		}
		normalized[key] = itemValue
	}
	return normalized, nil
}

func normalizeAnyMap(values map[any]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	for key, item := range values {
		stringKey, ok := key.(string)
		if !ok {
			return nil, faults.Validation("field map keys must be strings", nil)
		}
		itemValue, err := normalizeValue(item)
		if err != nil {
			return nil, err
		}
		normalized[stringKey] = itemValue
	}
	return normalized, nil
}
