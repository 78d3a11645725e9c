package resource

import (
	"encoding/json"
	"testing"

	"github.com/crmarques/boardprompt/faults"
)

func TestNormalizeFieldsWidensNumbers(t *testing.T) {
	fields, err := NormalizeFields(Fields{
		"a": 7,
		"b": uint32(7),
		"c": json.Number("7"),
		"d": 7.0,
	})
	if err != nil {
		t.Fatalf("NormalizeFields: %v", err)
	}
	for key, value := range fields {
		if value != int64(7) {
			t.Fatalf("field %q = %#v, want int64(7)", key, value)
		}
	}
}

func TestNormalizeFieldsConvertsYAMLMaps(t *testing.T) {
	fields, err := NormalizeFields(Fields{
		"nested": map[any]any{"key": "value"},
		"list":   []string{"x", "y"},
	})
	if err != nil {
		t.Fatalf("NormalizeFields: %v", err)
	}
	nested, ok := fields["nested"].(map[string]any)
	if !ok || nested["key"] != "value" {
		t.Fatalf("nested = %#v", fields["nested"])
	}
	list, ok := fields["list"].([]any)
	if !ok || len(list) != 2 || list[0] != "x" {
		t.Fatalf("list = %#v", fields["list"])
	}
}

func TestNormalizeFieldsRejectsBadValues(t *testing.T) {
	if _, err := NormalizeFields(Fields{"ch": make(chan int)}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError for unsupported type, got %v", err)
	}
	if _, err := NormalizeFields(Fields{"m": map[any]any{1: "x"}}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError for non-string map key, got %v", err)
	}
}

func TestEqualValue(t *testing.T) {
	if !EqualValue([]string{"a"}, []any{"a"}) {
		t.Fatalf("string slice and any slice with same content should be equal")
	}
	if EqualValue("a", "b") {
		t.Fatalf("distinct strings must not be equal")
	}
}
