package resource

type Type string

const (
	TypeCard    Type = "card"
	TypeWorklog Type = "worklog"
	TypeSprint  Type = "sprint"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCard, TypeWorklog, TypeSprint:
		return true
	default:
		return false
	}
}

// Fields is the opaque, server-defined field mapping of a mirrored entity.
// Values are restricted to the normalized scalar/map/slice forms produced
// by Normalize.
type Fields map[string]any

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for key, value := range f {
		out[key] = cloneValue(value)
	}
	return out
}

// Restrict returns a copy of f containing only the given keys. Keys absent
// from f are skipped, not materialized as nils.
func (f Fields) Restrict(keys []string) Fields {
	out := make(Fields, len(keys))
	for _, key := range keys {
		if value, ok := f[key]; ok {
			out[key] = cloneValue(value)
		}
	}
	return out
}

// Resource is the local mirror of one remote entity. ID is unique within
// its collection and stable across fetches.
type Resource struct {
	ID     string
	Type   Type
	Fields Fields
}

func (r Resource) Clone() Resource {
	return Resource{
		ID:     r.ID,
		Type:   r.Type,
		Fields: r.Fields.Clone(),
	}
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	case Fields:
		return map[string]any(typed.Clone())
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = item
		}
		return out
	default:
		return typed
	}
}
