package resource

import (
	"sort"

	"github.com/crmarques/boardprompt/faults"
)

// FieldChange carries the before and after value of one field.
type FieldChange struct {
	Old any
	New any
}

// Changes is the result of comparing two snapshots of the same collection.
// A resource present in only one snapshot is classified added or removed,
// never modified.
type Changes struct {
	Added    []string
	Removed  []string
	Modified map[string]map[string]FieldChange
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Diff compares two snapshots of the same resource type. It is a pure
// function: neither snapshot is touched, and calling it with the same
// snapshot twice yields empty Changes.
func Diff(older, newer *Snapshot) (Changes, error) {
	if older == nil || newer == nil {
		return Changes{}, faults.Internal("diff requires two snapshots", nil)
	}
	if older.Type() != newer.Type() {
		return Changes{}, faults.Internal("cannot diff snapshots of different types", nil)
	}

	changes := Changes{Modified: map[string]map[string]FieldChange{}}

	for _, id := range newer.IDs() {
		if _, found := older.resources[id]; !found {
			changes.Added = append(changes.Added, id)
		}
	}
	for _, id := range older.IDs() {
		newRes, found := newer.resources[id]
		if !found {
			changes.Removed = append(changes.Removed, id)
			continue
		}
		oldRes := older.resources[id]
		if fieldChanges := DiffFields(oldRes.Fields, newRes.Fields, nil); len(fieldChanges) > 0 {
			changes.Modified[id] = fieldChanges
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	if len(changes.Modified) == 0 {
		changes.Modified = nil
	}
	return changes, nil
}

// DiffFields compares edited fields against a baseline. When keys is nil
// the union of both key sets is compared; otherwise the comparison is
// restricted to the given keys and everything else is ignored. A key
// absent from edited is treated as unchanged, not as a deletion: the
// editor emits every editable key, so an omitted line means the user
// dropped it rather than asked for removal.
func DiffFields(base, edited Fields, keys []string) map[string]FieldChange {
	if keys == nil {
		seen := make(map[string]struct{}, len(base)+len(edited))
		for key := range base {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		for key := range edited {
			if _, dup := seen[key]; !dup {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
	}

	changes := make(map[string]FieldChange)
	for _, key := range keys {
		newValue, edit := edited[key]
		if !edit {
			continue
		}
		oldValue, had := base[key]
		if had && EqualValue(oldValue, newValue) {
			continue
		}
		changes[key] = FieldChange{Old: cloneValue(oldValue), New: cloneValue(newValue)}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// Patch is the minimal set of changed editable fields for one resource.
// An empty patch means no remote call is needed.
type Patch struct {
	ID            string
	ChangedFields Fields
}

func (p Patch) Empty() bool {
	return len(p.ChangedFields) == 0
}
