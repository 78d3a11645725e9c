package resource

import (
	"time"

	"github.com/google/uuid"

	"github.com/crmarques/boardprompt/faults"
)

// Snapshot is an immutable, versioned set of resources of one type
// produced by a single fetch. A new fetch always builds a new Snapshot;
// existing ones are never mutated, so holders of an older Snapshot can
// keep reading it safely.
type Snapshot struct {
	typ       Type
	version   string
	fetchedAt time.Time
	order     []string
	resources map[string]Resource
}

// NewSnapshot validates, normalizes, and freezes the given resources.
// All resources must share the snapshot type and carry unique ids.
func NewSnapshot(typ Type, resources []Resource) (*Snapshot, error) {
	if !typ.Valid() {
		return nil, faults.Internal("unknown resource type: "+string(typ), nil)
	}

	order := make([]string, 0, len(resources))
	byID := make(map[string]Resource, len(resources))
	for _, res := range resources {
		if res.ID == "" {
			return nil, faults.Validation("resource without id in fetched data", nil)
		}
		if res.Type != typ {
			return nil, faults.Internal("resource "+res.ID+" has type "+string(res.Type)+", snapshot expects "+string(typ), nil)
		}
		if _, dup := byID[res.ID]; dup {
			return nil, faults.Validation("duplicate resource id in fetched data: "+res.ID, nil)
		}

		fields, err := NormalizeFields(res.Fields)
		if err != nil {
			return nil, err
		}
		byID[res.ID] = Resource{ID: res.ID, Type: typ, Fields: fields}
		order = append(order, res.ID)
	}

	return &Snapshot{
		typ:       typ,
		version:   uuid.NewString(),
		fetchedAt: time.Now(),
		order:     order,
		resources: byID,
	}, nil
}

func (s *Snapshot) Type() Type {
	return s.typ
}

// Version is the opaque token identifying this fetch. Two snapshots are
// the same snapshot if and only if their versions match.
func (s *Snapshot) Version() string {
	return s.version
}

func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

func (s *Snapshot) Len() int {
	return len(s.order)
}

// IDs returns the resource ids in fetch order.
func (s *Snapshot) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of the resource with the given id. Callers may freely
// mutate the copy without affecting the snapshot.
func (s *Snapshot) Get(id string) (Resource, bool) {
	res, ok := s.resources[id]
	if !ok {
		return Resource{}, false
	}
	return res.Clone(), true
}

// Resources returns copies of all resources in fetch order.
func (s *Snapshot) Resources() []Resource {
	out := make([]Resource, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.resources[id].Clone())
	}
	return out
}
