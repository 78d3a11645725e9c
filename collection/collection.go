// Package collection owns the current snapshot of one resource type and
// the operations that read, edit, and patch it. The snapshot pointer is
// the only shared mutable state: it is swapped under a write lock and
// never edited in place, so readers see either the old or the new
// snapshot in full.
package collection

import (
	"context"
	"sync"

	"github.com/crmarques/boardprompt/editcodec"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
)

type Collection struct {
	typ          resource.Type
	client       server.RemoteClient
	codec        *editcodec.Codec
	editableKeys []string

	mu        sync.RWMutex
	current   *resource.Snapshot
	lastQuery server.Query
	loaded    bool
}

// New builds a collection for one resource type. editableKeys is the
// configured allow-list; fields outside it are read-only and never appear
// in edit buffers or patches.
func New(typ resource.Type, client server.RemoteClient, editableKeys []string) *Collection {
	keys := make([]string, len(editableKeys))
	copy(keys, editableKeys)
	return &Collection{
		typ:          typ,
		client:       client,
		codec:        editcodec.New(),
		editableKeys: keys,
	}
}

func (c *Collection) Type() resource.Type {
	return c.typ
}

func (c *Collection) EditableKeys() []string {
	keys := make([]string, len(c.editableKeys))
	copy(keys, c.editableKeys)
	return keys
}

// Load fetches the collection from the remote client and installs the
// result as the current snapshot. The previous snapshot stays valid for
// anyone still holding it.
func (c *Collection) Load(ctx context.Context, query server.Query) (*resource.Snapshot, error) {
	resources, err := c.client.Fetch(ctx, c.typ, query)
	if err != nil {
		return nil, err
	}

	snapshot, err := resource.NewSnapshot(c.typ, resources)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = snapshot
	c.lastQuery = query
	c.loaded = true
	c.mu.Unlock()

	return snapshot, nil
}

// Reload re-fetches using the query of the last Load.
func (c *Collection) Reload(ctx context.Context) (*resource.Snapshot, error) {
	c.mu.RLock()
	query, loaded := c.lastQuery, c.loaded
	c.mu.RUnlock()
	if !loaded {
		return nil, faults.Internal("collection "+string(c.typ)+" was never loaded", nil)
	}
	return c.Load(ctx, query)
}

// Current returns the installed snapshot, or nil before the first Load.
func (c *Collection) Current() *resource.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Select returns the requested resources in the given order. Any id absent
// from the current snapshot fails the whole selection with NotFoundError.
func (c *Collection) Select(ids ...string) ([]resource.Resource, error) {
	snapshot := c.Current()
	if snapshot == nil {
		return nil, faults.NotFound("collection "+string(c.typ)+" has no snapshot yet; run a fetch first", nil)
	}

	selected := make([]resource.Resource, 0, len(ids))
	for _, id := range ids {
		res, ok := snapshot.Get(id)
		if !ok {
			return nil, faults.NotFound(string(c.typ)+" "+id+" is not in the current snapshot", nil)
		}
		selected = append(selected, res)
	}
	return selected, nil
}

// SelectWhere returns all resources matching the predicate, in fetch order.
func (c *Collection) SelectWhere(pred func(resource.Resource) bool) ([]resource.Resource, error) {
	snapshot := c.Current()
	if snapshot == nil {
		return nil, faults.NotFound("collection "+string(c.typ)+" has no snapshot yet; run a fetch first", nil)
	}

	var selected []resource.Resource
	for _, res := range snapshot.Resources() {
		if pred(res) {
			selected = append(selected, res)
		}
	}
	return selected, nil
}

// ToEditableText serializes the selection into an edit buffer stamped with
// the current snapshot version.
func (c *Collection) ToEditableText(ids []string) (editcodec.EditBuffer, error) {
	snapshot := c.Current()
	if snapshot == nil {
		return editcodec.EditBuffer{}, faults.NotFound("collection "+string(c.typ)+" has no snapshot yet; run a fetch first", nil)
	}

	selected, err := c.Select(ids...)
	if err != nil {
		return editcodec.EditBuffer{}, err
	}

	text, err := c.codec.Serialize(selected, c.editableKeys)
	if err != nil {
		return editcodec.EditBuffer{}, err
	}

	ordered := make([]string, len(ids))
	copy(ordered, ids)
	return editcodec.EditBuffer{
		Text:          text,
		OriginVersion: snapshot.Version(),
		ResourceIDs:   ordered,
	}, nil
}

// ParseEdits decodes edited buffer text against this collection's
// allow-list. Parsing is pure; it never touches the snapshot.
func (c *Collection) ParseEdits(text string) (map[string]resource.Fields, error) {
	return c.codec.Parse(text, c.editableKeys)
}

// ComputePatches diffs parsed edits against the snapshot the buffer was
// derived from. If a refresh replaced that snapshot in the meantime the
// whole computation fails with ConflictError, regardless of the edits.
func (c *Collection) ComputePatches(buffer editcodec.EditBuffer, edits map[string]resource.Fields) ([]resource.Patch, error) {
	snapshot := c.Current()
	if snapshot == nil || snapshot.Version() != buffer.OriginVersion {
		return nil, faults.Conflict("collection "+string(c.typ)+" was refreshed while the edit was open", nil)
	}

	inBuffer := make(map[string]struct{}, len(buffer.ResourceIDs))
	for _, id := range buffer.ResourceIDs {
		inBuffer[id] = struct{}{}
	}
	for id := range edits {
		if _, ok := inBuffer[id]; !ok {
			return nil, faults.Validation("edited text contains "+id+", which was not part of this edit", nil)
		}
	}

	patches := make([]resource.Patch, 0, len(edits))
	for _, id := range buffer.ResourceIDs {
		edited, ok := edits[id]
		if !ok {
			// user deleted the whole block: treat as no change
			continue
		}
		baseline, found := snapshot.Get(id)
		if !found {
			return nil, faults.Conflict(string(c.typ)+" "+id+" disappeared from the snapshot", nil)
		}

		changed := resource.DiffFields(baseline.Fields, edited, c.editableKeys)
		if len(changed) == 0 {
			continue
		}
		patches = append(patches, resource.Patch{ID: id, ChangedFields: toFields(changed)})
	}

	return patches, nil
}

// Apply sends patches to the remote client one by one. Partial failure is
// reported per id and never rolled back; the remote service is the source
// of truth and the caller refreshes afterwards. An AuthError aborts the
// remaining patches and is returned as the overall error.
func (c *Collection) Apply(ctx context.Context, patches []resource.Patch) (ApplyResult, error) {
	result := ApplyResult{Failed: map[string]error{}}
	for _, patch := range patches {
		if patch.Empty() {
			continue
		}
		if err := c.client.Update(ctx, c.typ, patch.ID, patch.ChangedFields); err != nil {
			result.Failed[patch.ID] = err
			if faults.IsCategory(err, faults.AuthError) {
				return result, err
			}
			continue
		}
		result.Applied = append(result.Applied, patch.ID)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}

// ApplyResult reports the outcome of Apply per resource id.
type ApplyResult struct {
	Applied []string
	Failed  map[string]error
}

func (r ApplyResult) AllApplied() bool {
	return len(r.Failed) == 0
}

func toFields(changes map[string]resource.FieldChange) resource.Fields {
	fields := make(resource.Fields, len(changes))
	for key, change := range changes {
		fields[key] = change.New
	}
	return fields
}
