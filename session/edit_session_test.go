package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/crmarques/boardprompt/collection"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
)

var cardKeys = []string{"summary", "status", "sprint"}

type fakeClient struct {
	mu        sync.Mutex
	resources map[resource.Type][]resource.Resource
	updates   []recordedUpdate
	renew     func() (server.Credential, error)
	fetchErr  error
}

type recordedUpdate struct {
	id      string
	changed resource.Fields
}

func (f *fakeClient) Fetch(ctx context.Context, typ resource.Type, query server.Query) ([]resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]resource.Resource, len(f.resources[typ]))
	copy(out, f.resources[typ])
	return out, nil
}

func (f *fakeClient) Update(ctx context.Context, typ resource.Type, id string, changed resource.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recordedUpdate{id: id, changed: changed})
	return nil
}

func (f *fakeClient) Create(ctx context.Context, typ resource.Type, fields resource.Fields) (resource.Resource, error) {
	return resource.Resource{}, errors.New("not implemented")
}

func (f *fakeClient) Delete(ctx context.Context, typ resource.Type, id string) error {
	return errors.New("not implemented")
}

func (f *fakeClient) RenewCredential(ctx context.Context) (server.Credential, error) {
	if f.renew != nil {
		return f.renew()
	}
	return server.Credential{}, errors.New("not implemented")
}

func (f *fakeClient) setResources(typ resource.Type, resources []resource.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resources == nil {
		f.resources = map[resource.Type][]resource.Resource{}
	}
	f.resources[typ] = resources
}

func (f *fakeClient) recordedUpdates() []recordedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedUpdate, len(f.updates))
	copy(out, f.updates)
	return out
}

func card(id, status string) resource.Resource {
	return resource.Resource{
		ID:   id,
		Type: resource.TypeCard,
		Fields: resource.Fields{
			"summary": "summary of " + id,
			"status":  status,
			"sprint":  "Sprint 42",
		},
	}
}

func loadedCards(t *testing.T, client *fakeClient, resources ...resource.Resource) *collection.Collection {
	t.Helper()
	client.setResources(resource.TypeCard, resources)
	col := collection.New(resource.TypeCard, client, cardKeys)
	if _, err := col.Load(context.Background(), server.Query{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return col
}

// editorFunc fabricates the user's editor interaction: it receives the
// buffer path and rewrites the file.
func editorFunc(t *testing.T, edit func(text string) string, seenPath *string) EditorFunc {
	t.Helper()
	return func(path string) error {
		if seenPath != nil {
			*seenPath = path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(edit(string(data))), 0o600)
	}
}

func TestEditSessionAppliesStatusChange(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	var tempPath string
	editor := editorFunc(t, func(text string) string {
		return strings.Replace(text, "status: To Do", "status: In Progress", 1)
	}, &tempPath)

	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})
	if outcome.Err != nil {
		t.Fatalf("Run: %v", outcome.Err)
	}
	if outcome.State != StateIdle {
		t.Fatalf("state = %v, want idle", outcome.State)
	}
	if len(outcome.Applied) != 1 || outcome.Applied[0] != "CARD-1" {
		t.Fatalf("Applied = %v", outcome.Applied)
	}

	updates := client.recordedUpdates()
	if len(updates) != 1 {
		t.Fatalf("updates = %v, want exactly one", updates)
	}
	if len(updates[0].changed) != 1 || updates[0].changed["status"] != "In Progress" {
		t.Fatalf("patch = %#v, want minimal status change", updates[0].changed)
	}

	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatalf("temp file must be released after apply: %v", err)
	}
	if snap := col.Current(); snap == nil {
		t.Fatalf("post-apply refresh must leave a snapshot installed")
	}
}

func TestEditSessionUnchangedSaveShortCircuits(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))
	preVersion := col.Current().Version()

	editor := editorFunc(t, func(text string) string { return text }, nil)
	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})

	if outcome.Err != nil || outcome.State != StateIdle || !outcome.NoChanges {
		t.Fatalf("outcome = %+v, want clean no-op", outcome)
	}
	if len(client.recordedUpdates()) != 0 {
		t.Fatalf("no-op save must make zero remote calls")
	}
	if col.Current().Version() != preVersion {
		t.Fatalf("no-op save must not trigger a re-fetch")
	}
}

func TestEditSessionEmptiedBufferIsAnAbort(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	editor := editorFunc(t, func(string) string { return "# all gone\n" }, nil)
	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})

	if outcome.Err != nil || !outcome.NoChanges {
		t.Fatalf("outcome = %+v, want no-op", outcome)
	}
	if len(client.recordedUpdates()) != 0 {
		t.Fatalf("aborted edit must make zero remote calls")
	}
}

func TestEditSessionValidationFailureRetainsFile(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	editor := editorFunc(t, func(string) string {
		return "- status: To Do\n" // id line dropped
	}, nil)
	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})

	if outcome.State != StateRejected {
		t.Fatalf("state = %v, want rejected", outcome.State)
	}
	if !faults.IsCategory(outcome.Err, faults.ValidationError) {
		t.Fatalf("err = %v, want ValidationError", outcome.Err)
	}
	if outcome.RetainedFile == "" {
		t.Fatalf("rejected edit must surface the retained file")
	}
	data, err := os.ReadFile(outcome.RetainedFile)
	if err != nil {
		t.Fatalf("retained file must survive for retry: %v", err)
	}
	defer os.Remove(outcome.RetainedFile)
	if !strings.Contains(string(data), "status: To Do") {
		t.Fatalf("retained file lost the user's edits: %q", data)
	}
	if len(client.recordedUpdates()) != 0 {
		t.Fatalf("rejected edit must make zero remote calls")
	}
}

func TestEditSessionConflictSurfacesDrift(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	var tempPath string
	editor := func(path string) error {
		tempPath = path
		// a background refresh lands while the editor is open, and the
		// remote sprint assignment changed underneath the session
		moved := card("CARD-1", "To Do")
		moved.Fields["sprint"] = "Sprint 43"
		client.setResources(resource.TypeCard, []resource.Resource{moved})
		if _, err := col.Reload(context.Background()); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		edited := strings.Replace(string(data), "status: To Do", "status: In Progress", 1)
		return os.WriteFile(path, []byte(edited), 0o600)
	}

	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})
	if outcome.State != StateConflicted {
		t.Fatalf("state = %v, want conflicted", outcome.State)
	}
	if !faults.IsCategory(outcome.Err, faults.ConflictError) {
		t.Fatalf("err = %v, want ConflictError", outcome.Err)
	}
	if !strings.Contains(outcome.EditedText, "In Progress") {
		t.Fatalf("conflict must surface the user's edits, got %q", outcome.EditedText)
	}
	change := outcome.Drift.Modified["CARD-1"]["sprint"]
	if change.Old != "Sprint 42" || change.New != "Sprint 43" {
		t.Fatalf("drift = %#v, want the sprint change", outcome.Drift)
	}
	if len(client.recordedUpdates()) != 0 {
		t.Fatalf("conflicted edit must make zero remote calls")
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatalf("temp file must be released on conflict: %v", err)
	}
}

func TestEditSessionEditorFailureReleasesFile(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	var tempPath string
	editor := func(path string) error {
		tempPath = path
		return faults.Internal("editor crashed", nil)
	}
	outcome := NewEditSession(col, editor, nil).Run(context.Background(), []string{"CARD-1"})
	if outcome.Err == nil || outcome.State != StateIdle {
		t.Fatalf("outcome = %+v, want idle with error", outcome)
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Fatalf("temp file must be released on editor crash: %v", err)
	}
	if len(client.recordedUpdates()) != 0 {
		t.Fatalf("crashed edit must make zero remote calls")
	}
}

func TestEditSessionUnknownSelection(t *testing.T) {
	client := &fakeClient{}
	col := loadedCards(t, client, card("CARD-1", "To Do"))

	outcome := NewEditSession(col, func(string) error { return nil }, nil).Run(context.Background(), []string{"CARD-404"})
	if !faults.IsCategory(outcome.Err, faults.NotFoundError) {
		t.Fatalf("err = %v, want NotFoundError", outcome.Err)
	}
}
