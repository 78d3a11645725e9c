package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crmarques/boardprompt/collection"
	"github.com/crmarques/boardprompt/config"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
	"github.com/crmarques/boardprompt/session"
)

type fakeClient struct {
	mu        sync.Mutex
	cards     []resource.Resource
	worklogs  map[string][]resource.Resource
	updates   []recordedUpdate
	deleted   []string
	created   []resource.Fields
	lastQuery server.Query
}

type recordedUpdate struct {
	typ     resource.Type
	id      string
	changed resource.Fields
}

func (f *fakeClient) Fetch(ctx context.Context, typ resource.Type, query server.Query) ([]resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	switch typ {
	case resource.TypeCard:
		var out []resource.Resource
		for _, card := range f.cards {
			if query.Assignee != "" && card.Fields["assignee"] != query.Assignee {
				continue
			}
			out = append(out, card)
		}
		return out, nil
	case resource.TypeWorklog:
		out := make([]resource.Resource, len(f.worklogs[query.CardID]))
		copy(out, f.worklogs[query.CardID])
		return out, nil
	default:
		return nil, nil
	}
}

func (f *fakeClient) Update(ctx context.Context, typ resource.Type, id string, changed resource.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recordedUpdate{typ: typ, id: id, changed: changed})
	return nil
}

func (f *fakeClient) Create(ctx context.Context, typ resource.Type, fields resource.Fields) (resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fields)
	return resource.Resource{ID: "NEW-1", Type: typ, Fields: fields}, nil
}

func (f *fakeClient) Delete(ctx context.Context, typ resource.Type, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) RenewCredential(ctx context.Context) (server.Credential, error) {
	return server.Credential{}, errors.New("not implemented")
}

func testApp(t *testing.T, client *fakeClient) *App {
	t.Helper()
	var cfg config.Config

	sess := session.NewSession(server.BoardInfo{
		BoardID:    "7",
		ProjectID:  "PLAT",
		UserID:     "alice",
		SprintID:   "42",
		SprintName: "Sprint 42",
	}, server.Credential{})
	for _, typ := range []resource.Type{resource.TypeCard, resource.TypeWorklog, resource.TypeSprint} {
		sess.Register(collection.New(typ, client, cfg.EditableKeysFor(typ)))
	}

	logger := slog.New(slog.DiscardHandler)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Session:   sess,
		Refresher: session.NewRefresher(sess, client, time.Minute, time.Minute, logger),
		Editor:    func(string) error { return nil },
	}
}

func runCommand(t *testing.T, runtime *App, args ...string) (string, error) {
	t.Helper()
	app = runtime
	t.Cleanup(func() { app = nil })

	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func testCard(id, status string) resource.Resource {
	return resource.Resource{
		ID:   id,
		Type: resource.TypeCard,
		Fields: resource.Fields{
			"summary":  "summary of " + id,
			"status":   status,
			"assignee": "alice",
			"sprint":   "Sprint 42",
			"timeleft": "2h",
		},
	}
}

func TestLsRendersCardTable(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}

	out, err := runCommand(t, testApp(t, client), "ls", "--status", "To Do")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "PLAT-1") || !strings.Contains(out, "summary of PLAT-1") {
		t.Fatalf("output = %q", out)
	}
	if client.lastQuery.Status != "To Do" {
		t.Fatalf("query = %+v", client.lastQuery)
	}
}

func TestLsMineFiltersBySessionUser(t *testing.T) {
	client := &fakeClient{}
	if _, err := runCommand(t, testApp(t, client), "ls", "--mine"); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if client.lastQuery.Assignee != "alice" {
		t.Fatalf("query = %+v, want the session user", client.lastQuery)
	}
}

func TestCardAssignUpdatesAndReloads(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}

	_, err := runCommand(t, testApp(t, client), "card", "assign", "plat-1", "bob")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	if len(client.updates) != 1 {
		t.Fatalf("updates = %#v", client.updates)
	}
	update := client.updates[0]
	if update.id != "PLAT-1" || update.changed["assignee"] != "bob" {
		t.Fatalf("update = %#v", update)
	}
}

func TestCardAssignUnknownCard(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}

	_, err := runCommand(t, testApp(t, client), "card", "assign", "PLAT-404", "bob")
	if err == nil {
		t.Fatalf("want error for unknown card")
	}
	if len(client.updates) != 0 {
		t.Fatalf("unknown card must not reach the tracker: %#v", client.updates)
	}
}

func TestCardLogworkSanitizesTime(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}

	_, err := runCommand(t, testApp(t, client), "card", "logwork", "PLAT-1", "2h30m", "-m", "review")
	if err != nil {
		t.Fatalf("logwork: %v", err)
	}
	if len(client.created) != 1 {
		t.Fatalf("created = %#v", client.created)
	}
	created := client.created[0]
	if created["timeSpent"] != "2h 30m" || created["card"] != "PLAT-1" || created["comment"] != "review" {
		t.Fatalf("created = %#v", created)
	}
}

func TestCardRemoveNeedsConfirmation(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}
	runtime := testApp(t, client)

	app = runtime
	t.Cleanup(func() { app = nil })

	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader("n\n"))
	root.SetArgs([]string{"card", "remove", "PLAT-1"})

	err := root.Execute()
	if !IsHandledError(err) {
		t.Fatalf("err = %v, want handled cancellation", err)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("declined prompt must not delete: %#v", client.deleted)
	}
}

func TestEditAppliesMinimalPatch(t *testing.T) {
	client := &fakeClient{cards: []resource.Resource{testCard("PLAT-1", "To Do")}}
	runtime := testApp(t, client)
	runtime.Editor = rewriteEditor(t, func(text string) string {
		return strings.Replace(text, "status: To Do", "status: Done", 1)
	})

	out, err := runCommand(t, runtime, "edit", "PLAT-1")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "applied 1 change(s)") {
		t.Fatalf("output = %q", out)
	}

	if len(client.updates) != 1 {
		t.Fatalf("updates = %#v", client.updates)
	}
	changed := client.updates[0].changed
	if len(changed) != 1 || changed["status"] != "Done" {
		t.Fatalf("patch = %#v, want minimal status change", changed)
	}
}

func TestEditworkRewritesChangedWorklogs(t *testing.T) {
	client := &fakeClient{
		cards: []resource.Resource{testCard("PLAT-1", "To Do")},
		worklogs: map[string][]resource.Resource{
			"PLAT-1": {
				{
					ID:   "5001",
					Type: resource.TypeWorklog,
					Fields: resource.Fields{
						"timeSpent": "1h",
						"started":   "2026-08-25T09:00:00.000+0000",
						"comment":   "standup",
					},
				},
			},
		},
	}
	runtime := testApp(t, client)
	runtime.Editor = rewriteEditor(t, func(text string) string {
		return strings.Replace(text, "timeSpent: 1h", "timeSpent: 2h", 1)
	})

	if _, err := runCommand(t, runtime, "editwork", "PLAT-1"); err != nil {
		t.Fatalf("editwork: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "5001" {
		t.Fatalf("deleted = %#v, want the original worklog", client.deleted)
	}
	if len(client.created) != 1 || client.created[0]["timeSpent"] != "2h" {
		t.Fatalf("created = %#v", client.created)
	}
	if client.created[0]["card"] != "PLAT-1" {
		t.Fatalf("recreated worklog lost its card: %#v", client.created[0])
	}
}

func TestEditworkUnchangedIsNoOp(t *testing.T) {
	client := &fakeClient{
		cards: []resource.Resource{testCard("PLAT-1", "To Do")},
		worklogs: map[string][]resource.Resource{
			"PLAT-1": {
				{
					ID:     "5001",
					Type:   resource.TypeWorklog,
					Fields: resource.Fields{"timeSpent": "1h", "started": "x", "comment": "y"},
				},
			},
		},
	}
	runtime := testApp(t, client)
	runtime.Editor = rewriteEditor(t, func(text string) string { return text })

	out, err := runCommand(t, runtime, "editwork", "PLAT-1")
	if err != nil {
		t.Fatalf("editwork: %v", err)
	}
	if !strings.Contains(out, "no changes") {
		t.Fatalf("output = %q", out)
	}
	if len(client.deleted) != 0 || len(client.created) != 0 {
		t.Fatalf("no-op must not touch the tracker")
	}
}

func TestEditworkKeepsBufferOnRejectedEdit(t *testing.T) {
	client := &fakeClient{
		cards: []resource.Resource{testCard("PLAT-1", "To Do")},
		worklogs: map[string][]resource.Resource{
			"PLAT-1": {
				{
					ID:     "5001",
					Type:   resource.TypeWorklog,
					Fields: resource.Fields{"timeSpent": "1h", "started": "x", "comment": "y"},
				},
			},
		},
	}
	runtime := testApp(t, client)
	runtime.Editor = rewriteEditor(t, func(text string) string {
		// dropping the id line makes the buffer unparseable
		return strings.Replace(text, `id: "5001"`, "note: broken", 1)
	})

	out, err := runCommand(t, runtime, "editwork", "PLAT-1")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(client.deleted) != 0 || len(client.created) != 0 {
		t.Fatalf("rejected edit must not touch the tracker")
	}

	marker := "kept at "
	idx := strings.Index(out, marker)
	if idx < 0 {
		t.Fatalf("output = %q, want the retained file path", out)
	}
	path := strings.TrimSpace(strings.SplitN(out[idx+len(marker):], "\n", 2)[0])
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("retained file must survive for retry: %v", err)
	}
	defer os.Remove(path)
	if !strings.Contains(string(data), "note: broken") {
		t.Fatalf("retained file lost the edits: %q", data)
	}
}

func TestWorkKeepsCardCollectionScope(t *testing.T) {
	teammate := testCard("PLAT-2", "To Do")
	teammate.Fields["assignee"] = "bob"
	client := &fakeClient{
		cards:    []resource.Resource{testCard("PLAT-1", "To Do"), teammate},
		worklogs: map[string][]resource.Resource{},
	}
	runtime := testApp(t, client)

	if _, err := runCommand(t, runtime, "work"); err != nil {
		t.Fatalf("work: %v", err)
	}

	// the assignee-scoped read above must not narrow the shared card
	// snapshot used by every other command
	if _, err := runCommand(t, runtime, "card", "assign", "PLAT-2", "carol"); err != nil {
		t.Fatalf("assigning a teammate's card after work: %v", err)
	}
	if len(client.updates) != 1 || client.updates[0].id != "PLAT-2" {
		t.Fatalf("updates = %#v", client.updates)
	}
}

func TestSubcommandHelpShowsGlobalFlags(t *testing.T) {
	out, err := runCommand(t, nil, "card", "assign", "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "Global Flags:") || !strings.Contains(out, "--no-status") {
		t.Fatalf("output = %q, want inherited flags section", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, nil, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "boardprompt") {
		t.Fatalf("output = %q", out)
	}
}

func rewriteEditor(t *testing.T, edit func(string) string) session.EditorFunc {
	t.Helper()
	return func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(edit(string(data))), 0o600)
	}
}
