package resource

import (
	"testing"

	"github.com/crmarques/boardprompt/faults"
)

func mustSnapshot(t *testing.T, typ Type, resources []Resource) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(typ, resources)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func TestDiffIdentityIsEmpty(t *testing.T) {
	snap := mustSnapshot(t, TypeCard, []Resource{
		cardRes("CARD-1", Fields{"status": "To Do", "labels": []any{"a", "b"}}),
	})
	changes, err := Diff(snap, snap)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !changes.Empty() {
		t.Fatalf("diff(s, s) should be empty, got %#v", changes)
	}
}

func TestDiffClassifiesAddedRemovedModified(t *testing.T) {
	older := mustSnapshot(t, TypeCard, []Resource{
		cardRes("CARD-1", Fields{"status": "To Do"}),
		cardRes("CARD-2", Fields{"status": "Done"}),
	})
	newer := mustSnapshot(t, TypeCard, []Resource{
		cardRes("CARD-1", Fields{"status": "In Progress"}),
		cardRes("CARD-3", Fields{"status": "To Do"}),
	})

	changes, err := Diff(older, newer)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(changes.Added) != 1 || changes.Added[0] != "CARD-3" {
		t.Fatalf("Added = %v, want [CARD-3]", changes.Added)
	}
	if len(changes.Removed) != 1 || changes.Removed[0] != "CARD-2" {
		t.Fatalf("Removed = %v, want [CARD-2]", changes.Removed)
	}
	mod, ok := changes.Modified["CARD-1"]
	if !ok {
		t.Fatalf("expected CARD-1 in Modified, got %#v", changes.Modified)
	}
	change := mod["status"]
	if change.Old != "To Do" || change.New != "In Progress" {
		t.Fatalf("status change = %#v", change)
	}
	if _, found := changes.Modified["CARD-2"]; found {
		t.Fatalf("removed resource must never be classified modified")
	}
	if _, found := changes.Modified["CARD-3"]; found {
		t.Fatalf("added resource must never be classified modified")
	}
}

func TestDiffRejectsTypeMismatch(t *testing.T) {
	cards := mustSnapshot(t, TypeCard, nil)
	sprints := mustSnapshot(t, TypeSprint, nil)
	if _, err := Diff(cards, sprints); !faults.IsCategory(err, faults.InternalError) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if _, err := Diff(nil, cards); !faults.IsCategory(err, faults.InternalError) {
		t.Fatalf("expected InternalError for nil snapshot, got %v", err)
	}
}

func TestDiffFieldsRestrictsToGivenKeys(t *testing.T) {
	base := Fields{"status": "To Do", "summary": "old", "updated": "2026-01-01"}
	edited := Fields{"status": "In Progress", "summary": "old", "updated": "2026-02-02"}

	changes := DiffFields(base, edited, []string{"status", "summary"})
	if len(changes) != 1 {
		t.Fatalf("expected only status to change, got %#v", changes)
	}
	if changes["status"].New != "In Progress" {
		t.Fatalf("status change = %#v", changes["status"])
	}
}

func TestDiffFieldsTreatsOmittedKeyAsUnchanged(t *testing.T) {
	base := Fields{"status": "To Do", "summary": "keep me"}
	edited := Fields{"status": "To Do"}
	if changes := DiffFields(base, edited, []string{"status", "summary"}); changes != nil {
		t.Fatalf("expected no changes, got %#v", changes)
	}
}

func TestDiffFieldsNormalizesNumbers(t *testing.T) {
	base := Fields{"timespent": int64(3600)}
	edited := Fields{"timespent": 3600}
	if changes := DiffFields(base, edited, []string{"timespent"}); changes != nil {
		t.Fatalf("int widths must compare equal, got %#v", changes)
	}
}
