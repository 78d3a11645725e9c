// Package session orchestrates edit cycles and background refresh over
// the resource collections of one interactive session.
package session

import (
	"context"
	"log/slog"

	"github.com/crmarques/boardprompt/collection"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
)

// State is the EditSession state machine position.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateValidating
	StateApplying
	StateConflicted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateApplying:
		return "applying"
	case StateConflicted:
		return "conflicted"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one edit cycle, returned to the
// dispatcher for rendering.
type Outcome struct {
	State     State
	NoChanges bool
	Applied   []string
	Failed    map[string]error
	// RetainedFile is set when validation failed and the temp file was
	// kept so the user's edits survive for retry.
	RetainedFile string
	// EditedText carries the user's edits when the cycle conflicted, so
	// they can be re-applied against a fresh baseline.
	EditedText string
	// Drift is the delta between the edit's baseline snapshot and the
	// one that replaced it, set when the cycle conflicted.
	Drift resource.Changes
	Err   error
}

// EditSession runs one editor round trip against a collection:
// snapshot capture, serialize, external edit, parse, validate, patch,
// apply or reject.
type EditSession struct {
	collection *collection.Collection
	editor     EditorFunc
	logger     *slog.Logger
	state      State
}

func NewEditSession(col *collection.Collection, editor EditorFunc, logger *slog.Logger) *EditSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditSession{
		collection: col,
		editor:     editor,
		logger:     logger,
		state:      StateIdle,
	}
}

func (s *EditSession) State() State {
	return s.state
}

func (s *EditSession) transition(next State) {
	s.logger.Debug("edit session transition",
		"collection", string(s.collection.Type()),
		"from", s.state.String(),
		"to", next.String())
	s.state = next
}

// Run executes a full edit cycle over the given selection. The temporary
// edit file is released on every exit path except a validation failure,
// where it is retained and surfaced for retry. An unchanged or emptied
// buffer short-circuits to idle with zero remote calls.
func (s *EditSession) Run(ctx context.Context, ids []string) Outcome {
	// starting a new cycle resolves any previous rejected/conflicted rest state
	s.state = StateIdle

	origin := s.collection.Current()
	buffer, err := s.collection.ToEditableText(ids)
	if err != nil {
		return s.finish(Outcome{State: StateIdle, Err: err})
	}

	file, err := NewEditFile(buffer.Text)
	if err != nil {
		return s.finish(Outcome{State: StateIdle, Err: err})
	}
	defer file.Release()

	s.transition(StateEditing)
	if err := s.editor(file.Path()); err != nil {
		return s.finish(Outcome{State: StateIdle, Err: err})
	}

	s.transition(StateValidating)
	text, err := file.Read()
	if err != nil {
		return s.finish(Outcome{State: StateIdle, Err: err})
	}

	edits, err := s.collection.ParseEdits(text)
	if err != nil {
		if faults.IsCategory(err, faults.ValidationError) {
			file.Retain()
			s.logger.Warn("edit rejected, buffer kept for retry",
				"collection", string(s.collection.Type()),
				"file", file.Path(),
				"error", err)
			return s.finish(Outcome{State: StateRejected, RetainedFile: file.Path(), Err: err})
		}
		return s.finish(Outcome{State: StateIdle, Err: err})
	}

	patches, err := s.collection.ComputePatches(buffer, edits)
	if err != nil {
		if faults.IsCategory(err, faults.ConflictError) {
			outcome := Outcome{State: StateConflicted, EditedText: text, Err: err}
			if current := s.collection.Current(); origin != nil && current != nil {
				if drift, diffErr := resource.Diff(origin, current); diffErr == nil {
					outcome.Drift = drift
				}
			}
			return s.finish(outcome)
		}
		return s.finish(Outcome{State: StateIdle, Err: err})
	}

	if len(patches) == 0 {
		return s.finish(Outcome{State: StateIdle, NoChanges: true})
	}

	s.transition(StateApplying)
	result, err := s.collection.Apply(ctx, patches)
	if err != nil {
		return s.finish(Outcome{State: StateIdle, Applied: result.Applied, Failed: result.Failed, Err: err})
	}

	// re-fetch so the snapshot reflects server-confirmed state
	if _, err := s.collection.Reload(ctx); err != nil {
		s.logger.Warn("post-apply refresh failed",
			"collection", string(s.collection.Type()),
			"error", err)
	}

	return s.finish(Outcome{State: StateIdle, Applied: result.Applied, Failed: result.Failed})
}

func (s *EditSession) finish(outcome Outcome) Outcome {
	s.transition(outcome.State)
	return outcome
}
