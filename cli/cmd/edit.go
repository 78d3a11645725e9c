package cmd

import (
	"fmt"
	"strings"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/session"
	"github.com/spf13/cobra"
)

func newEditCommand() *cobra.Command {
	var (
		mine   bool
		sprint string
	)

	cmd := &cobra.Command{
		Use:     "edit [key]...",
		GroupID: groupBoard,
		Short:   "Edit cards in your editor and apply the changes",
		Long: `Opens the selected cards as a YAML buffer in your editor. Edit the
fields you want and save; only the changed fields are sent to the
tracker. Lines starting with "#" are ignored. Deleting a card's block
leaves that card untouched.`,
		Example: `  # Edit two specific cards
  boardprompt edit PLAT-12 PLAT-34

  # Edit all of your cards in the active sprint
  boardprompt edit --mine`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}

			col, err := runtime.cards(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(args))
			for _, arg := range args {
				keys = append(keys, cardKeyArg(arg))
			}
			if len(keys) == 0 {
				selected, err := col.SelectWhere(func(card resource.Resource) bool {
					if mine && card.Fields["assignee"] != runtime.Session.Board().UserID {
						return false
					}
					if sprint != "" && card.Fields["sprint"] != sprint {
						return false
					}
					return true
				})
				if err != nil {
					return err
				}
				for _, card := range selected {
					keys = append(keys, card.ID)
				}
			}
			if len(keys) == 0 {
				infof(cmd, "nothing to edit")
				return nil
			}

			outcome := session.NewEditSession(col, runtime.Editor, runtime.Logger).Run(cmd.Context(), keys)
			return renderEditOutcome(cmd, outcome)
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Edit only cards assigned to you")
	cmd.Flags().StringVar(&sprint, "sprint", "", "Edit only cards in this sprint")

	return cmd
}

// renderEditOutcome translates an edit cycle result into user output.
// The returned error keeps the typed category so the exit code reflects
// what happened.
func renderEditOutcome(cmd *cobra.Command, outcome session.Outcome) error {
	switch {
	case outcome.Err == nil && outcome.NoChanges:
		infof(cmd, "no changes")
		return nil
	case outcome.Err == nil:
		successf(cmd, "applied %d change(s): %s", len(outcome.Applied), strings.Join(outcome.Applied, ", "))
		for id, err := range outcome.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s failed: %v\n", id, err)
		}
		return nil
	case outcome.State == session.StateRejected:
		fmt.Fprintf(cmd.ErrOrStderr(), "edit rejected: %v\n", outcome.Err)
		if outcome.RetainedFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "your edits were kept at %s\n", outcome.RetainedFile)
		}
		return outcome.Err
	case outcome.State == session.StateConflicted:
		fmt.Fprintln(cmd.ErrOrStderr(), "the board changed while you were editing; nothing was applied")
		if !outcome.Drift.Empty() {
			renderDrift(cmd.ErrOrStderr(), resource.TypeCard, outcome.Drift)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "re-run the edit against the refreshed state")
		return outcome.Err
	default:
		return outcome.Err
	}
}
