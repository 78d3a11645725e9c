package cmd

import (
	"github.com/crmarques/boardprompt/resource"
	"github.com/spf13/cobra"
)

var cardTypes = []string{"Task", "Bug", "Story"}

func newNewCommand() *cobra.Command {
	var (
		summary     string
		description string
		cardType    string
		assignee    string
		toSprint    bool
	)

	cmd := &cobra.Command{
		Use:     "new",
		GroupID: groupBoard,
		Short:   "Create a new card",
		Long: `Creates a card in the configured project. With no flags an interactive
form collects the fields; flags skip the prompts for scripted use.`,
		Example: `  # Interactive
  boardprompt new

  # Scripted
  boardprompt new --summary "fix the gateway timeout" --type Bug --sprint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}

			if summary == "" {
				if !isInteractiveTerminal() {
					return usageError(cmd, "--summary is required in non-interactive mode")
				}
				prompt := newHuhPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				if summary, err = prompt.required("Summary"); err != nil {
					return err
				}
				if description, err = prompt.optional("Description"); err != nil {
					return err
				}
				if cardType, err = prompt.choice("Type", cardTypes, cardType); err != nil {
					return err
				}
				assignSelf, err := prompt.confirm("Assign to yourself?", true)
				if err != nil {
					return err
				}
				if assignSelf {
					assignee = runtime.Session.Board().UserID
				}
				if toSprint, err = prompt.confirm("Add to the active sprint?", false); err != nil {
					return err
				}
			}

			fields := resource.Fields{
				"summary": summary,
				"type":    cardType,
			}
			if description != "" {
				fields["description"] = description
			}
			if assignee != "" {
				fields["assignee"] = assignee
			}

			created, err := runtime.Client.Create(cmd.Context(), resource.TypeCard, fields)
			if err != nil {
				return err
			}

			if toSprint {
				board := runtime.Session.Board()
				if board.SprintName != "" {
					if err := runtime.Client.Update(cmd.Context(), resource.TypeCard, created.ID,
						resource.Fields{"sprint": board.SprintName}); err != nil {
						return err
					}
				}
			}

			if col, err := runtime.cards(cmd.Context()); err == nil {
				_, _ = col.Reload(cmd.Context())
			}
			successf(cmd, "created %s", created.ID)
			infof(cmd, "%s", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Card summary")
	cmd.Flags().StringVar(&description, "description", "", "Card description")
	cmd.Flags().StringVar(&cardType, "type", "Task", "Card type (Task, Bug, Story)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee")
	cmd.Flags().BoolVar(&toSprint, "sprint", false, "Add the card to the active sprint")

	return cmd
}
