package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/timeutil"
	"github.com/spf13/cobra"
)

func newCardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "card",
		GroupID: groupBoard,
		Short:   "Operate on a single card",
		Example: `  boardprompt card assign PLAT-12 bob
  boardprompt card status PLAT-12 "In Progress"
  boardprompt card logwork PLAT-12 "2h 30m" --comment "review"
  boardprompt card backlog PLAT-12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newCardAssignCommand(),
		newCardStatusCommand(),
		newCardComponentCommand(),
		newCardLabelsCommand(),
		newCardTimeleftCommand(),
		newCardLogworkCommand(),
		newCardWorklogsCommand(),
		newCardPullCommand(),
		newCardBacklogCommand(),
		newCardRemoveCommand(),
	)

	return cmd
}

func cardKeyArg(arg string) string {
	return strings.ToUpper(strings.TrimSpace(arg))
}

// updateCard applies a direct field change and refreshes the local
// mirror so the next read reflects it.
func updateCard(ctx context.Context, runtime *App, key string, changed resource.Fields) error {
	col, err := runtime.cards(ctx)
	if err != nil {
		return err
	}
	if _, err := col.Select(key); err != nil {
		return err
	}
	if err := runtime.Client.Update(ctx, resource.TypeCard, key, changed); err != nil {
		return err
	}
	_, err = col.Reload(ctx)
	return err
}

func newCardAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <key> <user>",
		Short: "Assign the card to a user (\"me\" for yourself)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			assignee := args[1]
			if assignee == "me" {
				assignee = runtime.Session.Board().UserID
			}
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"assignee": assignee}); err != nil {
				return err
			}
			successf(cmd, "%s assigned to %s", key, assignee)
			return nil
		},
	}
}

func newCardStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <key> <status>",
		Short: "Transition the card to a workflow status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"status": args[1]}); err != nil {
				return err
			}
			successf(cmd, "%s moved to %s", key, args[1])
			return nil
		},
	}
}

func newCardComponentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "component <key> [name]",
		Short: "Set the card's component (no name clears it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			component := ""
			if len(args) == 2 {
				component = args[1]
			}
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"component": component}); err != nil {
				return err
			}
			successf(cmd, "%s component set", key)
			return nil
		},
	}
}

func newCardLabelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <key> [label]...",
		Short: "Replace the card's labels (no labels clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			labels := make([]any, 0, len(args)-1)
			for _, label := range args[1:] {
				labels = append(labels, label)
			}
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"labels": labels}); err != nil {
				return err
			}
			successf(cmd, "%s labels set", key)
			return nil
		},
	}
}

func newCardTimeleftCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "timeleft <key> <estimate>",
		Short: "Set the remaining time estimate (e.g. \"2h 30m\", or 0)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			estimate := timeutil.SanitizeWorklog(args[1])
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"timeleft": estimate}); err != nil {
				return err
			}
			successf(cmd, "%s time left set to %s", key, estimate)
			return nil
		},
	}
}

func newCardLogworkCommand() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "logwork <key> <time>",
		Short: "Log work time on the card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])

			spent := timeutil.SanitizeWorklog(args[1])
			if _, err := timeutil.ParseWorklogSeconds(spent); err != nil {
				return usageError(cmd, err.Error())
			}

			fields := resource.Fields{"card": key, "timeSpent": spent}
			if comment != "" {
				fields["comment"] = comment
			}
			created, err := runtime.Client.Create(cmd.Context(), resource.TypeWorklog, fields)
			if err != nil {
				return err
			}
			successf(cmd, "logged %s on %s (worklog %s)", spent, key, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Worklog comment")
	return cmd
}

func newCardWorklogsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "worklogs <key>",
		Short: "List the card's worklogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			if err := validateOutputFormat(output); err != nil {
				return usageError(cmd, err.Error())
			}

			col, err := runtime.worklogs(cmd.Context(), key)
			if err != nil {
				return err
			}
			worklogs := col.Current().Resources()
			if err := renderResources(cmd.OutOrStdout(), output, worklogs); err != nil {
				return err
			}
			if output == outputFormatTable && len(worklogs) > 0 {
				renderWorklogTotal(cmd.OutOrStdout(), worklogs)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputFormatTable, "Output format (table, yaml)")
	return cmd
}

func newCardPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <key>",
		Short: "Pull the card into the active sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			board := runtime.Session.Board()
			if board.SprintName == "" {
				return usageError(cmd, "the board has no active sprint to pull into")
			}
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"sprint": board.SprintName}); err != nil {
				return err
			}
			successf(cmd, "%s pulled into %s", key, board.SprintName)
			return nil
		},
	}
}

func newCardBacklogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backlog <key>",
		Short: "Move the card to the backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			if err := updateCard(cmd.Context(), runtime, key, resource.Fields{"sprint": "backlog"}); err != nil {
				return err
			}
			successf(cmd, "%s moved to the backlog", key)
			return nil
		},
	}
}

func newCardRemoveCommand() *cobra.Command {
	var skipPrompt bool

	cmd := &cobra.Command{
		Use:   "remove <key>",
		Short: "Delete the card from the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			key := cardKeyArg(args[0])
			if err := confirmAction(cmd, skipPrompt, fmt.Sprintf("Delete %s permanently?", key)); err != nil {
				return err
			}
			if err := runtime.Client.Delete(cmd.Context(), resource.TypeCard, key); err != nil {
				return err
			}
			if col, err := runtime.cards(cmd.Context()); err == nil {
				_, _ = col.Reload(cmd.Context())
			}
			successf(cmd, "%s deleted", key)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&skipPrompt, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
