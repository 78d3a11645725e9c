package cmd

import (
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
	"github.com/spf13/cobra"
)

func newLsCommand() *cobra.Command {
	var (
		sprint   string
		assignee string
		status   string
		text     string
		mine     bool
		output   string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		GroupID: groupBoard,
		Short:   "List cards on the board",
		Example: `  # All cards in the active sprint
  boardprompt ls

  # Your cards only
  boardprompt ls --mine

  # Backlog cards mentioning "gateway"
  boardprompt ls --sprint backlog --text gateway`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			if err := validateOutputFormat(output); err != nil {
				return usageError(cmd, err.Error())
			}

			query := server.Query{
				Sprint:   sprint,
				Assignee: assignee,
				Status:   status,
				Text:     text,
			}
			if mine {
				query.Assignee = runtime.Session.Board().UserID
			}

			col, _ := runtime.Session.Collection(resource.TypeCard)
			snapshot, err := col.Load(cmd.Context(), query)
			if err != nil {
				return err
			}

			return renderResources(cmd.OutOrStdout(), output, snapshot.Resources())
		},
	}

	cmd.Flags().StringVar(&sprint, "sprint", "", "Sprint name, id, or \"backlog\" (default: active sprint)")
	cmd.Flags().StringVar(&assignee, "user", "", "Filter by assignee")
	cmd.Flags().StringVar(&status, "status", "", "Filter by workflow status")
	cmd.Flags().StringVar(&text, "text", "", "Filter by summary text")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only cards assigned to you")
	cmd.Flags().StringVarP(&output, "output", "o", outputFormatTable, "Output format (table, yaml)")

	return cmd
}

func newSprintsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "sprints",
		GroupID: groupBoard,
		Short:   "List the sprints of the configured board",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			if err := validateOutputFormat(output); err != nil {
				return usageError(cmd, err.Error())
			}

			col, err := runtime.sprints(cmd.Context())
			if err != nil {
				return err
			}
			return renderResources(cmd.OutOrStdout(), output, col.Current().Resources())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputFormatTable, "Output format (table, yaml)")
	return cmd
}
