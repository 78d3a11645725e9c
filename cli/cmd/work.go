package cmd

import (
	"time"

	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
	"github.com/crmarques/boardprompt/timeutil"
	"github.com/spf13/cobra"
)

func newWorkCommand() *cobra.Command {
	var (
		yesterday bool
		output    string
	)

	cmd := &cobra.Command{
		Use:     "work",
		GroupID: groupBoard,
		Short:   "Show the work you logged today",
		Example: `  boardprompt work
  boardprompt work --yesterday`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}
			if err := validateOutputFormat(output); err != nil {
				return usageError(cmd, err.Error())
			}

			// read straight through the client so the session's card and
			// worklog snapshots keep their scope
			board := runtime.Session.Board()
			cards, err := runtime.Client.Fetch(cmd.Context(), resource.TypeCard, server.Query{Assignee: board.UserID})
			if err != nil {
				return err
			}

			now := time.Now()
			matches := func(at time.Time) bool { return timeutil.IsToday(at, now) }
			if yesterday {
				matches = func(at time.Time) bool { return timeutil.IsYesterday(at, now) }
			}

			var logged []resource.Resource
			for _, card := range cards {
				worklogs, err := runtime.Client.Fetch(cmd.Context(), resource.TypeWorklog, server.Query{CardID: card.ID})
				if err != nil {
					return err
				}
				for _, worklog := range worklogs {
					if author := fieldString(worklog, "author"); author != "" && author != board.UserID {
						continue
					}
					started, err := timeutil.ParseStarted(fieldString(worklog, "started"))
					if err != nil {
						continue
					}
					if matches(started) {
						logged = append(logged, worklog)
					}
				}
			}

			if err := renderResources(cmd.OutOrStdout(), output, logged); err != nil {
				return err
			}
			if output == outputFormatTable && len(logged) > 0 {
				renderWorklogTotal(cmd.OutOrStdout(), logged)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yesterday, "yesterday", false, "Show yesterday's work instead")
	cmd.Flags().StringVarP(&output, "output", "o", outputFormatTable, "Output format (table, yaml)")

	return cmd
}
