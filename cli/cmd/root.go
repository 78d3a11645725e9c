package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	noStatusOutput bool
)

const (
	groupUtility = "utility"
	groupBoard   = "board"
)

// Execute runs the CLI against an already-wired session runtime. A nil
// runtime still serves help and version.
func Execute(runtime *App, args []string) error {
	app = runtime
	root := newRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func NewRootCommand() *cobra.Command {
	return newRootCommand()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boardprompt",
		Short: "Work an agile board from the terminal",
		Long: `boardprompt mirrors your board's cards, worklogs, and sprints locally
and round-trips edits through your editor.

Use the CLI to:
  - list and filter the cards on your board
  - edit card fields in bulk through your $EDITOR and apply the diff
  - log, review, and rewrite work time on cards`,
		Example: `  # List your cards in the active sprint
  boardprompt ls

  # Edit two cards side by side in your editor
  boardprompt edit PLAT-12 PLAT-34

  # Log half a day of work
  boardprompt card logwork PLAT-12 "4h"`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app != nil && isInteractiveTerminal() {
				return runShell(cmd)
			}
			return cmd.Help()
		},
		Args: cobra.NoArgs,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	configureUsage(cmd)

	cmd.PersistentFlags().BoolVar(&noStatusOutput, "no-status", false, "Suppress status messages and print only command output")
	cmd.PersistentFlags().String("config", "", "Config file path (default: $BOARDPROMPT_CONFIG or the user config dir)")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return usageError(cmd, err.Error())
	})

	cmd.AddGroup(&cobra.Group{ID: groupBoard, Title: "Board Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtility, Title: "Utility Commands:"})

	cmd.AddCommand(newLsCommand())
	cmd.AddCommand(newCardCommand())
	cmd.AddCommand(newEditCommand())
	cmd.AddCommand(newEditworkCommand())
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newWorkCommand())
	cmd.AddCommand(newSprintsCommand())
	cmd.AddCommand(newReloadCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
