package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// runShell is the interactive session: a prompt loop dispatching lines
// into the command tree while the refresher keeps the mirror fresh in
// the background.
func runShell(cmd *cobra.Command) error {
	runtime, err := requireSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fatal := make(chan error, 1)
	go func() {
		if err := runtime.Refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatal <- err
		}
	}()

	board := runtime.Session.Board()
	fmt.Fprintf(cmd.OutOrStdout(), "connected to %s", board.ProjectID)
	if board.SprintName != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)", board.SprintName)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), `type a command ("ls", "edit PLAT-12", ...), "help", or "exit"`)

	prompt := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	for {
		select {
		case err := <-fatal:
			fmt.Fprintf(cmd.ErrOrStderr(), "session ended: %v\n", err)
			return err
		default:
		}

		line, err := prompt.readLine("boardprompt> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		args, err := splitShellLine(line)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		if len(args) == 1 && (args[0] == "exit" || args[0] == "quit") {
			return nil
		}

		dispatch := newRootCommand()
		dispatch.SetIn(cmd.InOrStdin())
		dispatch.SetOut(cmd.OutOrStdout())
		dispatch.SetErr(cmd.ErrOrStderr())
		dispatch.SetArgs(args)
		dispatch.SetContext(ctx)
		if err := dispatch.Execute(); err != nil && !IsHandledError(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
}

// splitShellLine tokenizes a prompt line, honoring single and double
// quotes so summaries and comments can contain spaces.
func splitShellLine(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inToken bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unclosed %c quote", quote)
	}
	if inToken {
		args = append(args, current.String())
	}
	return args, nil
}
