package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type handledError struct {
	msg string
}

func (handledError) handledMarker() {}

func (e handledError) Error() string {
	return e.msg
}

type handled interface {
	handledMarker()
}

func IsHandledError(err error) bool {
	if err == nil {
		return false
	}
	var h handled
	return errors.As(err, &h)
}

func usageError(cmd *cobra.Command, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "invalid command usage"
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

	return handledError{msg: msg}
}

// requireSession guards commands that need the tracker connection, which
// is absent on help-only invocations.
func requireSession(cmd *cobra.Command) (*App, error) {
	if app == nil || app.Session == nil {
		return nil, usageError(cmd, "no tracker session; check your configuration")
	}
	return app, nil
}

func successf(cmd *cobra.Command, format string, args ...any) {
	if noStatusOutput {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[OK] "+format+"\n", args...)
}

func infof(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func confirmAction(cmd *cobra.Command, skipPrompt bool, message string) error {
	if skipPrompt {
		return nil
	}
	prompt := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	confirmed, err := prompt.confirm(message, false)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
		return handledError{msg: "operation cancelled"}
	}
	return nil
}
