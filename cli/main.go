package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/crmarques/boardprompt/cli/cmd"
	"github.com/crmarques/boardprompt/config"
	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/internal/logging"
)

func main() {
	args := os.Args[1:]

	var runtime *cmd.App
	if !isHelpInvocation(args) {
		built, err := bootstrap(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(exitCodeForError(err))
		}
		runtime = built
	}
	defer logging.Close()

	if err := cmd.Execute(runtime, args); err != nil {
		if !cmd.IsHandledError(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(exitCodeForError(err))
	}
}

func bootstrap(args []string) (*cmd.App, error) {
	path := configPathFromArgs(args)
	if path == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.DefaultLogFile()
	}
	logger, err := logging.Setup(logFile, cfg.Log.Level, len(args) == 0)
	if err != nil {
		return nil, err
	}

	return cmd.NewApp(context.Background(), cfg, logger)
}

func configPathFromArgs(args []string) string {
	for idx := 0; idx < len(args); idx++ {
		current := args[idx]
		if current == "--config" {
			if idx+1 < len(args) {
				return args[idx+1]
			}
			return ""
		}
		if strings.HasPrefix(current, "--config=") {
			return strings.TrimPrefix(current, "--config=")
		}
	}
	return ""
}

func isHelpInvocation(args []string) bool {
	if len(args) == 0 {
		return false
	}
	if args[0] == "help" || args[0] == "version" || args[0] == "completion" {
		return true
	}
	for _, current := range args {
		if current == "--" {
			break
		}
		if current == "--help" || current == "-h" {
			return true
		}
	}
	return false
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	switch faults.CategoryOf(err) {
	case faults.ValidationError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.AuthError:
		return 4
	case faults.ConflictError:
		return 5
	case faults.RemoteError:
		return 6
	default:
		return 1
	}
}
