package session

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/crmarques/boardprompt/faults"
)

const DefaultEditorCommand = "vi"

// EditorFunc runs the user's editor on path and blocks until it exits.
type EditorFunc func(path string) error

// CommandEditor builds an EditorFunc from a shell-less command string such
// as "vim" or "code --wait", attached to the given terminal streams.
func CommandEditor(command string, stdin io.Reader, stdout, stderr io.Writer) EditorFunc {
	return func(path string) error {
		trimmed := strings.TrimSpace(command)
		if trimmed == "" {
			trimmed = DefaultEditorCommand
		}

		parts := strings.Fields(trimmed)
		args := append(parts[1:], path)
		cmd := exec.Command(parts[0], args...)
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			return faults.Internal("editor command failed", err)
		}
		return nil
	}
}

// EditFile is the scoped temporary file handed to the external editor.
// Release deletes it unless Retain was called first; every edit cycle
// exit path runs Release.
type EditFile struct {
	path     string
	retained bool
}

func NewEditFile(initial string) (*EditFile, error) {
	tmp, err := os.CreateTemp("", "boardprompt-edit-*.yaml")
	if err != nil {
		return nil, faults.Internal("cannot create edit file", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(path)
		return nil, faults.Internal("cannot close edit file", err)
	}
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		_ = os.Remove(path)
		return nil, faults.Internal("cannot write edit file", err)
	}
	return &EditFile{path: path}, nil
}

func (f *EditFile) Path() string {
	return f.path
}

func (f *EditFile) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", faults.Internal("cannot read edited file", err)
	}
	return string(data), nil
}

// Retain keeps the file on disk so the user's edits survive for retry.
func (f *EditFile) Retain() {
	f.retained = true
}

func (f *EditFile) Release() {
	if f.retained {
		return
	}
	_ = os.Remove(f.path)
}
