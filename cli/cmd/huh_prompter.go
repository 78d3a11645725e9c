package cmd

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

type huhPrompter struct {
	stdin  io.Reader
	stdout io.Writer
}

func newHuhPrompter(stdin io.Reader, stdout io.Writer) *huhPrompter {
	return &huhPrompter{
		stdin:  stdin,
		stdout: stdout,
	}
}

func (h *huhPrompter) runField(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(false).
		WithInput(h.stdin).
		WithOutput(h.stdout)
	return form.Run()
}

func (h *huhPrompter) required(prompt string) (string, error) {
	var value string
	field := huh.NewInput().
		Title(prompt).
		Prompt("> ").
		Value(&value).
		Validate(func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("input required")
			}
			return nil
		})
	if err := h.runField(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (h *huhPrompter) optional(prompt string) (string, error) {
	var value string
	field := huh.NewInput().
		Title(prompt).
		Prompt("> ").
		Value(&value)
	if err := h.runField(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (h *huhPrompter) choice(label string, options []string, defaultValue string) (string, error) {
	selection := defaultValue
	opts := make([]huh.Option[string], 0, len(options))
	for _, option := range options {
		opts = append(opts, huh.NewOption(option, option))
	}

	field := huh.NewSelect[string]().
		Title(label).
		Options(opts...).
		Value(&selection)
	if err := h.runField(field); err != nil {
		return "", err
	}
	return selection, nil
}

func (h *huhPrompter) confirm(prompt string, defaultValue bool) (bool, error) {
	value := defaultValue
	field := huh.NewConfirm().
		Title(prompt).
		Value(&value)
	if err := h.runField(field); err != nil {
		return false, err
	}
	return value, nil
}
