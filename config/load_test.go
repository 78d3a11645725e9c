package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
tracker:
  base-url: https://tracker.example.com
  auth:
    basic-auth:
      username: alice
      password: s3cret
board:
  board: Platform Board
  project: PLAT
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracker.BaseURL != "https://tracker.example.com" {
		t.Fatalf("base url = %q", cfg.Tracker.BaseURL)
	}
	if cfg.Tracker.Auth.BasicAuth.Username != "alice" {
		t.Fatalf("auth = %+v", cfg.Tracker.Auth)
	}
	if cfg.Board.Project != "PLAT" {
		t.Fatalf("project = %q", cfg.Board.Project)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "missing base url",
			content: `
tracker:
  auth:
    basic-auth: {username: alice, password: x}
board: {board: B, project: P}
`,
		},
		{
			name: "no auth mode",
			content: `
tracker:
  base-url: https://t.example.com
  auth: {}
board: {board: B, project: P}
`,
		},
		{
			name: "both auth modes",
			content: `
tracker:
  base-url: https://t.example.com
  auth:
    basic-auth: {username: alice, password: x}
    bearer-token: {token: abc}
board: {board: B, project: P}
`,
		},
		{
			name: "missing board",
			content: `
tracker:
  base-url: https://t.example.com
  auth:
    bearer-token: {token: abc}
board: {project: P}
`,
		},
		{
			name: "unknown key",
			content: validConfig + "\nunknown-section: true\n",
		},
		{
			name: "bad refresh interval",
			content: validConfig + `
refresh:
  interval: five minutes
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if !faults.IsCategory(err, faults.ValidationError) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("message must mention the missing file: %v", err)
	}
}

func TestEditableKeysDefaultsAndOverride(t *testing.T) {
	var cfg Config
	keys := cfg.EditableKeysFor(resource.TypeCard)
	if len(keys) == 0 || keys[0] != "summary" {
		t.Fatalf("card defaults = %v", keys)
	}
	if got := cfg.EditableKeysFor(resource.TypeSprint); len(got) != 0 {
		t.Fatalf("sprints are read-only by default, got %v", got)
	}

	cfg.EditableKeys = map[string][]string{"card": {"status"}}
	if got := cfg.EditableKeysFor(resource.TypeCard); len(got) != 1 || got[0] != "status" {
		t.Fatalf("override not honored: %v", got)
	}
}

func TestRefreshDurationsFallBack(t *testing.T) {
	var cfg Config
	if cfg.RefreshInterval() != DefaultRefreshInterval {
		t.Fatalf("interval = %v", cfg.RefreshInterval())
	}
	cfg.Refresh.Interval = "30s"
	cfg.Refresh.CredentialMargin = "2m"
	if cfg.RefreshInterval() != 30*time.Second {
		t.Fatalf("interval = %v", cfg.RefreshInterval())
	}
	if cfg.CredentialMargin() != 2*time.Minute {
		t.Fatalf("margin = %v", cfg.CredentialMargin())
	}
}

func TestDefaultPathHonorsEnvOverride(t *testing.T) {
	t.Setenv(ConfigFileEnvVar, "/tmp/custom.yaml")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if path != "/tmp/custom.yaml" {
		t.Fatalf("path = %q", path)
	}
}
