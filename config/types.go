// Package config holds the session configuration: tracker connection,
// board selection, editable-field allow-lists, and refresh policy. It is
// loaded once at session start and not revisited by the core.
package config

import (
	"time"

	"github.com/crmarques/boardprompt/resource"
)

const (
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultCredentialMargin = 10 * time.Minute
)

type Config struct {
	Tracker      Tracker             `yaml:"tracker"`
	Board        Board               `yaml:"board"`
	EditableKeys map[string][]string `yaml:"editable-keys,omitempty"`
	Refresh      Refresh             `yaml:"refresh,omitempty"`
	Editor       string              `yaml:"editor,omitempty"`
	Log          Log                 `yaml:"log,omitempty"`
}

type Tracker struct {
	BaseURL        string            `yaml:"base-url"`
	Auth           *Auth             `yaml:"auth"`
	DefaultHeaders map[string]string `yaml:"default-headers,omitempty"`
	TLS            *TLS              `yaml:"tls,omitempty"`
	Timeout        string            `yaml:"timeout,omitempty"`
}

type Auth struct {
	BasicAuth   *BasicAuth       `yaml:"basic-auth,omitempty"`
	BearerToken *BearerTokenAuth `yaml:"bearer-token,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BearerTokenAuth struct {
	Token string `yaml:"token"`
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

type Board struct {
	// Board is the agile board name or numeric id.
	Board string `yaml:"board"`
	// Project is the project key, name, or numeric id.
	Project string `yaml:"project"`
}

type Refresh struct {
	Interval         string `yaml:"interval,omitempty"`
	CredentialMargin string `yaml:"credential-margin,omitempty"`
}

type Log struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// defaultEditableKeys is the allow-list applied when the config does not
// override a resource type. Declaration order is the field order shown in
// edit buffers.
var defaultEditableKeys = map[resource.Type][]string{
	resource.TypeCard:    {"summary", "status", "assignee", "component", "labels", "sprint", "timeleft"},
	resource.TypeWorklog: {"timeSpent", "started", "comment"},
	resource.TypeSprint:  {},
}

// EditableKeysFor returns the configured allow-list for one resource
// type, falling back to the built-in defaults.
func (c Config) EditableKeysFor(typ resource.Type) []string {
	if keys, ok := c.EditableKeys[string(typ)]; ok {
		out := make([]string, len(keys))
		copy(out, keys)
		return out
	}
	defaults := defaultEditableKeys[typ]
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// RefreshInterval returns the configured collection re-fetch interval.
func (c Config) RefreshInterval() time.Duration {
	return parseDurationOr(c.Refresh.Interval, DefaultRefreshInterval)
}

// CredentialMargin returns the remaining-validity threshold below which
// the refresher renews the session credential.
func (c Config) CredentialMargin() time.Duration {
	return parseDurationOr(c.Refresh.CredentialMargin, DefaultCredentialMargin)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
