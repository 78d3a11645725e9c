package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/yamlutil"
)

const (
	ConfigFileEnvVar  = "BOARDPROMPT_CONFIG"
	defaultConfigFile = "config.yaml"
	appConfigDir      = "boardprompt"
)

// DefaultPath resolves the config file location: $BOARDPROMPT_CONFIG if
// set, otherwise <user config dir>/boardprompt/config.yaml.
func DefaultPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv(ConfigFileEnvVar)); env != "" {
		return env, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", faults.Internal("cannot resolve user config directory", err)
	}
	return filepath.Join(base, appConfigDir, defaultConfigFile), nil
}

// Load reads and validates the session configuration. Unknown keys are
// rejected so typos surface instead of silently disabling features.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, faults.Validation("config file not found at "+path+"; create one to get started", err)
		}
		return Config{}, faults.Internal("cannot read config file "+path, err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, faults.Validation("config file "+path+" is invalid", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Tracker.BaseURL) == "" {
		return faults.Validation("tracker.base-url is required", nil)
	}
	if c.Tracker.Auth == nil {
		return faults.Validation("tracker.auth is required", nil)
	}

	modes := 0
	if c.Tracker.Auth.BasicAuth != nil {
		modes++
		if c.Tracker.Auth.BasicAuth.Username == "" {
			return faults.Validation("tracker.auth.basic-auth.username is required", nil)
		}
	}
	if c.Tracker.Auth.BearerToken != nil {
		modes++
		if c.Tracker.Auth.BearerToken.Token == "" {
			return faults.Validation("tracker.auth.bearer-token.token is required", nil)
		}
	}
	if modes != 1 {
		return faults.Validation("tracker.auth must define exactly one auth mode", nil)
	}

	if strings.TrimSpace(c.Board.Board) == "" {
		return faults.Validation("board.board is required", nil)
	}
	if strings.TrimSpace(c.Board.Project) == "" {
		return faults.Validation("board.project is required", nil)
	}

	for _, raw := range []string{c.Refresh.Interval, c.Refresh.CredentialMargin, c.Tracker.Timeout} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return faults.Validation("invalid duration "+raw+" in config", err)
		}
	}

	return nil
}
