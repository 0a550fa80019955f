package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/otel"
	"github.com/emiliopalmerini/usagetrack/internal/util"
)

// HookTypeEnv carries the event kind from the hook binding to the tracker.
const HookTypeEnv = "CLAUDE_HOOK_TYPE"

const (
	defaultDBFile = "usage-tracking.db"
	defaultLogDir = "usage-logs"
)

// Storage holds where the tracker keeps its data.
type Storage struct {
	DBPath string `envconfig:"USAGETRACK_DB_PATH"`
	LogDir string `envconfig:"USAGETRACK_LOG_DIR"`
}

// Logging holds diagnostic output settings.
type Logging struct {
	Level string `envconfig:"USAGETRACK_LOG_LEVEL" default:"warn"`
}

// Tracker holds configuration for the hook tracker.
type Tracker struct {
	Storage Storage
	Logging Logging
	OTEL    otel.Config
}

// LoadTracker loads tracker configuration from environment variables.
// Storage paths default to files under ~/.claude.
//
// A variable that fails to parse resets its group to the defaults and is
// reported in the returned error, alongside a usable configuration. Only a
// failure to resolve the storage paths returns a nil configuration.
func LoadTracker() (*Tracker, error) {
	var cfg Tracker
	var errs []error

	if err := envconfig.Process("", &cfg.Storage); err != nil {
		cfg.Storage = Storage{}
		errs = append(errs, err)
	}
	if err := envconfig.Process("", &cfg.Logging); err != nil {
		cfg.Logging = Logging{}
		errs = append(errs, err)
	}
	otelCfg, err := otel.LoadConfig()
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.OTEL = otelCfg
	}

	if err := cfg.Storage.resolve(); err != nil {
		return nil, err
	}
	return &cfg, errors.Join(errs...)
}

func (s *Storage) resolve() error {
	if s.DBPath == "" || s.LogDir == "" {
		claudeDir, err := util.ClaudeDir()
		if err != nil {
			return err
		}
		if s.DBPath == "" {
			s.DBPath = filepath.Join(claudeDir, defaultDBFile)
		}
		if s.LogDir == "" {
			s.LogDir = filepath.Join(claudeDir, defaultLogDir)
		}
	}

	var err error
	if s.DBPath, err = util.ExpandHome(s.DBPath); err != nil {
		return err
	}
	if s.LogDir, err = util.ExpandHome(s.LogDir); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured level name.
func (l Logging) SlogLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}
