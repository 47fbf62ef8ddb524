package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ARAZZO_GRAPH_LOG_LEVEL.
const EnvPrefix = "ARAZZO_GRAPH"

// Config holds all arazzo-graph host configuration.
// Priority: env vars > settings file > defaults.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Layout   layout.Options `mapstructure:"layout"`
	Graph    struct {
		HideFailureEdges bool `mapstructure:"hide_failure_edges"`
	} `mapstructure:"graph"`
	Editor struct {
		HistoryLimit int `mapstructure:"history_limit"`
	} `mapstructure:"editor"`
	// Catalog lists OpenAPI descriptions whose methods seed new steps.
	Catalog struct {
		OpenAPI []string `mapstructure:"openapi"`
	} `mapstructure:"catalog"`
}

// Dir returns the per-user settings directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".arazzo-graph"
	}
	return filepath.Join(home, ".arazzo-graph")
}

// New returns a viper instance with defaults and env bindings. A non-empty
// path selects the settings file; otherwise settings.yaml is looked up in
// Dir() and the working directory.
func New(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	d := layout.DefaultOptions()
	v.SetDefault("log_level", "info")
	v.SetDefault("layout.orientation", string(d.Orientation))
	v.SetDefault("layout.pitch", d.Pitch)
	v.SetDefault("layout.branch_pitch", d.BranchPitch)
	v.SetDefault("layout.origin.x", d.Origin.X)
	v.SetDefault("layout.origin.y", d.Origin.Y)
	v.SetDefault("graph.hide_failure_edges", false)
	v.SetDefault("editor.history_limit", 100)
	v.SetDefault("catalog.openapi", []string{})
}

// Load reads the settings file, if any, and decodes the merged result. A
// missing default settings file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, schema.NewError(schema.ErrCodeValidation, "failed to read settings").WithCause(err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, schema.NewError(schema.ErrCodeValidation, "failed to decode settings").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the layout and editor cannot use.
func (c Config) Validate() error {
	switch c.Layout.Orientation {
	case layout.Vertical, layout.Horizontal:
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "layout.orientation must be %q or %q, got %q",
			layout.Vertical, layout.Horizontal, c.Layout.Orientation)
	}
	if c.Layout.Pitch < 0 || c.Layout.BranchPitch < 0 {
		return schema.NewError(schema.ErrCodeValidation, "layout pitches must not be negative")
	}
	if c.Editor.HistoryLimit < 1 {
		return schema.NewErrorf(schema.ErrCodeValidation, "editor.history_limit must be positive, got %d", c.Editor.HistoryLimit)
	}
	return nil
}

// Diff describes what changed between two configurations.
type Diff struct {
	LogLevelChanged bool
	LayoutChanged   bool
	GraphChanged    bool
	// RestartNeeded names settings that only apply to new sessions.
	RestartNeeded []string
}

// Compare reports the differences between old and new.
func Compare(old, new Config) Diff {
	var d Diff
	d.LogLevelChanged = old.LogLevel != new.LogLevel
	d.LayoutChanged = old.Layout != new.Layout
	d.GraphChanged = old.Graph != new.Graph
	if old.Editor != new.Editor {
		d.RestartNeeded = append(d.RestartNeeded, "editor.history_limit")
	}
	if strings.Join(old.Catalog.OpenAPI, "\x00") != strings.Join(new.Catalog.OpenAPI, "\x00") {
		d.RestartNeeded = append(d.RestartNeeded, "catalog.openapi")
	}
	return d
}

// Watch re-decodes the settings file whenever it changes and passes the
// previous and new configuration to onChange. Invalid edits are reported
// through onError and leave the previous configuration in place.
func Watch(v *viper.Viper, current Config, onChange func(old, new Config), onError func(error)) {
	v.OnConfigChange(func(fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		old := current
		current = next
		onChange(old, next)
	})
	v.WatchConfig()
}
