// Package config loads and persists the exporter configuration file.
// Values may reference environment variables with $VAR or ${VAR}
// syntax; expansion happens before parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/quiettype/evernote2obsidian/internal/app/converter"
)

type Config struct {
	Database     string `yaml:"database"`
	OutputFolder string `yaml:"output_folder"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	Overwrite        bool `yaml:"overwrite"`
	ExportTrash      bool `yaml:"export_trash"`
	ExportEmptyNotes bool `yaml:"export_empty_notes"`
	PreserveTimes    bool `yaml:"preserve_file_times"`
	Jobs             int  `yaml:"jobs"`

	MaxPathLen      int  `yaml:"max_path_len"`
	MaxAttachmentMB int  `yaml:"max_attachment_mb"`
	CheckEmojis     bool `yaml:"check_emojis"`

	// Notebooks holds the GUIDs picked for export; empty means all.
	Notebooks []string `yaml:"notebooks"`

	Convert converter.Options `yaml:"convert"`
}

func Default() Config {
	return Config{
		Database:        "en_backup.db",
		OutputFolder:    "obsidian-vault",
		LogLevel:        "info",
		PreserveTimes:   true,
		Jobs:            4,
		MaxPathLen:      250,
		MaxAttachmentMB: 50,
		CheckEmojis:     true,
		Convert:         converter.DefaultOptions(),
	}
}

// Load reads a config file over the defaults. A missing file is not an
// error; the defaults come back untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config back, used to persist the notebook selection
// made in the picker.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config folder: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.OutputFolder, validation.Required),
		validation.Field(&c.LogLevel, validation.Required,
			validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Jobs, validation.Min(1)),
	)
	if err != nil {
		return err
	}
	return c.Convert.Validate()
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c Config) ScanLimits() converter.ScanLimits {
	return converter.ScanLimits{
		MaxPathLen:      c.MaxPathLen,
		MaxAttachmentMB: c.MaxAttachmentMB,
		CheckEmojis:     c.CheckEmojis,
	}
}
