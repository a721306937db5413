package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/quiettype/evernote2obsidian/internal/app/converter"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "en_backup.db" || cfg.Jobs != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Convert.Dialect != converter.DialectMarkdownHTML {
		t.Errorf("dialect = %q", cfg.Convert.Dialect)
	}
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("VAULT_HOME", "/tmp/vaults")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database: my.db
output_folder: ${VAULT_HOME}/main
log_level: debug
jobs: 2
notebooks:
  - nb1
convert:
  dialect: markdown
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputFolder != "/tmp/vaults/main" {
		t.Errorf("output = %q", cfg.OutputFolder)
	}
	if cfg.LogLevel != "debug" || cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %q", cfg.LogLevel)
	}
	if len(cfg.Notebooks) != 1 || cfg.Notebooks[0] != "nb1" {
		t.Errorf("notebooks = %v", cfg.Notebooks)
	}
	if cfg.Convert.Dialect != converter.DialectMarkdown {
		t.Errorf("dialect = %q", cfg.Convert.Dialect)
	}
	// untouched keys keep their defaults
	if cfg.MaxPathLen != 250 {
		t.Errorf("max path len = %d", cfg.MaxPathLen)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Notebooks = []string{"nb7"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Notebooks) != 1 || loaded.Notebooks[0] != "nb7" {
		t.Errorf("notebooks = %v", loaded.Notebooks)
	}
}
