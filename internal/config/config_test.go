package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("XAI_API_KEY", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultLogLevel, cfg.Logging.Level)
	}
	if cfg.Store.LockTimeout != DefaultStoreLockTimeout {
		t.Errorf("Expected default store lock timeout %s, got %s", DefaultStoreLockTimeout, cfg.Store.LockTimeout)
	}
	if cfg.Store.LockRetry != DefaultStoreLockRetry {
		t.Errorf("Expected default store lock retry %s, got %s", DefaultStoreLockRetry, cfg.Store.LockRetry)
	}
	if cfg.Store.LockMaxRetry != DefaultStoreLockMaxRetry {
		t.Errorf("Expected default store lock max retry %d, got %d", DefaultStoreLockMaxRetry, cfg.Store.LockMaxRetry)
	}
	if cfg.Store.InboxSize != DefaultStoreInboxSize {
		t.Errorf("Expected default store inbox size %d, got %d", DefaultStoreInboxSize, cfg.Store.InboxSize)
	}
	if cfg.State.ContextWindow != DefaultStateContextWindow {
		t.Errorf("Expected default context window %d, got %d", DefaultStateContextWindow, cfg.State.ContextWindow)
	}
	if cfg.Catalog.DefaultConfig.Provider != DefaultCatalogProvider {
		t.Errorf("Expected default catalog provider %s, got %s", DefaultCatalogProvider, cfg.Catalog.DefaultConfig.Provider)
	}
	if cfg.Catalog.DefaultConfig.Model != DefaultCatalogModel {
		t.Errorf("Expected default catalog model %s, got %s", DefaultCatalogModel, cfg.Catalog.DefaultConfig.Model)
	}
	if cfg.Catalog.DefaultConfig.Role != DefaultCatalogRole {
		t.Errorf("Expected default catalog role %s, got %s", DefaultCatalogRole, cfg.Catalog.DefaultConfig.Role)
	}
	if !cfg.Compliance.Enabled {
		t.Error("Expected compliance enabled by default")
	}
	if cfg.Compliance.MinSummaryLength != DefaultComplianceMinSummary {
		t.Errorf("Expected default min summary length %d, got %d", DefaultComplianceMinSummary, cfg.Compliance.MinSummaryLength)
	}
	if cfg.Backup.Enabled {
		t.Error("Expected backup disabled by default")
	}
	if cfg.Backup.Schedule != DefaultBackupSchedule {
		t.Errorf("Expected default backup schedule %s, got %s", DefaultBackupSchedule, cfg.Backup.Schedule)
	}
	if cfg.Backup.Keep != DefaultBackupKeep {
		t.Errorf("Expected default backup keep %d, got %d", DefaultBackupKeep, cfg.Backup.Keep)
	}
	if len(cfg.Models.Registry) != 3 {
		t.Fatalf("Expected 3 default registry entries, got %d", len(cfg.Models.Registry))
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
logging:
  level: debug
state:
  context_window: 7
compliance:
  enabled: false
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config with --config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.State.ContextWindow != 7 {
		t.Fatalf("expected context window 7, got %d", cfg.State.ContextWindow)
	}
	if cfg.Compliance.Enabled {
		t.Fatal("expected compliance disabled via config file")
	}
	// Untouched sections keep their defaults.
	if cfg.Backup.Schedule != DefaultBackupSchedule {
		t.Fatalf("expected default backup schedule, got %s", cfg.Backup.Schedule)
	}
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error when --config points to missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHORUS_LOGGING_LEVEL", "warn")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env override warn, got %s", cfg.Logging.Level)
	}
}

func TestLoad_ExpandsConfiguredPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
store:
  root_path: ~/.chorus/projects
catalog:
  roles_file: ~/.chorus/roles.yaml
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	wantRoot := filepath.Join(tmpDir, ".chorus", "projects")
	if cfg.Store.RootPath != wantRoot {
		t.Fatalf("store root = %q, want %q", cfg.Store.RootPath, wantRoot)
	}
	wantRoles := filepath.Join(tmpDir, ".chorus", "roles.yaml")
	if cfg.Catalog.RolesFile != wantRoles {
		t.Fatalf("roles file = %q, want %q", cfg.Catalog.RolesFile, wantRoles)
	}
}

func TestLoad_InjectsAPIKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("XAI_API_KEY", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	found := false
	for _, m := range cfg.Models.Registry {
		if m.Provider == "anthropic" {
			found = true
			if m.APIKey != "sk-ant-test" {
				t.Fatalf("anthropic api key = %q, want injected env value", m.APIKey)
			}
		}
	}
	if !found {
		t.Fatal("no anthropic entry in default registry")
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("250ms", "1s")
	if err != nil {
		t.Fatalf("parse explicit value: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", d)
	}

	d, err = DurationOrDefault("  ", "1s")
	if err != nil {
		t.Fatalf("fallback to default: %v", err)
	}
	if d != time.Second {
		t.Fatalf("expected 1s, got %s", d)
	}

	if _, err := DurationOrDefault("soon", "1s"); err == nil {
		t.Fatal("expected error for unparseable value")
	}
	if _, err := DurationOrDefault("", ""); err == nil {
		t.Fatal("expected error when both values are empty")
	}
}
