package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chorusd/chorus/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	State      StateConfig      `koanf:"state"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Models     ModelsConfig     `koanf:"models"`
	Compliance ComplianceConfig `koanf:"compliance"`
	Backup     BackupConfig     `koanf:"backup"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

type StoreConfig struct {
	RootPath     string `koanf:"root_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
	InboxSize    int    `koanf:"inbox_size"`
}

type StateConfig struct {
	ContextWindow int `koanf:"context_window"`
}

type CatalogConfig struct {
	RolesFile     string `koanf:"roles_file"`
	ProvidersFile string `koanf:"providers_file"`
	DefaultConfig AIRef  `koanf:"default_config"`
}

// AIRef names a provider/model/role triple in configuration.
type AIRef struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	Role     string `koanf:"role"`
}

type ModelsConfig struct {
	Registry []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type ComplianceConfig struct {
	Enabled          bool `koanf:"enabled"`
	MinSummaryLength int  `koanf:"min_summary_length"`
}

type BackupConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
	Keep     int    `koanf:"keep"`
}

const (
	DefaultProjectID            = "default"
	DefaultLogLevel             = "info"
	DefaultStoreLockTimeout     = "30s"
	DefaultStoreLockRetry       = "100ms"
	DefaultStoreLockMaxRetry    = 300
	DefaultStoreInboxSize       = 100
	DefaultStateContextWindow   = 20
	DefaultCatalogProvider      = "anthropic"
	DefaultCatalogModel         = "claude-sonnet-4-20250514"
	DefaultCatalogRole          = "general_assistant"
	DefaultComplianceMinSummary = 30
	DefaultBackupSchedule       = "0 3 * * *"
	DefaultBackupKeep           = 10
	DefaultOpenAIBaseURL        = "https://api.openai.com/v1"
	DefaultXAIBaseURL           = "https://api.x.ai/v1"
	DefaultModelRequestTimeout  = "120s"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"logging.level":                   DefaultLogLevel,
		"store.root_path":                 "",
		"store.lock_timeout":              DefaultStoreLockTimeout,
		"store.lock_retry":                DefaultStoreLockRetry,
		"store.lock_max_retry":            DefaultStoreLockMaxRetry,
		"store.inbox_size":                DefaultStoreInboxSize,
		"state.context_window":            DefaultStateContextWindow,
		"catalog.roles_file":              "",
		"catalog.providers_file":          "",
		"catalog.default_config.provider": DefaultCatalogProvider,
		"catalog.default_config.model":    DefaultCatalogModel,
		"catalog.default_config.role":     DefaultCatalogRole,
		"models.registry": []ModelRegistry{
			{Name: "gpt-4o", Provider: "openai"},
			{Name: DefaultCatalogModel, Provider: "anthropic"},
			{Name: "gemini-2.0-flash", Provider: "google"},
		},
		"compliance.enabled":            true,
		"compliance.min_summary_length": DefaultComplianceMinSummary,
		"backup.enabled":                false,
		"backup.schedule":               DefaultBackupSchedule,
		"backup.keep":                   DefaultBackupKeep,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".chorus", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("CHORUS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CHORUS_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "openai"
		}
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "google", os.Getenv("GEMINI_API_KEY"))
	injectAPIKey(&cfg, "xai", os.Getenv("XAI_API_KEY"))

	return &cfg, nil
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	rootPath, err := expandConfiguredPath(cfg.Store.RootPath)
	if err != nil {
		return err
	}
	if rootPath != "" {
		cfg.Store.RootPath = rootPath
	}

	rolesFile, err := expandConfiguredPath(cfg.Catalog.RolesFile)
	if err != nil {
		return err
	}
	if rolesFile != "" {
		cfg.Catalog.RolesFile = rolesFile
	}

	providersFile, err := expandConfiguredPath(cfg.Catalog.ProvidersFile)
	if err != nil {
		return err
	}
	if providersFile != "" {
		cfg.Catalog.ProvidersFile = providersFile
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
