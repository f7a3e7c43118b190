package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/chorusd/chorus/internal/config"
	chorusErrors "github.com/chorusd/chorus/internal/errors"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AIConfig is the provider/model/role triple that handles a turn.
// It is a value object: compared by value, never mutated.
type AIConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Role     string `json:"role"`
}

func (c AIConfig) String() string {
	return c.Provider + "/" + c.Model + "/" + c.Role
}

type Category string

const (
	CategoryEngineering Category = "engineering"
	CategoryAssistant   Category = "assistant"
)

// Role is data, not code: sourced from configuration, referenced by name
// inside events and configs.
type Role struct {
	Name              string   `koanf:"name" json:"name"`
	Title             string   `koanf:"title" json:"title"`
	Category          Category `koanf:"category" json:"category"`
	Responsibilities  []string `koanf:"responsibilities" json:"responsibilities"`
	PrincipleEnforced bool     `koanf:"principle_enforced" json:"principle_enforced"`
	BasePrompt        string   `koanf:"base_prompt" json:"base_prompt,omitempty"`
}

// Provider describes a known AI backend and the models it serves.
type Provider struct {
	Name            string   `koanf:"name" json:"name"`
	Models          []string `koanf:"models" json:"models"`
	Characteristics string   `koanf:"characteristics" json:"characteristics,omitempty"`
}

// Catalog is the validated, query-only view of role and provider
// configuration. The core never mutates it.
type Catalog struct {
	roles     map[string]Role
	providers map[string]Provider
	defaults  AIConfig
}

type overlay struct {
	Roles     []Role     `koanf:"roles"`
	Providers []Provider `koanf:"providers"`
}

// Load builds a catalog from the built-in defaults plus optional YAML
// overlay files, validated once here so the core can trust every lookup.
func Load(cfg config.CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		roles:     make(map[string]Role),
		providers: make(map[string]Provider),
		defaults: AIConfig{
			Provider: cfg.DefaultConfig.Provider,
			Model:    cfg.DefaultConfig.Model,
			Role:     cfg.DefaultConfig.Role,
		},
	}

	for _, r := range builtinRoles() {
		c.roles[r.Name] = r
	}
	for _, p := range builtinProviders() {
		c.providers[p.Name] = p
	}

	if err := c.applyOverlay(cfg.RolesFile); err != nil {
		return nil, err
	}
	if err := c.applyOverlay(cfg.ProvidersFile); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) applyOverlay(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	if _, err := os.Stat(trimmed); os.IsNotExist(err) {
		slog.Debug("Catalog overlay not found, using defaults", "path", trimmed)
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(trimmed), yaml.Parser()); err != nil {
		return fmt.Errorf("load catalog overlay %s: %w", trimmed, err)
	}

	var o overlay
	if err := k.Unmarshal("", &o); err != nil {
		return fmt.Errorf("parse catalog overlay %s: %w", trimmed, err)
	}

	for _, r := range o.Roles {
		if r.Name == "" {
			return fmt.Errorf("catalog overlay %s: role without a name", trimmed)
		}
		c.roles[r.Name] = r
	}
	for _, p := range o.Providers {
		if p.Name == "" {
			return fmt.Errorf("catalog overlay %s: provider without a name", trimmed)
		}
		c.providers[p.Name] = p
	}

	return nil
}

func (c *Catalog) validate() error {
	for name, r := range c.roles {
		switch r.Category {
		case CategoryEngineering, CategoryAssistant:
		default:
			return fmt.Errorf("role %s has unknown category %q", name, r.Category)
		}
	}
	if _, ok := c.roles[c.defaults.Role]; !ok {
		return fmt.Errorf("default role %q not in catalog", c.defaults.Role)
	}
	if !c.HasModel(c.defaults.Provider, c.defaults.Model) {
		return fmt.Errorf("default provider/model %s/%s not in catalog", c.defaults.Provider, c.defaults.Model)
	}
	return nil
}

// Role looks up a role by name.
func (c *Catalog) Role(name string) (Role, error) {
	r, ok := c.roles[name]
	if !ok {
		return Role{}, fmt.Errorf("role %q: %w", name, chorusErrors.ErrUnknownRole)
	}
	return r, nil
}

// HasModel reports whether the provider serves the model.
func (c *Catalog) HasModel(provider, model string) bool {
	p, ok := c.providers[provider]
	if !ok {
		return false
	}
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// ValidateConfig checks a full triple, validation errors before any append.
func (c *Catalog) ValidateConfig(cfg AIConfig) error {
	if _, err := c.Role(cfg.Role); err != nil {
		return err
	}
	if !c.HasModel(cfg.Provider, cfg.Model) {
		return fmt.Errorf("%s/%s: %w", cfg.Provider, cfg.Model, chorusErrors.ErrUnknownProviderModel)
	}
	return nil
}

// DefaultConfig is what current_config returns before any switch event exists.
func (c *Catalog) DefaultConfig() AIConfig {
	return c.defaults
}

// Roles returns all roles sorted by name.
func (c *Catalog) Roles() []Role {
	roles := make([]Role, 0, len(c.roles))
	for _, r := range c.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles
}

// ProviderModels returns every known (provider, model) pair sorted by
// provider then model.
func (c *Catalog) ProviderModels() []AIConfig {
	var pairs []AIConfig
	for _, p := range c.providers {
		for _, m := range p.Models {
			pairs = append(pairs, AIConfig{Provider: p.Name, Model: m})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Provider != pairs[j].Provider {
			return pairs[i].Provider < pairs[j].Provider
		}
		return pairs[i].Model < pairs[j].Model
	})
	return pairs
}

func (c *Catalog) provider(name string) (Provider, bool) {
	p, ok := c.providers[name]
	return p, ok
}
