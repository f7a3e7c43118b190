package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorusd/chorus/internal/config"
	chorusErrors "github.com/chorusd/chorus/internal/errors"
)

func defaultCatalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		DefaultConfig: config.AIRef{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
			Role:     "general_assistant",
		},
	}
}

func TestLoadBuiltins(t *testing.T) {
	cat, err := Load(defaultCatalogConfig())
	require.NoError(t, err)

	role, err := cat.Role("coder_programmer")
	require.NoError(t, err)
	assert.True(t, role.PrincipleEnforced)
	assert.Equal(t, CategoryEngineering, role.Category)

	assert.True(t, cat.HasModel("openai", "gpt-4o"))
	assert.True(t, cat.HasModel("xai", "grok-2"))
	assert.False(t, cat.HasModel("openai", "grok-2"))

	def := cat.DefaultConfig()
	assert.Equal(t, "anthropic", def.Provider)
	assert.Equal(t, "general_assistant", def.Role)
}

func TestLoadRejectsUnknownDefaults(t *testing.T) {
	cfg := defaultCatalogConfig()
	cfg.DefaultConfig.Role = "nonexistent_role"
	_, err := Load(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default role")

	cfg = defaultCatalogConfig()
	cfg.DefaultConfig.Model = "no-such-model"
	_, err = Load(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider/model")
}

func TestUnknownRole(t *testing.T) {
	cat, err := Load(defaultCatalogConfig())
	require.NoError(t, err)

	_, err = cat.Role("astronaut")
	assert.ErrorIs(t, err, chorusErrors.ErrUnknownRole)
}

func TestValidateConfig(t *testing.T) {
	cat, err := Load(defaultCatalogConfig())
	require.NoError(t, err)

	valid := AIConfig{Provider: "google", Model: "gemini-2.0-flash", Role: "qa_engineer"}
	assert.NoError(t, cat.ValidateConfig(valid))

	badRole := valid
	badRole.Role = "astronaut"
	assert.ErrorIs(t, cat.ValidateConfig(badRole), chorusErrors.ErrUnknownRole)

	badModel := valid
	badModel.Model = "gemini-99"
	assert.ErrorIs(t, cat.ValidateConfig(badModel), chorusErrors.ErrUnknownProviderModel)
}

func TestOverlayReplacesAndAdds(t *testing.T) {
	dir := t.TempDir()
	overlayPath := filepath.Join(dir, "roles.yaml")
	overlay := `roles:
  - name: coder_programmer
    title: Implementer
    category: engineering
    principle_enforced: false
    base_prompt: You write code.
  - name: tech_writer
    title: Technical Writer
    category: assistant
    base_prompt: You write documentation.
providers:
  - name: local
    models:
      - llama-3
`
	require.NoError(t, os.WriteFile(overlayPath, []byte(overlay), 0o644))

	cfg := defaultCatalogConfig()
	cfg.RolesFile = overlayPath
	cat, err := Load(cfg)
	require.NoError(t, err)

	replaced, err := cat.Role("coder_programmer")
	require.NoError(t, err)
	assert.Equal(t, "Implementer", replaced.Title)
	assert.False(t, replaced.PrincipleEnforced)

	added, err := cat.Role("tech_writer")
	require.NoError(t, err)
	assert.Equal(t, CategoryAssistant, added.Category)

	assert.True(t, cat.HasModel("local", "llama-3"))
}

func TestOverlayMissingFileIsIgnored(t *testing.T) {
	cfg := defaultCatalogConfig()
	cfg.RolesFile = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(cfg)
	assert.NoError(t, err)
}

func TestOverlayRejectsNamelessRole(t *testing.T) {
	dir := t.TempDir()
	overlayPath := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(overlayPath, []byte("roles:\n  - title: Nobody\n    category: assistant\n"), 0o644))

	cfg := defaultCatalogConfig()
	cfg.RolesFile = overlayPath
	_, err := Load(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role without a name")
}

func TestOverlayRejectsBadCategory(t *testing.T) {
	dir := t.TempDir()
	overlayPath := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(overlayPath, []byte("roles:\n  - name: wizard\n    category: magic\n"), 0o644))

	cfg := defaultCatalogConfig()
	cfg.RolesFile = overlayPath
	_, err := Load(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestBuildPromptEnforcement(t *testing.T) {
	cat, err := Load(defaultCatalogConfig())
	require.NoError(t, err)

	enforced := cat.BuildPrompt(AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: "coder_programmer"}, "")
	assert.Contains(t, enforced, "senior software developer")
	assert.Contains(t, enforced, "Never break userspace")
	assert.Contains(t, enforced, "systems-analysis")

	relaxed := cat.BuildPrompt(AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: "general_assistant"}, "")
	assert.NotContains(t, relaxed, "Never break userspace")

	custom := cat.BuildPrompt(AIConfig{Provider: "google", Model: "gemini-2.0-flash", Role: "general_assistant"}, "Answer in French.")
	assert.Contains(t, custom, "Additional instructions:\nAnswer in French.")
}

func TestRolesAndProviderModelsSorted(t *testing.T) {
	cat, err := Load(defaultCatalogConfig())
	require.NoError(t, err)

	roles := cat.Roles()
	require.NotEmpty(t, roles)
	for i := 1; i < len(roles); i++ {
		assert.True(t, roles[i-1].Name < roles[i].Name)
	}

	pairs := cat.ProviderModels()
	require.NotEmpty(t, pairs)
	for i := 1; i < len(pairs); i++ {
		prev, cur := pairs[i-1], pairs[i]
		less := prev.Provider < cur.Provider ||
			(prev.Provider == cur.Provider && prev.Model < cur.Model)
		assert.True(t, less, "pair %d out of order", i)
	}
	assert.True(t, strings.HasPrefix(pairs[0].Provider, "anthropic"))
}
