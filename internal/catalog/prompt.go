package catalog

import "strings"

// Principle enforcement block injected into every engineering role's prompt.
// The checker in internal/compliance evaluates output against the same four
// principles, so violations map back to what the role was told.
const principleEnforcement = `Simplicity principles, enforced:

1. Good taste: prefer designs that make special cases disappear. Unify data
   flow; do not stack conditionals where one shape of code would do.
2. Never break userspace: stay backward compatible. Do not break existing
   workflows; design APIs so they can grow without breaking.
3. Pragmatism: solve problems that actually exist. Reject speculative
   abstraction layers and designs for imagined future requirements.
4. Simplicity: single responsibility per module, shallow nesting, short
   functions, explicit dependencies.

If a design needs a long explanation, it is usually not a good design.`

// BuildPrompt assembles the system prompt for a turn: provider
// characteristics, role base prompt, and the enforcement block for
// engineering roles with principle_enforced set.
func (c *Catalog) BuildPrompt(cfg AIConfig, custom string) string {
	var sections []string

	if p, ok := c.provider(cfg.Provider); ok && p.Characteristics != "" {
		sections = append(sections, p.Characteristics)
	}

	role, err := c.Role(cfg.Role)
	if err == nil && role.BasePrompt != "" {
		sections = append(sections, role.BasePrompt)
	} else {
		sections = append(sections, "You are acting as the role "+cfg.Role+".")
	}

	if custom != "" {
		sections = append(sections, "Additional instructions:\n"+custom)
	}

	if err == nil && role.PrincipleEnforced {
		sections = append(sections, principleEnforcement)
	}

	return strings.Join(sections, "\n\n")
}
