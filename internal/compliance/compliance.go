// Package compliance runs rule-based checks over AI work reports against the
// four engineering principles: good taste, simplicity, pragmatism, and never
// break userspace. The rules are deliberately conservative and only flag
// highly suspicious text, trading recall for a low false-positive rate.
package compliance

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Principle category keys. These flow into principle_violation event
// payloads, so they are part of the log format and must stay stable.
const (
	CategoryGoodTaste           = "good_taste"
	CategorySimplicity          = "simplicity"
	CategoryPragmatism          = "pragmatism"
	CategoryNeverBreakUserspace = "never_break_userspace"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Violation is one rule hit. Evidence carries the matched fragment when the
// rule is textual.
type Violation struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Evidence    string `json:"evidence,omitempty"`
}

// GoodAspect is a positive observation; it raises the score but produces no
// event.
type GoodAspect struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
}

// Report is the outcome of one evaluation.
type Report struct {
	CheckedAt   time.Time    `json:"checked_at"`
	Role        string       `json:"role"`
	Score       int          `json:"score"`
	Compliant   bool         `json:"compliant"`
	Violations  []Violation  `json:"violations"`
	GoodAspects []GoodAspect `json:"good_aspects"`
	Feedback    string       `json:"feedback"`
}

var (
	specialCaseRe = regexp.MustCompile(
		`special case|quick hack|hacky|temporary fix|workaround|monkey patch|dirty fix`)
	breakingChangeRe = regexp.MustCompile(
		`breaking change|backward incompatible|incompatible change|remove the old interface`)
	complexityRe = regexp.MustCompile(
		`overly complex|too complex|complex workaround|deeply nested`)
	testMentionRe = regexp.MustCompile(
		`\btests?\b|testing|unit test|integration test|verification|coverage`)
	refactorRe = regexp.MustCompile(`refactor|simplif`)
)

// Checker evaluates work-report text. Rules that require an engineering
// context only fire for roles the catalog marks as principle-enforced.
type Checker struct {
	minSummaryLength int
	now              func() time.Time
}

// Config tunes the rule set. A zero MinSummaryLength disables the
// short-summary rule; an absent summary is always a violation.
type Config struct {
	MinSummaryLength int
}

func New(cfg Config) *Checker {
	return &Checker{
		minSummaryLength: cfg.MinSummaryLength,
		now:              time.Now,
	}
}

// Evaluate checks the response produced for a turn. summary is the first
// line of the response, role is the active role name, and enforced reports
// whether that role opted into principle enforcement.
func (c *Checker) Evaluate(role string, enforced bool, response string) Report {
	summary := firstLine(response)
	lower := strings.ToLower(response)

	var violations []Violation
	var aspects []GoodAspect

	switch {
	case strings.TrimSpace(summary) == "":
		violations = append(violations, Violation{
			Category:    CategoryPragmatism,
			Severity:    SeverityHigh,
			Description: "work report has no summary, so the outcome cannot be confirmed",
			Suggestion:  "state the key output, the files touched, and the blast radius",
		})
	case c.minSummaryLength > 0 && len(summary) < c.minSummaryLength && enforced:
		violations = append(violations, Violation{
			Category:    CategoryPragmatism,
			Severity:    SeverityMedium,
			Description: "summary is too short to support handoff or tracking",
			Suggestion:  "add concrete results and verification details",
			Evidence:    summary,
		})
	}

	if m := breakingChangeRe.FindString(lower); m != "" {
		violations = append(violations, Violation{
			Category:    CategoryNeverBreakUserspace,
			Severity:    SeverityHigh,
			Description: "report mentions a change that may break backward compatibility",
			Suggestion:  "review the impact on existing users and provide a migration path",
			Evidence:    m,
		})
	}

	if m := specialCaseRe.FindString(lower); m != "" {
		violations = append(violations, Violation{
			Category:    CategoryGoodTaste,
			Severity:    SeverityMedium,
			Description: "report contains a quick hack or special-case handling",
			Suggestion:  "look for the general solution that makes the special case disappear",
			Evidence:    m,
		})
	}

	if m := complexityRe.FindString(lower); m != "" {
		violations = append(violations, Violation{
			Category:    CategorySimplicity,
			Severity:    SeverityLow,
			Description: "the described approach may be overly complex",
			Suggestion:  "revisit the flow and abstraction layers for a simpler implementation",
			Evidence:    m,
		})
	}

	if enforced {
		if m := testMentionRe.FindString(lower); m != "" {
			aspects = append(aspects, GoodAspect{
				Category:    CategoryNeverBreakUserspace,
				Description: "report mentions tests or a verification step",
				Evidence:    m,
			})
		} else {
			violations = append(violations, Violation{
				Category:    CategoryNeverBreakUserspace,
				Severity:    SeverityMedium,
				Description: "engineering work reported without any test or verification step",
				Suggestion:  "add unit tests, integration tests, or a verification procedure",
			})
		}
	}

	if refactorRe.MatchString(lower) {
		aspects = append(aspects, GoodAspect{
			Category:    CategoryGoodTaste,
			Description: "mentions refactoring or simplifying the design",
		})
	}

	return Report{
		CheckedAt:   c.now().UTC(),
		Role:        role,
		Score:       score(len(violations), len(aspects)),
		Compliant:   len(violations) == 0,
		Violations:  violations,
		GoodAspects: aspects,
		Feedback:    feedback(violations),
	}
}

func score(violations, aspects int) int {
	s := 100 - violations*20 + aspects*5
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

var severityRank = map[string]int{
	SeverityLow:    0,
	SeverityMedium: 1,
	SeverityHigh:   2,
}

func feedback(violations []Violation) string {
	if len(violations) == 0 {
		return "no principle violations detected"
	}
	worst := violations[0]
	for _, v := range violations[1:] {
		if severityRank[v.Severity] > severityRank[worst.Severity] {
			worst = v
		}
	}
	return fmt.Sprintf("found %d potential principle violation(s), worst category: %s",
		len(violations), worst.Category)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
