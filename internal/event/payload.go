package event

import (
	"encoding/json"
	"fmt"
)

// ChatTurn records one completed exchange with the AI backend. Only fully
// formed responses are persisted; a failed or cancelled call leaves no trace.
// The event actor is the producing role; Initiator names who asked for the
// turn (a human handle or upstream system).
type ChatTurn struct {
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Role      string `json:"role"`
	Initiator string `json:"initiator,omitempty"`
}

// ConfigSwitch is the payload for role_switch and provider_switch events.
// From holds the configuration that was active before the switch.
type ConfigSwitch struct {
	FromProvider string `json:"from_provider,omitempty"`
	FromModel    string `json:"from_model,omitempty"`
	FromRole     string `json:"from_role,omitempty"`
	ToProvider   string `json:"to_provider,omitempty"`
	ToModel      string `json:"to_model,omitempty"`
	ToRole       string `json:"to_role,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type FileChange struct {
	Path       string `json:"path"`
	ChangeType string `json:"change_type"` // created, modified, deleted
	Summary    string `json:"summary,omitempty"`
}

// Violation is one triggered simplicity-principle predicate. Category names
// are stable so violation counts fold deterministically.
type Violation struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
	Evidence    string `json:"evidence,omitempty"`
}

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Correction annotates a past event. It never retracts the referenced
// event's effect on derived state; it exists for audit.
type Correction struct {
	RefID uint64 `json:"ref_id"`
	Note  string `json:"note"`
}

func decode[T any](e Event) (T, error) {
	var p T
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload of event %d: %w", e.Type, e.ID, err)
	}
	return p, nil
}

func DecodeChatTurn(e Event) (ChatTurn, error) { return decode[ChatTurn](e) }

func DecodeConfigSwitch(e Event) (ConfigSwitch, error) { return decode[ConfigSwitch](e) }

func DecodeFileChange(e Event) (FileChange, error) { return decode[FileChange](e) }

func DecodeViolation(e Event) (Violation, error) { return decode[Violation](e) }

func DecodeMilestone(e Event) (Milestone, error) { return decode[Milestone](e) }

func DecodeCorrection(e Event) (Correction, error) { return decode[Correction](e) }

// Texts returns the free-text fields of the payload for substring search.
// Unknown or undecodable payloads yield nothing rather than an error: search
// never fails, it just cannot match what it cannot read.
func Texts(e Event) []string {
	switch e.Type {
	case TypeChatTurn:
		p, err := DecodeChatTurn(e)
		if err != nil {
			return nil
		}
		return []string{p.Prompt, p.Response}
	case TypeRoleSwitch, TypeProviderSwitch:
		p, err := DecodeConfigSwitch(e)
		if err != nil {
			return nil
		}
		return []string{p.Reason}
	case TypeFileChange:
		p, err := DecodeFileChange(e)
		if err != nil {
			return nil
		}
		return []string{p.Path, p.Summary}
	case TypePrincipleViolation:
		p, err := DecodeViolation(e)
		if err != nil {
			return nil
		}
		return []string{p.Category, p.Description, p.Evidence}
	case TypeMilestone:
		p, err := DecodeMilestone(e)
		if err != nil {
			return nil
		}
		return []string{p.Title, p.Description}
	case TypeCorrection:
		p, err := DecodeCorrection(e)
		if err != nil {
			return nil
		}
		return []string{p.Note}
	default:
		return nil
	}
}
