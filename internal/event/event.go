package event

import (
	"encoding/json"
	"fmt"
	"time"

	chorusErrors "github.com/chorusd/chorus/internal/errors"
)

type Type string

// The closed set of event types. Anything else fails validation at append time.
const (
	TypeChatTurn           Type = "chat_turn"
	TypeRoleSwitch         Type = "role_switch"
	TypeProviderSwitch     Type = "provider_switch"
	TypeFileChange         Type = "file_change"
	TypePrincipleViolation Type = "principle_violation"
	TypeMilestone          Type = "milestone"
	TypeCorrection         Type = "correction"
)

var knownTypes = map[Type]struct{}{
	TypeChatTurn:           {},
	TypeRoleSwitch:         {},
	TypeProviderSwitch:     {},
	TypeFileChange:         {},
	TypePrincipleViolation: {},
	TypeMilestone:          {},
	TypeCorrection:         {},
}

// KnownType reports whether t belongs to the closed type set.
func KnownType(t Type) bool {
	_, ok := knownTypes[t]
	return ok
}

// Event is the atomic unit of history. Events are immutable once appended;
// corrections are expressed as new events referencing a prior id.
type Event struct {
	ID        uint64          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      Type            `json:"type"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Draft is what callers hand to the store. ID and Timestamp are assigned by
// the store at append time, never by the caller.
type Draft struct {
	Type    Type
	Actor   string
	Payload json.RawMessage
}

// Validate rejects drafts outside the closed type set. A failure here is a
// core bug, not user input.
func (d Draft) Validate() error {
	if !KnownType(d.Type) {
		return fmt.Errorf("type %q: %w", d.Type, chorusErrors.ErrInvalidEventType)
	}
	if len(d.Payload) == 0 {
		return fmt.Errorf("type %q has empty payload: %w", d.Type, chorusErrors.ErrInvalidEventType)
	}
	return nil
}

// NewDraft marshals a typed payload into a Draft.
func NewDraft(t Type, actor string, payload any) (Draft, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Draft{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Draft{Type: t, Actor: actor, Payload: raw}, nil
}
