package state

import (
	"time"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/event"
)

// Turn is one retained conversation entry. Entries beyond the window drop
// from state but remain recoverable from the event store.
type Turn struct {
	EventID  uint64    `json:"event_id"`
	At       time.Time `json:"at"`
	Actor    string    `json:"actor"`
	Prompt   string    `json:"prompt"`
	Response string    `json:"response"`
}

type Milestone struct {
	EventID     uint64    `json:"event_id"`
	At          time.Time `json:"at"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
}

// CorrectionNote keeps a correction visible without retracting the effect of
// the event it references.
type CorrectionNote struct {
	EventID uint64 `json:"event_id"`
	RefID   uint64 `json:"ref_id"`
	Note    string `json:"note"`
}

// ProjectState is derived, never stored: at event index N it is always
// exactly the fold of events[0..N] over the empty state.
type ProjectState struct {
	ActiveConfig    catalog.AIConfig `json:"active_config"`
	Context         []Turn           `json:"conversation_context"`
	Milestones      []Milestone      `json:"milestones"`
	ViolationCounts map[string]int   `json:"violation_counts"`
	Corrections     []CorrectionNote `json:"corrections,omitempty"`
	LastAppliedID   uint64           `json:"last_applied_id"`
	EventCount      int              `json:"event_count"`
}

// Options controls the fold. ContextWindow bounds the retained conversation;
// DefaultConfig is the active configuration before any switch event.
type Options struct {
	ContextWindow int
	DefaultConfig catalog.AIConfig
}

// Empty is the fold's starting point.
func Empty(opts Options) ProjectState {
	return ProjectState{
		ActiveConfig:    opts.DefaultConfig,
		Context:         []Turn{},
		Milestones:      []Milestone{},
		ViolationCounts: map[string]int{},
	}
}

// Rebuild folds the event sequence into the current state. It is a pure
// function of its input: no clock, no randomness, so any prefix replays to
// the same state every time.
func Rebuild(events []event.Event, opts Options) ProjectState {
	s := Empty(opts)
	for _, e := range events {
		s = Apply(s, e, opts)
	}
	return s
}

// Apply folds a single event onto a state. Folding event k+1 onto the
// rebuild of events[0..k] must equal rebuilding events[0..k+1]; the
// incremental path in the coordinator relies on this.
func Apply(s ProjectState, e event.Event, opts Options) ProjectState {
	switch e.Type {
	case event.TypeChatTurn:
		p, err := event.DecodeChatTurn(e)
		if err != nil {
			break
		}
		s.Context = append(s.Context, Turn{
			EventID:  e.ID,
			At:       e.Timestamp,
			Actor:    e.Actor,
			Prompt:   p.Prompt,
			Response: p.Response,
		})
		if opts.ContextWindow > 0 && len(s.Context) > opts.ContextWindow {
			trimmed := make([]Turn, opts.ContextWindow)
			copy(trimmed, s.Context[len(s.Context)-opts.ContextWindow:])
			s.Context = trimmed
		}

	case event.TypeRoleSwitch:
		p, err := event.DecodeConfigSwitch(e)
		if err != nil {
			break
		}
		if p.ToRole != "" {
			s.ActiveConfig.Role = p.ToRole
		}

	case event.TypeProviderSwitch:
		p, err := event.DecodeConfigSwitch(e)
		if err != nil {
			break
		}
		if p.ToProvider != "" {
			s.ActiveConfig.Provider = p.ToProvider
		}
		if p.ToModel != "" {
			s.ActiveConfig.Model = p.ToModel
		}

	case event.TypePrincipleViolation:
		p, err := event.DecodeViolation(e)
		if err != nil {
			break
		}
		counts := make(map[string]int, len(s.ViolationCounts)+1)
		for k, v := range s.ViolationCounts {
			counts[k] = v
		}
		counts[p.Category]++
		s.ViolationCounts = counts

	case event.TypeMilestone:
		p, err := event.DecodeMilestone(e)
		if err != nil {
			break
		}
		s.Milestones = append(s.Milestones, Milestone{
			EventID:     e.ID,
			At:          e.Timestamp,
			Title:       p.Title,
			Description: p.Description,
		})

	case event.TypeCorrection:
		// Recorded for audit only. The referenced event's effect stays in
		// the fold.
		p, err := event.DecodeCorrection(e)
		if err != nil {
			break
		}
		s.Corrections = append(s.Corrections, CorrectionNote{
			EventID: e.ID,
			RefID:   p.RefID,
			Note:    p.Note,
		})

	case event.TypeFileChange:
		// File changes live in history and search; state keeps no summary
		// beyond the event count.
	}

	s.LastAppliedID = e.ID
	s.EventCount++
	return s
}

// Clone deep-copies a state so a cached copy can be handed out without
// aliasing the cache's slices and map.
func Clone(s ProjectState) ProjectState {
	out := s
	out.Context = append([]Turn(nil), s.Context...)
	out.Milestones = append([]Milestone(nil), s.Milestones...)
	out.Corrections = append([]CorrectionNote(nil), s.Corrections...)
	out.ViolationCounts = make(map[string]int, len(s.ViolationCounts))
	for k, v := range s.ViolationCounts {
		out.ViolationCounts[k] = v
	}
	return out
}
