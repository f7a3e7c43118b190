package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/compliance"
	apperrors "github.com/chorusd/chorus/internal/errors"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/logger"
	"github.com/chorusd/chorus/internal/model/contract"
	"github.com/chorusd/chorus/internal/search"
	"github.com/chorusd/chorus/internal/state"
	"github.com/chorusd/chorus/internal/store"
)

// ComplianceActor marks events appended by the checker rather than a user.
const ComplianceActor = "compliance_checker"

// Project is the handle for one project's conversation. The mutex is held
// for the whole of a turn or switch, including the external model call, so
// concurrent submitters queue up and each one sees the log its own events
// landed on.
type Project struct {
	id      string
	store   *store.Store
	catalog *catalog.Catalog
	gen     Generator
	checker *compliance.Checker
	cache   *state.Cache
	opts    state.Options
	mu      sync.Mutex
}

// TurnReport is what a completed turn hands back to the caller.
type TurnReport struct {
	Event      event.Event
	Response   string
	Compliance *compliance.Report
	Violations []event.Event
	State      state.ProjectState
}

// SwitchRequest names the target configuration. Empty fields keep their
// current value.
type SwitchRequest struct {
	Provider string
	Model    string
	Role     string
	Reason   string
}

func newProject(id string, st *store.Store, cat *catalog.Catalog, gen Generator, checker *compliance.Checker, opts state.Options) *Project {
	return &Project{
		id:      id,
		store:   st,
		catalog: cat,
		gen:     gen,
		checker: checker,
		cache:   state.NewCache(opts),
		opts:    opts,
	}
}

func (p *Project) ID() string {
	return p.id
}

// SubmitTurn runs one conversation turn: the prompt goes to the active
// provider/model under the active role, and a successful response is
// appended as a chat_turn event attributed to that role. For roles with
// principle enforcement the checker runs afterwards and every rule hit is
// appended as a principle_violation event; other roles are never checked.
// A failed model call appends nothing.
func (p *Project) SubmitTurn(ctx context.Context, actor, prompt string) (*TurnReport, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.InvalidInput("prompt must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.refresh()
	if err != nil {
		return nil, err
	}

	active := st.ActiveConfig
	role, err := p.catalog.Role(active.Role)
	if err != nil {
		return nil, err
	}

	req := contract.CompletionRequest{
		Model:    active.Model,
		System:   p.catalog.BuildPrompt(active, ""),
		Messages: turnMessages(st.Context, prompt),
	}

	resp, err := p.gen.Generate(ctx, active.Provider, req)
	if err != nil {
		slog.Error("Turn failed before recording",
			"project", p.id, "provider", active.Provider, "model", active.Model,
			"error", err, "trace_id", logger.GetTraceID(ctx))
		return nil, err
	}

	draft, err := event.NewDraft(event.TypeChatTurn, active.Role, event.ChatTurn{
		Prompt:    prompt,
		Response:  resp.Content,
		Provider:  active.Provider,
		Model:     active.Model,
		Role:      active.Role,
		Initiator: actor,
	})
	if err != nil {
		return nil, err
	}

	evt, err := p.store.Append(draft)
	if err != nil {
		return nil, err
	}

	report := &TurnReport{Event: evt, Response: resp.Content}

	if p.checker != nil && role.PrincipleEnforced {
		cr := p.checker.Evaluate(role.Name, role.PrincipleEnforced, resp.Content)
		report.Compliance = &cr
		for _, v := range cr.Violations {
			vd, derr := event.NewDraft(event.TypePrincipleViolation, ComplianceActor, event.Violation{
				Category:    v.Category,
				Severity:    v.Severity,
				Description: v.Description,
				Suggestion:  v.Suggestion,
				Evidence:    v.Evidence,
			})
			if derr != nil {
				return nil, derr
			}
			vevt, aerr := p.store.Append(vd)
			if aerr != nil {
				return nil, aerr
			}
			report.Violations = append(report.Violations, vevt)
		}
	}

	report.State, err = p.refresh()
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SwitchConfig changes the active role and/or provider/model. The target is
// validated against the catalog before anything is written; a rejected
// switch leaves the log untouched. When both parts change, the role_switch
// event is appended before the provider_switch.
func (p *Project) SwitchConfig(actor string, req SwitchRequest) ([]event.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := p.refresh()
	if err != nil {
		return nil, err
	}

	cur := st.ActiveConfig
	target := cur
	if req.Role != "" {
		target.Role = req.Role
	}
	if req.Provider != "" {
		target.Provider = req.Provider
	}
	if req.Model != "" {
		target.Model = req.Model
	}

	if err := p.catalog.ValidateConfig(target); err != nil {
		return nil, err
	}
	if target == cur {
		return nil, apperrors.InvalidInput("switch changes nothing")
	}

	var appended []event.Event

	if target.Role != cur.Role {
		draft, err := event.NewDraft(event.TypeRoleSwitch, actor, event.ConfigSwitch{
			FromRole: cur.Role,
			ToRole:   target.Role,
			Reason:   req.Reason,
		})
		if err != nil {
			return nil, err
		}
		evt, err := p.store.Append(draft)
		if err != nil {
			return nil, err
		}
		appended = append(appended, evt)
	}

	if target.Provider != cur.Provider || target.Model != cur.Model {
		draft, err := event.NewDraft(event.TypeProviderSwitch, actor, event.ConfigSwitch{
			FromProvider: cur.Provider,
			FromModel:    cur.Model,
			ToProvider:   target.Provider,
			ToModel:      target.Model,
			Reason:       req.Reason,
		})
		if err != nil {
			return nil, err
		}
		evt, err := p.store.Append(draft)
		if err != nil {
			return nil, err
		}
		appended = append(appended, evt)
	}

	if _, err := p.refresh(); err != nil {
		return nil, err
	}
	return appended, nil
}

// RecordFileChange appends a file_change event.
func (p *Project) RecordFileChange(actor, path, changeType, summary string) (event.Event, error) {
	if strings.TrimSpace(path) == "" {
		return event.Event{}, apperrors.InvalidInput("file path must not be empty")
	}
	return p.append(event.TypeFileChange, actor, event.FileChange{
		Path:       path,
		ChangeType: changeType,
		Summary:    summary,
	})
}

// RecordMilestone appends a milestone event.
func (p *Project) RecordMilestone(actor, title, description string) (event.Event, error) {
	if strings.TrimSpace(title) == "" {
		return event.Event{}, apperrors.InvalidInput("milestone title must not be empty")
	}
	return p.append(event.TypeMilestone, actor, event.Milestone{
		Title:       title,
		Description: description,
	})
}

// RecordCorrection appends a correction note referencing an existing event.
// The referenced event keeps its effect; the correction only annotates it.
func (p *Project) RecordCorrection(actor string, refID uint64, note string) (event.Event, error) {
	if strings.TrimSpace(note) == "" {
		return event.Event{}, apperrors.InvalidInput("correction note must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	lastID, err := p.store.LastID()
	if err != nil {
		return event.Event{}, err
	}
	if refID == 0 || refID > lastID {
		return event.Event{}, apperrors.InvalidInput(
			fmt.Sprintf("correction references unknown event %d", refID))
	}

	return p.appendLocked(event.TypeCorrection, actor, event.Correction{
		RefID: refID,
		Note:  note,
	})
}

// State returns the current reconstructed project state.
func (p *Project) State() (state.ProjectState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh()
}

// StateAt rebuilds the state as of a specific event id, bypassing the cache.
func (p *Project) StateAt(toID uint64) (state.ProjectState, error) {
	events, err := p.store.ReadRange(0, toID)
	if err != nil {
		return state.ProjectState{}, err
	}
	return state.Rebuild(events, p.opts), nil
}

// Search runs a history query against the project's log.
func (p *Project) Search(q search.Query) ([]event.Event, error) {
	return search.New(p.store).Run(q)
}

// Events returns the full event history.
func (p *Project) Events() ([]event.Event, error) {
	return p.store.ReadAll()
}

// Store exposes the underlying event store, for the backup engine.
func (p *Project) Store() *store.Store {
	return p.store
}

func (p *Project) append(t event.Type, actor string, payload any) (event.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appendLocked(t, actor, payload)
}

func (p *Project) appendLocked(t event.Type, actor string, payload any) (event.Event, error) {
	draft, err := event.NewDraft(t, actor, payload)
	if err != nil {
		return event.Event{}, err
	}
	evt, err := p.store.Append(draft)
	if err != nil {
		return event.Event{}, err
	}
	if _, err := p.refresh(); err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

// refresh folds any events newer than the cache's high-water mark. Callers
// hold p.mu.
func (p *Project) refresh() (state.ProjectState, error) {
	events, err := p.store.ReadRange(p.cache.LastAppliedID()+1, 0)
	if err != nil {
		return state.ProjectState{}, err
	}
	return p.cache.Advance(events), nil
}

// turnMessages flattens the retained context window into the wire format,
// newest last, with the fresh prompt at the end.
func turnMessages(window []state.Turn, prompt string) []contract.Message {
	messages := make([]contract.Message, 0, len(window)*2+1)
	for _, turn := range window {
		messages = append(messages,
			contract.Message{Role: contract.RoleUser, Content: turn.Prompt},
			contract.Message{Role: contract.RoleAssistant, Content: turn.Response},
		)
	}
	return append(messages, contract.Message{Role: contract.RoleUser, Content: prompt})
}
