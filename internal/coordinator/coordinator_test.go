package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/config"
	apperrors "github.com/chorusd/chorus/internal/errors"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/model/contract"
	"github.com/chorusd/chorus/internal/search"
	"github.com/chorusd/chorus/internal/state"
)

type stubGenerator struct {
	response     string
	err          error
	calls        int
	lastProvider string
	lastReq      contract.CompletionRequest
}

func (g *stubGenerator) Generate(_ context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	g.calls++
	g.lastProvider = provider
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &contract.CompletionResponse{Content: g.response}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{RootPath: t.TempDir()},
		State: config.StateConfig{ContextWindow: 5},
		Catalog: config.CatalogConfig{
			DefaultConfig: config.AIRef{
				Provider: "anthropic",
				Model:    "claude-sonnet-4-20250514",
				Role:     "general_assistant",
			},
		},
		Compliance: config.ComplianceConfig{Enabled: true, MinSummaryLength: 30},
	}
}

func newTestCoordinator(t *testing.T, gen Generator) *Coordinator {
	t.Helper()
	cfg := testConfig(t)
	cat, err := catalog.Load(cfg.Catalog)
	require.NoError(t, err)
	c := New(cfg, cat, gen)
	t.Cleanup(c.Close)
	return c
}

func TestSubmitTurnRecordsChatTurn(t *testing.T) {
	gen := &stubGenerator{response: "Refactored the loader and added unit tests for every branch of it."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	report, err := p.SubmitTurn(context.Background(), "alice", "please refactor the loader")

	require.NoError(t, err)
	assert.Equal(t, uint64(1), report.Event.ID)
	assert.Equal(t, event.TypeChatTurn, report.Event.Type)
	assert.Equal(t, gen.response, report.Response)
	assert.Equal(t, "anthropic", gen.lastProvider)
	assert.Equal(t, "claude-sonnet-4-20250514", gen.lastReq.Model)
	assert.NotEmpty(t, gen.lastReq.System)

	// The event is attributed to the role that produced the response; the
	// human who asked lands in the payload.
	assert.Equal(t, "general_assistant", report.Event.Actor)

	payload, err := event.DecodeChatTurn(report.Event)
	require.NoError(t, err)
	assert.Equal(t, "please refactor the loader", payload.Prompt)
	assert.Equal(t, "general_assistant", payload.Role)
	assert.Equal(t, "alice", payload.Initiator)

	// general_assistant has no principle enforcement, so no checker report.
	assert.Nil(t, report.Compliance)
	assert.Len(t, report.State.Context, 1)
}

func TestUnenforcedRoleProducesNoViolationEvents(t *testing.T) {
	gen := &stubGenerator{response: "This is a breaking change and a quick hack."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	report, err := p.SubmitTurn(context.Background(), "alice", "summarize the release")

	require.NoError(t, err)
	assert.Nil(t, report.Compliance)
	assert.Empty(t, report.Violations)

	events, err := p.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeChatTurn, events[0].Type)

	st, err := p.State()
	require.NoError(t, err)
	assert.Empty(t, st.ViolationCounts)
}

func TestChatTurnActorIsProducingRole(t *testing.T) {
	gen := &stubGenerator{response: "Sketched the component boundaries and the data flow."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SwitchConfig("alice", SwitchRequest{Role: "system_architect"})
	require.NoError(t, err)

	report, err := p.SubmitTurn(context.Background(), "alice", "outline the architecture")
	require.NoError(t, err)
	assert.Equal(t, "system_architect", report.Event.Actor)

	got, err := p.Search(search.Query{Actor: "system_architect", Type: event.TypeChatTurn})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, report.Event.ID, got[0].ID)
}

func TestSubmitTurnFailureLeavesNoTrace(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("dial tcp: connection refused")}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SubmitTurn(context.Background(), "alice", "hello")

	require.Error(t, err)
	events, readErr := p.Events()
	require.NoError(t, readErr)
	assert.Empty(t, events)

	st, stErr := p.State()
	require.NoError(t, stErr)
	assert.Zero(t, st.EventCount)
}

func TestSubmitTurnAppendsViolationsAfterChatTurn(t *testing.T) {
	gen := &stubGenerator{response: "Applied a quick hack to bypass validation; this is a breaking change."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	// Switch to an enforced role so the test-mention rule is active too.
	_, err = p.SwitchConfig("alice", SwitchRequest{Role: "coder_programmer"})
	require.NoError(t, err)

	report, err := p.SubmitTurn(context.Background(), "alice", "ship it")

	require.NoError(t, err)
	require.NotNil(t, report.Compliance)
	assert.False(t, report.Compliance.Compliant)
	require.NotEmpty(t, report.Violations)

	events, err := p.Events()
	require.NoError(t, err)
	// role_switch, chat_turn, then one violation event per rule hit.
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, event.TypeRoleSwitch, events[0].Type)
	assert.Equal(t, event.TypeChatTurn, events[1].Type)
	for _, v := range events[2:] {
		assert.Equal(t, event.TypePrincipleViolation, v.Type)
		assert.Equal(t, ComplianceActor, v.Actor)
	}
	assert.Equal(t, len(events)-2, len(report.Violations))
}

func TestSubmitTurnEmptyPromptRejected(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SubmitTurn(context.Background(), "alice", "   ")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Zero(t, gen.calls)
}

func TestSwitchConfigUnknownRoleRejectedWithoutEvent(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SwitchConfig("alice", SwitchRequest{Role: "galactic_overlord"})

	assert.ErrorIs(t, err, apperrors.ErrUnknownRole)
	events, readErr := p.Events()
	require.NoError(t, readErr)
	assert.Empty(t, events)
}

func TestSwitchConfigUnknownModelRejected(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SwitchConfig("alice", SwitchRequest{Provider: "openai", Model: "gpt-99"})

	assert.ErrorIs(t, err, apperrors.ErrUnknownProviderModel)
}

func TestSwitchConfigRoleBeforeProvider(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	appended, err := p.SwitchConfig("alice", SwitchRequest{
		Role:     "system_architect",
		Provider: "openai",
		Model:    "gpt-4o",
		Reason:   "architecture review",
	})

	require.NoError(t, err)
	require.Len(t, appended, 2)
	assert.Equal(t, event.TypeRoleSwitch, appended[0].Type)
	assert.Equal(t, event.TypeProviderSwitch, appended[1].Type)
	assert.Less(t, appended[0].ID, appended[1].ID)

	st, err := p.State()
	require.NoError(t, err)
	assert.Equal(t, "system_architect", st.ActiveConfig.Role)
	assert.Equal(t, "openai", st.ActiveConfig.Provider)
	assert.Equal(t, "gpt-4o", st.ActiveConfig.Model)
}

func TestSwitchConfigNoChangeRejected(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SwitchConfig("alice", SwitchRequest{Role: "general_assistant"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSwitchAffectsNextTurn(t *testing.T) {
	gen := &stubGenerator{response: "Reviewed the design and verified it with integration tests."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SwitchConfig("alice", SwitchRequest{Provider: "google", Model: "gemini-2.0-flash"})
	require.NoError(t, err)

	_, err = p.SubmitTurn(context.Background(), "alice", "review the design")
	require.NoError(t, err)

	assert.Equal(t, "google", gen.lastProvider)
	assert.Equal(t, "gemini-2.0-flash", gen.lastReq.Model)
}

func TestRecordCorrectionValidatesReference(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.RecordCorrection("alice", 1, "never happened")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	evt, err := p.RecordMilestone("alice", "v1", "first release")
	require.NoError(t, err)

	corr, err := p.RecordCorrection("alice", evt.ID, "title was wrong")
	require.NoError(t, err)
	assert.Equal(t, event.TypeCorrection, corr.Type)

	st, err := p.State()
	require.NoError(t, err)
	require.Len(t, st.Milestones, 1)
	require.Len(t, st.Corrections, 1)
	assert.Equal(t, evt.ID, st.Corrections[0].RefID)
}

func TestRecordFileChangeSearchable(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.RecordFileChange("bob", "internal/store/store.go", "modified", "tightened the append path")
	require.NoError(t, err)

	got, err := p.Search(search.Query{Text: "append path"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event.TypeFileChange, got[0].Type)
}

func TestIncrementalStateMatchesFullRebuild(t *testing.T) {
	gen := &stubGenerator{response: "Done the work and covered it with tests in the same change."}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		switch i % 5 {
		case 0:
			_, err = p.RecordMilestone("alice", fmt.Sprintf("milestone %d", i), "")
		case 1:
			_, err = p.RecordFileChange("bob", fmt.Sprintf("pkg/f%d.go", i), "modified", "edit")
		default:
			_, err = p.SubmitTurn(context.Background(), "alice", fmt.Sprintf("prompt %d", i))
		}
		require.NoError(t, err)
	}

	cached, err := p.State()
	require.NoError(t, err)

	events, err := p.Events()
	require.NoError(t, err)
	full := state.Rebuild(events, state.Options{
		ContextWindow: 5,
		DefaultConfig: catalog.AIConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
			Role:     "general_assistant",
		},
	})

	assert.Equal(t, full, cached)
	assert.Equal(t, uint64(len(events)), cached.LastAppliedID)
}

// A long history replayed from scratch and a cache warmed on the first half
// then advanced with the rest must land on the same state.
func TestThousandEventReplayConverges(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})
	p, err := c.Project("demo")
	require.NoError(t, err)
	st := p.Store()

	for i := 1; i <= 1000; i++ {
		var draft event.Draft
		switch i % 4 {
		case 0:
			draft, err = event.NewDraft(event.TypeMilestone, "alice",
				event.Milestone{Title: fmt.Sprintf("checkpoint %d", i)})
		case 1:
			draft, err = event.NewDraft(event.TypePrincipleViolation, ComplianceActor,
				event.Violation{Category: "good_taste", Severity: "medium", Description: "special case"})
		case 2:
			draft, err = event.NewDraft(event.TypeFileChange, "bob",
				event.FileChange{Path: fmt.Sprintf("pkg/f%d.go", i), ChangeType: "modified"})
		default:
			draft, err = event.NewDraft(event.TypeChatTurn, "general_assistant",
				event.ChatTurn{Prompt: fmt.Sprintf("prompt %d", i), Response: "done"})
		}
		require.NoError(t, err)
		evt, appendErr := st.Append(draft)
		require.NoError(t, appendErr)
		require.Equal(t, uint64(i), evt.ID)
	}

	opts := state.Options{
		ContextWindow: 5,
		DefaultConfig: catalog.AIConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
			Role:     "general_assistant",
		},
	}

	all, err := st.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 1000)
	full := state.Rebuild(all, opts)
	require.Equal(t, uint64(1000), full.LastAppliedID)

	cache := state.NewCache(opts)
	firstHalf, err := st.ReadRange(1, 500)
	require.NoError(t, err)
	cache.Advance(firstHalf)
	require.Equal(t, uint64(500), cache.LastAppliedID())

	rest, err := st.ReadRange(501, 0)
	require.NoError(t, err)
	incremental := cache.Advance(rest)

	assert.Equal(t, full, incremental)
}

func TestProjectsAreIsolated(t *testing.T) {
	gen := &stubGenerator{response: "All good, verified by the existing regression tests."}
	c := newTestCoordinator(t, gen)

	a, err := c.Project("alpha")
	require.NoError(t, err)
	b, err := c.Project("beta")
	require.NoError(t, err)

	_, err = a.SubmitTurn(context.Background(), "alice", "hello alpha")
	require.NoError(t, err)

	stB, err := b.State()
	require.NoError(t, err)
	assert.Zero(t, stB.EventCount)

	stA, err := a.State()
	require.NoError(t, err)
	assert.Equal(t, 1, stA.EventCount)
}

func TestProjectHandleReused(t *testing.T) {
	c := newTestCoordinator(t, &stubGenerator{response: "ok"})

	p1, err := c.Project("demo")
	require.NoError(t, err)
	p2, err := c.Project("demo")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
}

func TestContextCancellationPassesThrough(t *testing.T) {
	gen := &stubGenerator{err: context.Canceled}
	c := newTestCoordinator(t, gen)
	p, err := c.Project("demo")
	require.NoError(t, err)

	_, err = p.SubmitTurn(context.Background(), "alice", "hello")

	assert.True(t, errors.Is(err, context.Canceled))
}
