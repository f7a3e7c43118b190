package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/state"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) FormatEvents(events []event.Event) (string, error) {
	if len(events) == 0 {
		return "No events found", nil
	}

	t := f.newTable().
		Headers("ID", "Time", "Type", "Actor", "Summary")

	for _, evt := range events {
		t.Row(
			fmt.Sprintf("%d", evt.ID),
			evt.Timestamp.Format(time.RFC3339),
			string(evt.Type),
			evt.Actor,
			truncateString(eventSummary(evt), 60),
		)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatState(st state.ProjectState) (string, error) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("Provider", st.ActiveConfig.Provider)
	t.Row("Model", st.ActiveConfig.Model)
	t.Row("Role", st.ActiveConfig.Role)
	t.Row("Events", fmt.Sprintf("%d", st.EventCount))
	t.Row("Context turns", fmt.Sprintf("%d", len(st.Context)))
	t.Row("Milestones", fmt.Sprintf("%d", len(st.Milestones)))
	t.Row("Violations", violationSummary(st.ViolationCounts))
	t.Row("Corrections", fmt.Sprintf("%d", len(st.Corrections)))

	return t.String(), nil
}

func (f *TableFormatter) FormatRoles(roles []catalog.Role) (string, error) {
	if len(roles) == 0 {
		return "No roles found", nil
	}

	t := f.newTable().
		Headers("Name", "Title", "Category", "Principles")

	for _, r := range roles {
		enforced := "-"
		if r.PrincipleEnforced {
			enforced = "enforced"
		}
		t.Row(r.Name, truncateString(r.Title, 30), string(r.Category), enforced)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatModels(models []catalog.AIConfig) (string, error) {
	if len(models) == 0 {
		return "No models found", nil
	}

	t := f.newTable().
		Headers("Provider", "Model")

	for _, m := range models {
		t.Row(m.Provider, m.Model)
	}

	return t.String(), nil
}

func (f *TableFormatter) newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		})
}

func eventSummary(evt event.Event) string {
	texts := event.Texts(evt)
	if len(texts) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(texts[0]), " ")
}

func violationSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("%d", total)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
