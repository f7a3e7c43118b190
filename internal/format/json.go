package format

import (
	"encoding/json"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/state"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatEvents(events []event.Event) (string, error) {
	return marshalJSON(events)
}

func (f *JSONFormatter) FormatState(st state.ProjectState) (string, error) {
	return marshalJSON(st)
}

func (f *JSONFormatter) FormatRoles(roles []catalog.Role) (string, error) {
	return marshalJSON(roles)
}

func (f *JSONFormatter) FormatModels(models []catalog.AIConfig) (string, error) {
	return marshalJSON(models)
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
