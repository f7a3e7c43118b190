package format

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/state"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatEvents(events []event.Event) (string, error) {
	// Raw JSON payloads would render as !!binary; expand them first.
	out := make([]map[string]any, 0, len(events))
	for _, evt := range events {
		var payload any
		_ = json.Unmarshal(evt.Payload, &payload)
		out = append(out, map[string]any{
			"id":        evt.ID,
			"timestamp": evt.Timestamp,
			"type":      string(evt.Type),
			"actor":     evt.Actor,
			"payload":   payload,
		})
	}
	return marshalYAML(out)
}

func (f *YAMLFormatter) FormatState(st state.ProjectState) (string, error) {
	return marshalYAML(st)
}

func (f *YAMLFormatter) FormatRoles(roles []catalog.Role) (string, error) {
	return marshalYAML(roles)
}

func (f *YAMLFormatter) FormatModels(models []catalog.AIConfig) (string, error) {
	return marshalYAML(models)
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
