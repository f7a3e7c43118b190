// Package format renders events, state, and catalog entries for the CLI in
// table, json, or yaml form.
package format

import (
	"fmt"
	"strings"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/state"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

type Formatter interface {
	FormatEvents([]event.Event) (string, error)
	FormatState(state.ProjectState) (string, error)
	FormatRoles([]catalog.Role) (string, error)
	FormatModels([]catalog.AIConfig) (string, error)
}

func New(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}
