package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses value as a Go duration, falling back to
// defaultValue when value is blank. Duration fields stay strings in the
// config so the YAML reads naturally; this is the single choke point that
// turns them into time.Duration.
func DurationOrDefault(value, defaultValue string) (time.Duration, error) {
	for _, candidate := range []string{value, defaultValue} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		d, err := time.ParseDuration(candidate)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
		}
		return d, nil
	}
	return 0, fmt.Errorf("duration value is empty")
}
