// Package search answers history queries by scanning the project's event
// log. It works on whatever the store returns at call time and never sees a
// partially appended event, so results are a consistent snapshot.
package search

import (
	"strings"
	"time"

	"github.com/chorusd/chorus/internal/event"
)

// Query filters combine with AND. Zero values mean "no constraint".
type Query struct {
	Text  string
	Type  event.Type
	Actor string
	Since time.Time
	Until time.Time
	Limit int
}

// Source is the slice of the store that search needs.
type Source interface {
	ReadAll() ([]event.Event, error)
}

type Engine struct {
	src Source
}

func New(src Source) *Engine {
	return &Engine{src: src}
}

// Run scans the full log and returns matches in ascending id order. With a
// Limit it returns the latest matching events, still id-ascending.
func (e *Engine) Run(q Query) ([]event.Event, error) {
	events, err := e.src.ReadAll()
	if err != nil {
		return nil, err
	}

	matched := make([]event.Event, 0)
	for _, ev := range events {
		if Matches(q, ev) {
			matched = append(matched, ev)
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[len(matched)-q.Limit:]
	}
	return matched, nil
}

// Matches reports whether a single event satisfies every filter in the
// query. Text matching is a case-insensitive substring test over the
// event's searchable fields; events whose payload cannot be decoded simply
// never text-match.
func Matches(q Query, ev event.Event) bool {
	if q.Type != "" && ev.Type != q.Type {
		return false
	}
	if q.Actor != "" && ev.Actor != q.Actor {
		return false
	}
	if !q.Since.IsZero() && ev.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && ev.Timestamp.After(q.Until) {
		return false
	}
	if q.Text != "" && !textMatch(q.Text, ev) {
		return false
	}
	return true
}

func textMatch(needle string, ev event.Event) bool {
	needle = strings.ToLower(needle)
	for _, field := range event.Texts(ev) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
