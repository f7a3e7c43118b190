package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chorusd/chorus/internal/coordinator"
	"github.com/chorusd/chorus/internal/event"
	"github.com/chorusd/chorus/internal/search"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search the project's event history",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		q, err := buildQuery(cmd, args)
		if err != nil {
			return err
		}

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			events, err := p.Search(q)
			if err != nil {
				return err
			}

			out, err := formatter.FormatEvents(events)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func buildQuery(cmd *cobra.Command, args []string) (search.Query, error) {
	q := search.Query{Text: strings.Join(args, " ")}

	if typeName, _ := cmd.Flags().GetString("type"); typeName != "" {
		t := event.Type(typeName)
		if !event.KnownType(t) {
			return search.Query{}, fmt.Errorf("unknown event type: %s", typeName)
		}
		q.Type = t
	}

	q.Actor, _ = cmd.Flags().GetString("actor")
	q.Limit, _ = cmd.Flags().GetInt("limit")

	since, _ := cmd.Flags().GetString("since")
	if since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid --since (want RFC3339): %w", err)
		}
		q.Since = ts
	}

	until, _ := cmd.Flags().GetString("until")
	if until != "" {
		ts, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid --until (want RFC3339): %w", err)
		}
		q.Until = ts
	}

	return q, nil
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().String("type", "", "filter by event type")
	searchCmd.Flags().String("actor", "", "filter by actor")
	searchCmd.Flags().String("since", "", "events at or after this RFC3339 timestamp")
	searchCmd.Flags().String("until", "", "events at or before this RFC3339 timestamp")
	searchCmd.Flags().Int("limit", 0, "return at most this many of the latest matches")
}
