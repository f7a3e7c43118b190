package main

import (
	"context"
	"fmt"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/coordinator"
	"github.com/chorusd/chorus/internal/format"
	"github.com/chorusd/chorus/internal/logger"
	"github.com/chorusd/chorus/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

// executeWithProject wires catalog, router, and coordinator, opens the
// project named by the --project flag, and tears everything down afterwards.
func executeWithProject(cmd *cobra.Command, fn func(ctx context.Context, p *coordinator.Project) error) error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	projectID, _ := cmd.Flags().GetString("project")

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	router, err := model.NewRouter(cfg.Models)
	if err != nil {
		return fmt.Errorf("failed to initialize model router: %w", err)
	}

	coord := coordinator.New(cfg, cat, coordinator.NewRouterGenerator(router))
	defer coord.Close()

	p, err := coord.Project(projectID)
	if err != nil {
		return err
	}

	ctx := logger.WithTraceID(cmd.Context(), ulid.Make().String())
	ctx = logger.WithProjectID(ctx, projectID)

	return fn(ctx, p)
}

func resolveFormatter(cmd *cobra.Command) (format.Formatter, error) {
	raw, _ := cmd.Flags().GetString("output")
	outputFormat, err := format.ParseOutputFormat(raw)
	if err != nil {
		return nil, err
	}
	return format.New(outputFormat)
}

func resolveActor(cmd *cobra.Command) string {
	actor, _ := cmd.Flags().GetString("actor")
	if actor == "" {
		actor = "user"
	}
	return actor
}
