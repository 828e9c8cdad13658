package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"regie/internal/app/server"
	"regie/internal/platform/db"
)

func newServeCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), state)
		},
	}
}

func runServe(ctx context.Context, state *rootState) error {
	app, err := server.New(ctx, state.cfg, state.logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}

func newMigrateCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), state.cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool, db.Migrations())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", version)
			}
			return nil
		},
	}
}

func newSeedCommand(state *rootState) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo compensation records for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), state.cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			inserted, err := db.Seed(cmd.Context(), pool, tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d compensation records for tenant %s\n", inserted, tenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
