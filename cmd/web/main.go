package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ngo_backend/internal/app"
	"ngo_backend/internal/auth"
	"ngo_backend/internal/config"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ngo-backend",
		Short:   "NGO donations backend: checkout, webhooks, reconciliation",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciliation worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate()
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation sweep over stale unprocessed payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			a, err := app.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Services.DonationService.ReconcilePending(ctx, a.DB.WithContext(ctx))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		role   string
		userID string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator JWT for local use",
		Example: `  ngo-backend token --role treasurer
  ngo-backend token --role volunteer --user ops-42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

			token, err := auth.GenerateToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleTreasurer, "operator role (admin, treasurer, volunteer)")
	cmd.Flags().StringVar(&userID, "user", "cli-operator", "operator id stored in the token")
	return cmd
}
