package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/ledger/internal/auth"
	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := sqlite.RunMigrations(cfg.Database.Path); err != nil {
				return err
			}
			version, dirty, err := sqlite.SchemaVersion(cfg.Database.Path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every balance of an owner and report drift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			l := ledger.New(store, ledger.Options{
				Config:           cfg.LedgerRules(),
				ReconcileWorkers: cfg.Ledger.ReconcileWorkers,
			})
			results, err := l.Reconcile(cmd.Context(), owner)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BALANCE\tNAME\tBEFORE\tAFTER\tDRIFT")
			drifted := 0
			for _, r := range results {
				mark := ""
				if r.Drifted() {
					mark = "yes"
					drifted++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.BalanceID, r.Name, r.Before.StringFixed(2), r.After.StringFixed(2), mark)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d balances, %d corrected\n", len(results), drifted)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner ID whose balances to reconcile")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func tokenCmd() *cobra.Command {
	var owner, email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret must be set to mint tokens")
			}
			manager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			token, err := manager.Generate(&models.User{ID: owner, Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner ID to embed in the token")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
