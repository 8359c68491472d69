package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"erp-sales/internal/logger"
	"erp-sales/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every embedded SQL migration that is not yet recorded in
schema_migrations. Each migration runs in its own transaction. A migration
whose checksum differs from the recorded one aborts the run.`,
	Example: `  salesctl migrate`,
	RunE:    runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	applied, err := migrations.Apply(cmd.Context(), env.pool, logger.WithComponent("migrate"))
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}
