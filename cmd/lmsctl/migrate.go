package main

import (
	"edusmart/internal/infra/persistence/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply every pending embedded goose migration to the primary PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, db, closeDB, err := d.setup(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			cmd.Println("Running migrations...")
			if err := postgres.RunMigrations(cmd.Context(), db); err != nil {
				return err
			}

			cmd.Println("Migrations completed successfully")

			return nil
		},
	}
}
