package main

import (
	"log/slog"
	"time"

	"edusmart/internal/infra/persistence/postgres"

	"github.com/spf13/cobra"
)

func newPurgeResetsCmd(d *deps) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "purge-resets",
		Short: "Clear expired password reset tokens",
		Long: `Remove reset token digests whose expiry has passed. Expired tokens are
already unusable; purging only keeps the users table tidy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, db, closeDB, err := d.setup(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			cutoff := time.Now().Add(-grace)
			purged, err := postgres.NewUserRepository(db).PurgeExpiredResetTokens(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			logger.Info("Expired reset tokens purged", slog.Int64("count", purged), slog.Time("cutoff", cutoff))
			cmd.Printf("Purged %d expired reset token(s)\n", purged)

			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 0, "only purge tokens that expired at least this long ago")

	return cmd
}
