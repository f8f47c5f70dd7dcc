package cli

import (
    "errors"

    "github.com/spf13/cobra"

    pgstore "github.com/tinoosan/bookledger/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
    Use:       "migrate up|down",
    Short:     "Apply or roll back the Postgres schema",
    Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
    ValidArgs: []string{"up", "down"},
    RunE: func(cmd *cobra.Command, args []string) error {
        if cfg.DatabaseURL == "" {
            return errors.New("DATABASE_URL is required")
        }
        dir := pgstore.Up
        if args[0] == "down" {
            dir = pgstore.Down
        }
        if err := pgstore.Migrate(cfg.DatabaseURL, dir); err != nil {
            return err
        }
        logger.Info("migration complete", "direction", args[0])
        return nil
    },
}
