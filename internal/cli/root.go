// Package cli provides the bookledger commands: serve, migrate and recompute.
package cli

import (
    "fmt"
    "log/slog"

    "github.com/spf13/cobra"

    "github.com/tinoosan/bookledger/internal/config"
)

var (
    envFile string
    debug   bool

    cfg    *config.Config
    logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
    Use:   "bookledger",
    Short: "Double-entry ledger service",
    Long: `bookledger records balanced journal entries per book and fiscal year,
keeps monthly account balances up to date and serves balance and statement
queries over HTTP.

Example:
  bookledger migrate up
  bookledger serve
  bookledger recompute --book 1 --year 2025`,
    SilenceUsage: true,
    PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
        c, err := config.Load(envFile)
        if err != nil {
            return err
        }
        if debug {
            c.LogLevel = "debug"
        }
        cfg = c
        logger = c.Logger()
        slog.SetDefault(logger)
        return nil
    },
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
    return rootCmd.Execute()
}

func init() {
    rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is .env when present)")
    rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

    rootCmd.AddCommand(serveCmd)
    rootCmd.AddCommand(migrateCmd)
    rootCmd.AddCommand(recomputeCmd)
}

func printf(cmd *cobra.Command, format string, args ...any) {
    fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
