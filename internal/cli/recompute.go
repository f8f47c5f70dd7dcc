package cli

import (
    "errors"

    "github.com/spf13/cobra"

    "github.com/tinoosan/bookledger/internal/ledger"
)

var (
    recomputeBook string
    recomputeYear int
    recomputeAll  bool
)

var recomputeCmd = &cobra.Command{
    Use:   "recompute",
    Short: "Rebuild monthly balances from the journal",
    Long: `Rebuild monthly balances of one book and fiscal year, or of every
scope with --all, from the stored postings. Commits to a scope wait while
it is rebuilt.

Example:
  bookledger recompute --book 1 --year 2025
  bookledger recompute --all`,
    Args: cobra.NoArgs,
    RunE: runRecompute,
}

func init() {
    recomputeCmd.Flags().StringVar(&recomputeBook, "book", "", "book id")
    recomputeCmd.Flags().IntVar(&recomputeYear, "year", 0, "fiscal year")
    recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "recompute every book and year")
    recomputeCmd.MarkFlagsMutuallyExclusive("all", "book")
    recomputeCmd.MarkFlagsMutuallyExclusive("all", "year")
    recomputeCmd.MarkFlagsRequiredTogether("book", "year")
}

func runRecompute(cmd *cobra.Command, args []string) error {
    if cfg.DatabaseURL == "" {
        return errors.New("DATABASE_URL is required; the in-memory store has nothing to recompute")
    }
    if !recomputeAll && recomputeBook == "" {
        return errors.New("either --book and --year or --all is required")
    }
    a, err := build(cmd.Context(), cfg, logger)
    if err != nil {
        return err
    }
    defer a.close()

    if recomputeAll {
        scopes, err := a.agg.RecomputeAll(cmd.Context())
        for _, s := range scopes {
            printf(cmd, "recomputed %s\n", s)
        }
        return err
    }
    scope := ledger.Scope{Book: recomputeBook, Year: recomputeYear}
    if err := a.agg.Recompute(cmd.Context(), scope); err != nil {
        return err
    }
    printf(cmd, "recomputed %s\n", scope)
    return nil
}
