// Package account exposes the chart of accounts to the engine and the API:
// lookups by code, filtered listings, and the existence check used by strict
// posting validation.
package account

import (
    "context"
    "strings"

    "github.com/tinoosan/bookledger/internal/chart"
    "github.com/tinoosan/bookledger/internal/errs"
    "github.com/tinoosan/bookledger/internal/ledger"
)

// Repo is the chart registry. *chart.Chart satisfies it.
type Repo interface {
    Get(code ledger.AccountCode) (chart.Account, error)
    Exists(code ledger.AccountCode) bool
    List(f chart.Filter) []chart.Account
}

// Service exposes read-only chart operations.
type Service interface {
    Get(ctx context.Context, code ledger.AccountCode) (chart.Account, error)
    List(ctx context.Context, f chart.Filter) ([]chart.Account, error)
    Levels(ctx context.Context) []chart.LevelDef
    AccountExists(ctx context.Context, code ledger.AccountCode) (bool, error)
}

type service struct {
    repo Repo
}

func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) Get(_ context.Context, code ledger.AccountCode) (chart.Account, error) {
    if code <= 0 {
        return chart.Account{}, errs.ErrInvalid
    }
    return s.repo.Get(code)
}

// List validates the prefix before delegating; prefixes are digit strings.
func (s *service) List(_ context.Context, f chart.Filter) ([]chart.Account, error) {
    f.Prefix = strings.TrimSpace(f.Prefix)
    for _, r := range f.Prefix {
        if r < '0' || r > '9' {
            return nil, errs.ErrInvalid
        }
    }
    return s.repo.List(f), nil
}

func (s *service) Levels(context.Context) []chart.LevelDef { return chart.Levels() }

// AccountExists implements the posting engine's optional collaborator check.
func (s *service) AccountExists(_ context.Context, code ledger.AccountCode) (bool, error) {
    if code <= 0 {
        return false, nil
    }
    return s.repo.Exists(code), nil
}
