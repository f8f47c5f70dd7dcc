// Package chart is the read-only chart of accounts: account codes, their
// names, and the PGC level each code sits at.
package chart

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinoosan/bookledger/internal/errs"
	"github.com/tinoosan/bookledger/internal/ledger"
)

//go:embed default.yaml
var defaultChart []byte

// Level is the depth of a code in the chart, given by its number of digits.
type Level int

const (
	LevelGroup Level = iota + 1
	LevelSubgroup
	LevelAccount
	LevelSubaccount
	// LevelAuxiliary covers every code with five or more digits.
	LevelAuxiliary
)

// LevelDef describes a level for listings.
type LevelDef struct {
	Level  Level  `json:"level"`
	Code   string `json:"code"`
	Label  string `json:"label"`
	Digits string `json:"digits"`
}

var levels = []LevelDef{
	{Level: LevelGroup, Code: "group", Label: "Group", Digits: "1"},
	{Level: LevelSubgroup, Code: "subgroup", Label: "Subgroup", Digits: "2"},
	{Level: LevelAccount, Code: "account", Label: "Account", Digits: "3"},
	{Level: LevelSubaccount, Code: "subaccount", Label: "Subaccount", Digits: "4"},
	{Level: LevelAuxiliary, Code: "auxiliary", Label: "Auxiliary account", Digits: "5+"},
}

// Levels returns the level definitions in depth order.
func Levels() []LevelDef { return append([]LevelDef(nil), levels...) }

// ParseLevel accepts a level code ("auxiliary") or number ("5").
func ParseLevel(s string) (Level, bool) {
	for _, l := range levels {
		if strings.EqualFold(l.Code, s) || strconv.Itoa(int(l.Level)) == s {
			return l.Level, true
		}
	}
	return 0, false
}

// LevelOf returns the level of a code. Non-positive codes have level 0.
func LevelOf(code ledger.AccountCode) Level {
	if code <= 0 {
		return 0
	}
	n := len(code.String())
	if n >= int(LevelAuxiliary) {
		return LevelAuxiliary
	}
	return Level(n)
}

// Account is a chart entry.
type Account struct {
	Code ledger.AccountCode `yaml:"code" json:"code"`
	Name string             `yaml:"name" json:"name"`
}

// Level returns the depth of the account in the chart.
func (a Account) Level() Level { return LevelOf(a.Code) }

type file struct {
	Accounts []Account `yaml:"accounts"`
}

// Chart is an immutable registry of accounts. Safe for concurrent use.
type Chart struct {
	byCode map[ledger.AccountCode]Account
	sorted []Account
}

// Default returns the embedded chart.
func Default() (*Chart, error) { return Parse(defaultChart) }

// Load reads a YAML chart from path. An empty path loads the embedded default.
func Load(path string) (*Chart, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML chart document.
func Parse(b []byte) (*Chart, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	return New(f.Accounts)
}

// New builds a chart, rejecting non-positive and duplicate codes.
func New(accounts []Account) (*Chart, error) {
	c := &Chart{byCode: make(map[ledger.AccountCode]Account, len(accounts))}
	for _, a := range accounts {
		if a.Code <= 0 {
			return nil, fmt.Errorf("%w: account code %d", errs.ErrInvalid, a.Code)
		}
		if _, dup := c.byCode[a.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate account code %d", errs.ErrInvalid, a.Code)
		}
		c.byCode[a.Code] = a
		c.sorted = append(c.sorted, a)
	}
	sort.Slice(c.sorted, func(i, j int) bool {
		return c.sorted[i].Code.String() < c.sorted[j].Code.String()
	})
	return c, nil
}

// Get returns the account or errs.ErrNotFound.
func (c *Chart) Get(code ledger.AccountCode) (Account, error) {
	a, ok := c.byCode[code]
	if !ok {
		return Account{}, errs.ErrNotFound
	}
	return a, nil
}

// Exists reports whether the code is in the chart.
func (c *Chart) Exists(code ledger.AccountCode) bool {
	_, ok := c.byCode[code]
	return ok
}

// Filter narrows List. Zero values mean "all".
type Filter struct {
	Level  Level
	Prefix string
}

// List returns accounts in lexical code order, so children follow their parents.
func (c *Chart) List(f Filter) []Account {
	out := make([]Account, 0, len(c.sorted))
	for _, a := range c.sorted {
		if f.Level != 0 && a.Level() != f.Level {
			continue
		}
		if f.Prefix != "" && !strings.HasPrefix(a.Code.String(), f.Prefix) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Len returns the number of accounts.
func (c *Chart) Len() int { return len(c.sorted) }
