package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bookledger/internal/errs"
	"github.com/tinoosan/bookledger/internal/ledger"
)

func TestDefaultChart(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.True(t, c.Exists(4300001))
	assert.True(t, c.Exists(7000000))
	assert.True(t, c.Exists(4770000))
	assert.False(t, c.Exists(9999999))

	a, err := c.Get(4770000)
	require.NoError(t, err)
	assert.Equal(t, "IVA repercutido", a.Name)
	assert.Equal(t, LevelAuxiliary, a.Level())

	_, err = c.Get(123)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, LevelGroup, LevelOf(4))
	assert.Equal(t, LevelSubgroup, LevelOf(43))
	assert.Equal(t, LevelAccount, LevelOf(430))
	assert.Equal(t, LevelSubaccount, LevelOf(4300))
	assert.Equal(t, LevelAuxiliary, LevelOf(4300001))
	assert.Equal(t, Level(0), LevelOf(0))

	l, ok := ParseLevel("auxiliary")
	assert.True(t, ok)
	assert.Equal(t, LevelAuxiliary, l)
	l, ok = ParseLevel("3")
	assert.True(t, ok)
	assert.Equal(t, LevelAccount, l)
	_, ok = ParseLevel("nope")
	assert.False(t, ok)
}

func TestListFilters(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	groups := c.List(Filter{Level: LevelGroup})
	require.NotEmpty(t, groups)
	for _, a := range groups {
		assert.Equal(t, LevelGroup, a.Level())
	}

	clients := c.List(Filter{Prefix: "43"})
	codes := make([]ledger.AccountCode, 0, len(clients))
	for _, a := range clients {
		codes = append(codes, a.Code)
	}
	assert.Equal(t, []ledger.AccountCode{43, 430, 4300001}, codes)
}

func TestLoadFileAndRejectDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  - {code: 5700000, name: Caja}\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Parse([]byte("accounts:\n  - {code: 1, name: a}\n  - {code: 1, name: b}\n"))
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
