package config

import (
    "bytes"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
    chdir(t, t.TempDir())
    cfg, err := Load("")
    require.NoError(t, err)
    assert.Equal(t, ":8080", cfg.HTTPAddr)
    assert.Equal(t, "EUR", cfg.Currency)
    assert.False(t, cfg.StrictAccounts)
    assert.Equal(t, "ledger_events", cfg.RedisChannel)
    assert.Equal(t, "ledger.events", cfg.KafkaTopic)
    assert.Empty(t, cfg.KafkaBrokers)
    assert.Equal(t, "100-S", cfg.RateLimit)
    assert.Equal(t, 4, cfg.RecomputeParallelism)
    assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnv(t *testing.T) {
    chdir(t, t.TempDir())
    t.Setenv("LEDGER_CURRENCY", " usd ")
    t.Setenv("LEDGER_STRICT_ACCOUNTS", "true")
    t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
    t.Setenv("RECOMPUTE_PARALLELISM", "0")
    t.Setenv("SHUTDOWN_TIMEOUT", "3s")
    cfg, err := Load("")
    require.NoError(t, err)
    assert.Equal(t, "USD", cfg.Currency)
    assert.True(t, cfg.StrictAccounts)
    assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
    assert.Equal(t, 1, cfg.RecomputeParallelism)
    assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
    dir := t.TempDir()
    chdir(t, dir)
    path := filepath.Join(dir, "ledger.env")
    require.NoError(t, os.WriteFile(path, []byte("CHART_FILE=chart.yaml\nHTTP_ADDR=:9000\n"), 0o600))
    t.Setenv("HTTP_ADDR", ":7000")
    // godotenv sets process variables; t.Setenv restores this one afterwards.
    t.Setenv("CHART_FILE", "")
    require.NoError(t, os.Unsetenv("CHART_FILE"))

    cfg, err := Load(path)
    require.NoError(t, err)
    assert.Equal(t, ":7000", cfg.HTTPAddr)
    assert.Equal(t, "chart.yaml", cfg.ChartFile)

    _, err = Load(filepath.Join(dir, "missing.env"))
    assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
    chdir(t, t.TempDir())
    t.Setenv("SHUTDOWN_TIMEOUT", "soon")
    _, err := Load("")
    assert.Error(t, err)
}

func TestLogger(t *testing.T) {
    var buf bytes.Buffer
    logOutput = &buf
    t.Cleanup(func() { logOutput = os.Stdout })

    (&Config{LogLevel: "warn", LogFormat: "json"}).Logger().Info("hidden")
    assert.Zero(t, buf.Len())
    (&Config{LogLevel: "debug", LogFormat: "text"}).Logger().Debug("shown", "k", "v")
    assert.Contains(t, buf.String(), "msg=shown k=v")
}

// chdir switches the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
    t.Helper()
    prev, err := os.Getwd()
    if err != nil {
        t.Fatal(err)
    }
    if err := os.Chdir(dir); err != nil {
        t.Fatal(err)
    }
    t.Cleanup(func() { _ = os.Chdir(prev) })
}
