// Package config loads service settings from the environment, with an
// optional .env file underneath.
package config

import (
    "fmt"
    "log/slog"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
    HTTPAddr    string
    DatabaseURL string
    LogLevel    string
    LogFormat   string

    Currency       string
    StrictAccounts bool
    // ChartFile is a YAML chart of accounts; empty uses the embedded default.
    ChartFile string

    RedisURL     string
    RedisChannel string
    KafkaBrokers []string
    KafkaTopic   string

    RateLimit            string
    MigrateOnStart       bool
    RecomputeParallelism int
    ShutdownTimeout      time.Duration
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("HTTP_ADDR", ":8080")
    v.SetDefault("DATABASE_URL", "")
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("LOG_FORMAT", "json")
    v.SetDefault("LEDGER_CURRENCY", "EUR")
    v.SetDefault("LEDGER_STRICT_ACCOUNTS", false)
    v.SetDefault("CHART_FILE", "")
    v.SetDefault("REDIS_URL", "")
    v.SetDefault("REDIS_CHANNEL", "ledger_events")
    v.SetDefault("KAFKA_BROKERS", "")
    v.SetDefault("KAFKA_TOPIC", "ledger.events")
    v.SetDefault("RATE_LIMIT", "100-S")
    v.SetDefault("MIGRATE_ON_START", false)
    v.SetDefault("RECOMPUTE_PARALLELISM", 4)
    v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// Load reads configuration from environment variables. envFile, or .env when
// empty, is loaded first if present; real environment variables win.
func Load(envFile string) (*Config, error) {
    if envFile != "" {
        if err := godotenv.Load(envFile); err != nil {
            return nil, fmt.Errorf("load %s: %w", envFile, err)
        }
    } else {
        _ = godotenv.Load()
    }

    v := viper.New()
    setDefaults(v)
    v.AutomaticEnv()

    cfg := &Config{
        HTTPAddr:             v.GetString("HTTP_ADDR"),
        DatabaseURL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
        LogLevel:             v.GetString("LOG_LEVEL"),
        LogFormat:            strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
        Currency:             strings.ToUpper(strings.TrimSpace(v.GetString("LEDGER_CURRENCY"))),
        StrictAccounts:       v.GetBool("LEDGER_STRICT_ACCOUNTS"),
        ChartFile:            v.GetString("CHART_FILE"),
        RedisURL:             strings.TrimSpace(v.GetString("REDIS_URL")),
        RedisChannel:         v.GetString("REDIS_CHANNEL"),
        KafkaBrokers:         splitList(v.GetString("KAFKA_BROKERS")),
        KafkaTopic:           v.GetString("KAFKA_TOPIC"),
        RateLimit:            strings.TrimSpace(v.GetString("RATE_LIMIT")),
        MigrateOnStart:       v.GetBool("MIGRATE_ON_START"),
        RecomputeParallelism: v.GetInt("RECOMPUTE_PARALLELISM"),
    }

    raw := v.GetString("SHUTDOWN_TIMEOUT")
    d, err := time.ParseDuration(raw)
    if err != nil {
        return nil, fmt.Errorf("SHUTDOWN_TIMEOUT %q: %w", raw, err)
    }
    cfg.ShutdownTimeout = d

    if cfg.Currency == "" {
        return nil, fmt.Errorf("LEDGER_CURRENCY must not be empty")
    }
    if cfg.RecomputeParallelism < 1 {
        cfg.RecomputeParallelism = 1
    }
    return cfg, nil
}

// Logger builds the process logger: JSON by default, text with LOG_FORMAT=text.
func (c *Config) Logger() *slog.Logger {
    opts := &slog.HandlerOptions{Level: ParseLogLevel(c.LogLevel)}
    if c.LogFormat == "text" {
        return slog.New(slog.NewTextHandler(logOutput, opts))
    }
    return slog.New(slog.NewJSONHandler(logOutput, opts))
}

// ParseLogLevel maps env values to slog.Leveler.
func ParseLogLevel(s string) slog.Leveler {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return slog.LevelDebug
    case "warn", "warning":
        return slog.LevelWarn
    case "error", "err":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}

func splitList(s string) []string {
    var out []string
    for _, part := range strings.Split(s, ",") {
        if p := strings.TrimSpace(part); p != "" {
            out = append(out, p)
        }
    }
    return out
}
