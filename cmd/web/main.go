// Command web serves the whodunit deduction game JSON API.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ahietala/whodunit/internal/db"
	"github.com/ahietala/whodunit/internal/envstruct"
	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/game"
	"github.com/ahietala/whodunit/internal/logging"
	"github.com/ahietala/whodunit/internal/oracle"
	"github.com/ahietala/whodunit/internal/pprofserver"
	"github.com/ahietala/whodunit/internal/store"
)

type application struct {
	logger *slog.Logger
	engine *game.Engine
}

type config struct {
	// Addr is the HTTP listen address. Use port 0 to pick a free port.
	Addr string `env:"WHODUNIT_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the loopback pprof server when non-empty, e.g. ":6060".
	PprofAddr string `env:"WHODUNIT_PPROF_ADDR" envDefault:""`
	// SQLiteURL is the database path, or ":memory:" for an ephemeral database.
	SQLiteURL string `env:"WHODUNIT_SQLITE_URL" envDefault:"./whodunit.sqlite"`
	// OracleProvider selects the generative backend: "openai" or "scripted".
	OracleProvider string `env:"WHODUNIT_ORACLE" envDefault:"scripted"`
	OpenAIAPIKey   string `env:"WHODUNIT_OPENAI_API_KEY" envDefault:""`
	OpenAIModel    string `env:"WHODUNIT_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	// Retry knobs for the oracle transport. Delays and the per-attempt timeout
	// use Go duration syntax, e.g. "500ms" or "4s". Unset knobs keep the
	// package defaults.
	OracleMaxAttempts  string `env:"WHODUNIT_ORACLE_MAX_ATTEMPTS" envDefault:""`
	OracleInitialDelay string `env:"WHODUNIT_ORACLE_INITIAL_DELAY" envDefault:""`
	OracleMaxDelay     string `env:"WHODUNIT_ORACLE_MAX_DELAY" envDefault:""`
	OracleTimeout      string `env:"WHODUNIT_ORACLE_TIMEOUT" envDefault:""`
}

// retryPolicy parses the optional retry knobs. Zero fields are filled with the
// defaults by the oracle package.
func (cfg config) retryPolicy() (oracle.RetryPolicy, error) {
	var policy oracle.RetryPolicy
	if cfg.OracleMaxAttempts != "" {
		attempts, err := strconv.Atoi(cfg.OracleMaxAttempts)
		if err != nil {
			return policy, errors.Wrap(err, "parse WHODUNIT_ORACLE_MAX_ATTEMPTS")
		}
		policy.MaxAttempts = attempts
	}
	for _, knob := range []struct {
		value string
		name  string
		field *time.Duration
	}{
		{cfg.OracleInitialDelay, "WHODUNIT_ORACLE_INITIAL_DELAY", &policy.InitialDelay},
		{cfg.OracleMaxDelay, "WHODUNIT_ORACLE_MAX_DELAY", &policy.MaxDelay},
		{cfg.OracleTimeout, "WHODUNIT_ORACLE_TIMEOUT", &policy.Timeout},
	} {
		if knob.value == "" {
			continue
		}
		d, err := time.ParseDuration(knob.value)
		if err != nil {
			return policy, errors.Wrap(err, "parse "+knob.name)
		}
		*knob.field = d
	}
	return policy, nil
}

func main() {
	// Missing .env is fine, the environment may be configured externally.
	_ = godotenv.Load()

	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))

	ctx := context.Background()
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	retryPolicy, err := cfg.retryPolicy()
	if err != nil {
		return errors.Wrap(err, "parse retry configuration")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(cfg.PprofAddr, logger)
	}

	dbs, err := db.NewDB(cfg.SQLiteURL)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		if closeErr := dbs.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()

	app := &application{
		logger: logger,
		engine: game.NewEngine(store.NewSQLiteStore(dbs), buildOracle(cfg, retryPolicy, logger), logger),
	}
	return app.serve(ctx, cfg.Addr)
}

// buildOracle wires the configured backend. The OpenAI client always carries
// the scripted oracle as fallback so a degraded upstream keeps games playable.
func buildOracle(cfg config, retryPolicy oracle.RetryPolicy, logger *slog.Logger) oracle.Oracle {
	scripted := oracle.NewScripted(time.Now().UnixNano())
	if cfg.OracleProvider == "openai" && cfg.OpenAIAPIKey != "" {
		client := oracle.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, retryPolicy, logger)
		return oracle.NewFallback(client, scripted, logger)
	}
	return scripted
}
