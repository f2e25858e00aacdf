package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/UniQw/mailq"
	"github.com/UniQw/mailq/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    config.Config
	log    mailq.Logger
	rdb    *redis.Client
	client *mailq.Client
}

// newRootCmd builds the command tree. The caller closes the returned app
// after Execute; PersistentPostRun is skipped when a command fails.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "mailq",
		Short:         "Redis-backed email job queue",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.RedisAddr, "redis-addr", a.cfg.RedisAddr, "Redis address (MAILQ_REDIS_ADDR)")
	f.StringVar(&a.cfg.RedisPassword, "redis-password", a.cfg.RedisPassword, "Redis password (MAILQ_REDIS_PASSWORD)")
	f.IntVar(&a.cfg.RedisDB, "redis-db", a.cfg.RedisDB, "Redis database (MAILQ_REDIS_DB)")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error (MAILQ_LOG_LEVEL)")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "text or json (MAILQ_LOG_FORMAT)")

	root.AddCommand(
		workerCmd(a),
		enqueueCmd(a),
		statsCmd(a),
		failedCmd(a),
		cleanupCmd(a),
		scheduleCmd(a),
	)
	return root, a
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	if a.cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	}
	a.log = mailq.NewSlogLogger(slog.New(h))

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	a.client = mailq.NewClient(a.rdb,
		mailq.WithLogger(a.log),
		mailq.WithBaseDelay(a.cfg.BaseDelay),
		mailq.WithMaxDelay(a.cfg.MaxDelay),
		mailq.WithCompletedTTL(a.cfg.CompletedTTL),
		mailq.WithFailedCap(a.cfg.FailedCap),
		mailq.WithRetryBatch(a.cfg.RetryBatch),
	)
	return nil
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close redis: %v\n", err)
		}
	}
}
