package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/account-auth/internal/config"
	"github.com/sakif/account-auth/internal/logging"
	"github.com/sakif/account-auth/internal/server"
)

// NewRootCmd creates the root command. Running it without a subcommand is
// the same as "serve".
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account-auth",
		Short: "Account registration, login and OTP verification service",
		Long: `account-auth serves a JSON API for registering accounts, signing in
with an HttpOnly session cookie, verifying email ownership and resetting
passwords with one-time codes.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Settings come from defaults, the --config
YAML file, ACCOUNT_* environment variables and flags, in that order.`,
		RunE: runServe,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("account-auth %s (commit: %s)\n", version, commit)
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return err
	}

	srv, err := server.New(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format := logging.FormatText
	if cfg.Production() {
		format = logging.FormatJSON
	}
	return logging.New(os.Stderr, format, level), nil
}

// ensureDBDir creates the database's parent directory, like mkdir -p.
func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
