package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
	"github.com/tzayo/library-management-system/internal/security"
	"github.com/tzayo/library-management-system/internal/service"
)

// readPassword is replaced in tests to avoid touching the terminal.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "libctl",
		Short:         "Operate the library backend: migrations, accounts and jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newResetPasswordCmd(opts),
		newRunJobCmd(opts),
	)
	return cmd
}

// env is what every subcommand needs once the config is loaded.
type env struct {
	cfg *config.Config
	db  *sql.DB
}

func (o *rootOptions) open(ctx context.Context) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

// authService builds an AuthService with mail disabled; the CLI never sends welcome emails.
func (e *env) authService(users repository.UserRepository) service.AuthService {
	tokens := security.NewTokenManager(e.cfg.JWT.Secret, e.cfg.AccessTokenTTL())
	return service.NewAuthService(users, tokens, service.NewEmailService(nil, ""), time.Now)
}

// promptPassword asks twice on the terminal unless a value was given by flag.
func promptPassword(cmd *cobra.Command, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	second, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	pw := strings.TrimSpace(string(first))
	if pw != strings.TrimSpace(string(second)) {
		return "", fmt.Errorf("passwords do not match")
	}
	return pw, nil
}
