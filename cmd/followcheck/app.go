package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"followcheck/pkg/auth"
	"followcheck/pkg/config"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
	"followcheck/pkg/session"
	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	fetchDelay  time.Duration
	lookupDelay time.Duration
)

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&fetchDelay, "fetch-delay", 3*time.Second, "pause after each followers/following fetch")
}

func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&lookupDelay, "lookup-delay", 1500*time.Millisecond, "pause after each profile lookup")
}

// commandLineFlags collects the flags that override configuration. Only
// flags the user actually set are included.
func commandLineFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"username":     username,
		"session-file": sessionFile,
		"output":       outputDir,
		"log-level":    logLevel,
		"log-file":     logFile,
	}
	if f := cmd.Flags().Lookup("fetch-delay"); f != nil && f.Changed {
		flags["fetch-delay"] = fetchDelay
	}
	if f := cmd.Flags().Lookup("lookup-delay"); f != nil && f.Changed {
		flags["lookup-delay"] = lookupDelay
	}
	return flags
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("followcheck starting")
	return cfg, nil
}

// resolveAccount finds the credentials to log in with. A password in the
// config file wins, then the environment, keyring and encrypted file.
func resolveAccount(cfg *config.Config) (*auth.Account, error) {
	switched := switchedFromEnvAccount(cfg)
	if cfg.Instagram.Username != "" && cfg.Instagram.Password != "" &&
		!(switched && cfg.Instagram.Password == os.Getenv(config.EnvPassword)) {
		return &auth.Account{
			Username:   cfg.Instagram.Username,
			Password:   cfg.Instagram.Password,
			TOTPSecret: cfg.Instagram.TOTPSecret,
		}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.Resolve(cfg.Instagram.Username)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return nil, fmt.Errorf("%w: set %s and %s or run 'followcheck auth login'",
				err, config.EnvUsername, config.EnvPassword)
		}
		return nil, err
	}
	if account.TOTPSecret == "" && !(switched && cfg.Instagram.TOTPSecret == os.Getenv(config.EnvTOTPSecret)) {
		account.TOTPSecret = cfg.Instagram.TOTPSecret
	}
	return account, nil
}

// switchedFromEnvAccount reports whether the username was changed, for
// example with --username, away from IG_USERNAME. The IG_PASSWORD and
// IG_TOTP_SECRET values then belong to another account.
func switchedFromEnvAccount(cfg *config.Config) bool {
	envUsername := os.Getenv(config.EnvUsername)
	return envUsername != "" && cfg.Instagram.Username != "" &&
		!strings.EqualFold(cfg.Instagram.Username, envUsername)
}

// codeProvider answers two-factor challenges from the TOTP secret when one is
// known and from the terminal otherwise
func codeProvider(account *auth.Account) session.CodeProvider {
	prompter := ui.NewPrompter()
	if account.TOTPSecret == "" {
		return session.CodeProviderFunc(prompter.Code)
	}
	return session.FirstOf(
		&session.TOTPCodeProvider{Secret: account.TOTPSecret},
		session.CodeProviderFunc(prompter.Code),
	)
}

// openSession logs in, reusing the persisted session when possible
func openSession(ctx context.Context, cfg *config.Config, account *auth.Account) (*instagram.Client, *session.Result, error) {
	log := logger.GetLogger()
	client := instagram.NewClientFromConfig(&cfg.Instagram, log)
	manager := session.NewManager(client, cfg.Session.File, codeProvider(account), log)

	ui.PrintInfo("Account", account.Username)
	result, err := manager.Acquire(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	if result.Resumed {
		ui.PrintSuccess("Reusing saved session")
	} else {
		ui.PrintSuccess("Logged in")
	}
	return client, result, nil
}
