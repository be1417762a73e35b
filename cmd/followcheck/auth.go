package main

import (
	"errors"
	"fmt"
	"time"

	"followcheck/pkg/auth"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
	"followcheck/pkg/session"
	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	verifyLogin     bool
	keepCredentials bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials and the saved session",
	Long: `Manage stored Instagram credentials and the saved session.

Credentials are looked up in this order:
  - IG_USERNAME / IG_PASSWORD (and IG_TOTP_SECRET) environment variables
  - System keychain (when available)
  - Encrypted file protected by FOLLOWCHECK_PASSPHRASE

Never share your credentials or session.json!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram credentials securely",
	Long: `Store an Instagram username and password in the system keychain or the
encrypted credential file. If the account uses an authenticator app, its
secret can be stored too so two-factor codes are generated automatically.

With --verify the credentials are used to log in right away and the
session is saved for later runs.`,
	Example: `  # Interactive login
  followcheck auth login

  # Store and verify
  followcheck auth login myusername --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove the saved session and stored credentials",
	Example: `  # Forget the session and the default account
  followcheck auth logout

  # Forget only the session
  followcheck auth logout --keep-credentials`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session and stored accounts",
	Long: `Show the saved session and stored accounts without contacting Instagram.
Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "log in after storing the credentials")
	logoutCmd.Flags().BoolVar(&keepCredentials, "keep-credentials", false, "remove only the saved session")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	prompter := ui.NewPrompter()

	var name string
	if len(args) > 0 {
		name = instagram.SanitizeUsername(args[0])
	}
	if name == "" {
		name, err = prompter.Line("Instagram username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		name = instagram.SanitizeUsername(name)
	}
	if !instagram.IsValidUsername(name) {
		return fmt.Errorf("invalid username %q", name)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		if !prompter.Confirm(fmt.Sprintf("Account '%s' already exists. Update credentials?", name)) {
			return nil
		}
	}

	password, err := prompter.Password("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	totpSecret, err := prompter.Password("Authenticator secret (optional, press Enter to skip): ")
	if err != nil {
		return fmt.Errorf("failed to read authenticator secret: %w", err)
	}

	account := &auth.Account{
		Username:   name,
		Password:   password,
		TOTPSecret: totpSecret,
	}
	if err := manager.Store(account); err != nil {
		return err
	}
	ui.PrintSuccess("Credentials stored for " + name)

	if !verifyLogin {
		return nil
	}

	username = name
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, _, err := openSession(cmd.Context(), cfg, account); err != nil {
		return err
	}
	ui.PrintInfo("Session saved", cfg.Session.File)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	client := instagram.NewClientFromConfig(&cfg.Instagram, log)
	if err := session.NewManager(client, cfg.Session.File, nil, log).Logout(); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + cfg.Session.File)

	if keepCredentials {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := cfg.Instagram.Username
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		account, err := manager.RetrieveDefault()
		if err != nil {
			ui.PrintWarning("No stored accounts found")
			return nil
		}
		name = account.Username
	}

	if err := manager.Delete(name); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored credentials", name)
			return nil
		}
		return err
	}
	ui.PrintSuccess("Credentials removed: " + name)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status := session.Inspect(cfg.Session.File)
	ui.PrintHighlight("Session")
	ui.PrintInfo("File", status.Path)
	switch {
	case !status.Exists:
		ui.PrintInfo("State", "no saved session")
	case status.Err != nil:
		ui.PrintWarning("State: unusable", status.Err.Error())
	default:
		ui.PrintInfo("State", "saved (checked with the server on next run)")
		ui.PrintInfo("Username", status.Username)
		ui.PrintInfo("User ID", status.UserID)
		if !status.LastLogin.IsZero() {
			ui.PrintInfo("Last login", status.LastLogin.Local().Format(time.DateTime))
		}
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	ui.Printf("\n")
	ui.PrintHighlight("Stored Accounts")
	if len(accounts) == 0 {
		ui.PrintInfo("None", "use 'followcheck auth login' to add an account")
		return nil
	}
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		ui.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		ui.Printf("   Password: %s\n", sanitized.Password)
		if sanitized.TOTPSecret != "" {
			ui.Printf("   Authenticator: %s\n", sanitized.TOTPSecret)
		}
		if !sanitized.LastModified.IsZero() {
			ui.Printf("   Last Modified: %s\n", sanitized.LastModified.Format(time.DateTime))
		}
	}
	return nil
}
