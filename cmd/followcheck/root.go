package main

import (
	"context"
	"fmt"
	"runtime"

	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	username      string
	sessionFile   string
	outputDir     string
	noColor       bool
	quiet         bool
	notifications bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "followcheck [username]",
	Short: "Find out who does not follow you back on Instagram",
	Long: `followcheck logs in to Instagram, fetches the followers and following
lists of an account and writes two reports:

  outputs/not_following_back.txt   accounts you follow that do not follow you
  outputs/fans.txt                 accounts that follow you that you do not follow

The session is saved to session.json and reused on the next run. Running
followcheck without a subcommand is the same as 'followcheck compare'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor)
		ui.SetQuietMode(quiet)

		switch cmd.Name() {
		case "followcheck", "compare", "enrich":
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd, args)
	},
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err.Error())
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.followcheck.yaml or ~/.config/followcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "Instagram account to log in with")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "session file (default session.json)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "report directory (default outputs)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a run finishes")

	addFetchFlags(rootCmd)

	rootCmd.SetVersionTemplate(`followcheck {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
