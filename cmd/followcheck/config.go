package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"followcheck/pkg/config"
	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage followcheck configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IG_* and FOLLOWCHECK_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file with the default values.

The file is created as '.followcheck.yaml' in the current directory unless
a different path is given with --config. Passwords are never written.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration for syntax errors and invalid values and
check that the report and log directories can be created.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".followcheck.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(commandLineFlags(cmd))
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.Printf("\nNext steps:\n")
	ui.Printf("1. Set instagram.username in the file or export %s\n", config.EnvUsername)
	ui.Printf("2. Run 'followcheck auth login' to store the password\n")
	ui.Printf("3. Run 'followcheck' to compare followers and following\n")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return err
	}

	display := *cfg
	if display.Instagram.Password != "" {
		display.Instagram.Password = "********"
	}
	if display.Instagram.TOTPSecret != "" {
		display.Instagram.TOTPSecret = "********"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	ui.Printf("\n%s", data)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return err
	}

	var problems []error
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if cfg.Instagram.Username == "" && os.Getenv(config.EnvUsername) == "" {
		ui.PrintWarning("No username configured", "the first stored account will be used")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.Printf("\nConfiguration summary:\n")
	ui.Printf("  Session file: %s\n", cfg.Session.File)
	ui.Printf("  Output directory: %s\n", cfg.Output.Directory)
	ui.Printf("  Fetch delay: %s\n", cfg.Delays.AfterFetch)
	ui.Printf("  Lookup delay: %s\n", cfg.Delays.AfterLookup)
	ui.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
