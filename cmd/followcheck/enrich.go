package main

import (
	"fmt"

	"followcheck/pkg/enrich"
	"followcheck/pkg/logger"
	"followcheck/pkg/pacing"
	"followcheck/pkg/report"
	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var enrichInput string

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich [usernames...]",
	Short: "Look up profile details for a list of usernames",
	Long: `Look up the full name, privacy, account type and verification status of
each username and write them to profiles.csv.

Usernames come from the arguments, from --input (one per line), or from
the not_following_back.txt report of the last comparison. Lookups that
fail leave empty cells and are listed in skipped_users.txt.`,
	Example: `  # Enrich the last not_following_back.txt
  followcheck enrich

  # Enrich a hand-written list
  followcheck enrich --input suspects.txt

  # Enrich a few accounts
  followcheck enrich alice bob`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "file with one username per line (default: the not_following_back report)")
	addLookupFlags(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	usernames := args
	if len(usernames) == 0 {
		input := enrichInput
		if input == "" {
			input = cfg.Output.NotFollowingBackPath()
		}
		usernames, err = report.ReadLines(input)
		if err != nil {
			return err
		}
		ui.PrintInfo("Input", input)
	}
	if len(usernames) == 0 {
		ui.PrintWarning("No usernames to enrich")
		return nil
	}

	account, err := resolveAccount(cfg)
	if err != nil {
		return err
	}

	client, _, err := openSession(ctx, cfg, account)
	if err != nil {
		return err
	}

	logger.LogComponentStart("enrich", map[string]interface{}{
		"usernames":    len(usernames),
		"lookup_delay": cfg.Delays.AfterLookup.String(),
	})
	ui.PrintHighlight(fmt.Sprintf("[LOOKING UP %d PROFILES]", len(usernames)))

	progress := ui.NewLookupProgress(len(usernames))
	enricher := enrich.NewEnricher(client, pacing.NewFixedDelay(cfg.Delays.AfterLookup), logger.GetLogger())
	enricher.OnProgress(func(done, total int, failed bool) {
		progress.Advance(failed)
		progress.Print()
	})

	result, err := enricher.Enrich(ctx, usernames)
	if err != nil {
		return err
	}

	profilesPath := cfg.Output.ProfilesPath()
	if err := report.WriteProfilesCSV(profilesPath, result.Records); err != nil {
		return fmt.Errorf("failed to write %s: %w", profilesPath, err)
	}
	logger.LogReportWritten(profilesPath, len(result.Records))

	skippedPath := cfg.Output.SkippedUsersPath()
	if len(result.Skipped) > 0 {
		if err := report.WriteSkipped(skippedPath, result.SkippedLines()); err != nil {
			return fmt.Errorf("failed to write %s: %w", skippedPath, err)
		}
		logger.LogReportWritten(skippedPath, len(result.Skipped))
		ui.PrintWarning(fmt.Sprintf("%d usernames could not be looked up", len(result.Skipped)), skippedPath)
	}

	ui.PrintEnrichSummary(ui.EnrichSummary{
		Total:        len(usernames),
		Skipped:      len(result.Skipped),
		ProfilesPath: profilesPath,
		SkippedPath:  skippedPath,
		Elapsed:      progress.Elapsed(),
	})

	ui.NewNotifier(notifications).Notify("followcheck",
		fmt.Sprintf("Enriched %d of %d profiles", len(usernames)-len(result.Skipped), len(usernames)))
	return nil
}
