package main

import (
	"fmt"
	"time"

	"followcheck/pkg/compare"
	"followcheck/pkg/logger"
	"followcheck/pkg/pacing"
	"followcheck/pkg/relationships"
	"followcheck/pkg/report"
	"followcheck/pkg/ui"

	"github.com/spf13/cobra"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare [username]",
	Short: "Compare followers and following and write the reports",
	Long: `Log in, fetch the followers and following lists and write:

  not_following_back.txt   accounts followed that do not follow back
  fans.txt                 followers that are not followed back

Both files hold one username per line in sorted order. Without a username
argument the logged-in account is compared.`,
	Example: `  # Compare your own account
  followcheck compare

  # Log in as one account, compare another
  followcheck compare --username me someone_else

  # Be gentler with the API
  followcheck compare --fetch-delay 10s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addFetchFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	account, err := resolveAccount(cfg)
	if err != nil {
		return err
	}

	client, login, err := openSession(ctx, cfg, account)
	if err != nil {
		return err
	}

	target := account.Username
	if len(args) > 0 {
		target = args[0]
	}

	logger.LogComponentStart("compare", map[string]interface{}{
		"target":      target,
		"fetch_delay": cfg.Delays.AfterFetch.String(),
	})
	ui.PrintHighlight("[FETCHING FOLLOWERS AND FOLLOWING]")

	fetchUser := ""
	if len(args) > 0 {
		fetchUser = target
	}
	fetcher := relationships.NewFetcher(client, pacing.NewFixedDelay(cfg.Delays.AfterFetch), logger.GetLogger())
	followers, following, err := fetcher.Fetch(ctx, fetchUser)
	if err != nil {
		return err
	}

	result := compare.Diff(followers, following)
	logger.LogComparison(target, followers.Len(), following.Len(), len(result.NotFollowingBack), len(result.NotFollowedBack))

	notFollowingBackPath := cfg.Output.NotFollowingBackPath()
	if err := report.WriteLines(notFollowingBackPath, result.NotFollowingBack); err != nil {
		return fmt.Errorf("failed to write %s: %w", notFollowingBackPath, err)
	}
	logger.LogReportWritten(notFollowingBackPath, len(result.NotFollowingBack))

	fansPath := cfg.Output.FansPath()
	if err := report.WriteLines(fansPath, result.NotFollowedBack); err != nil {
		return fmt.Errorf("failed to write %s: %w", fansPath, err)
	}
	logger.LogReportWritten(fansPath, len(result.NotFollowedBack))

	ui.PrintSummary(ui.Summary{
		Username:             target,
		Resumed:              login.Resumed,
		Followers:            followers.Len(),
		Following:            following.Len(),
		NotFollowingBack:     len(result.NotFollowingBack),
		Fans:                 len(result.NotFollowedBack),
		NotFollowingBackPath: notFollowingBackPath,
		FansPath:             fansPath,
		Elapsed:              time.Since(start),
	})

	ui.NewNotifier(notifications).Notify("followcheck",
		fmt.Sprintf("%d accounts do not follow %s back", len(result.NotFollowingBack), target))
	return nil
}
