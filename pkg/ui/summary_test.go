package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderSummary(t *testing.T) {
	captureOutput(t)

	text := RenderSummary(Summary{
		Username:             "alice",
		Resumed:              true,
		Followers:            2,
		Following:            3,
		NotFollowingBack:     2,
		Fans:                 1,
		NotFollowingBackPath: "outputs/not_following_back.txt",
		FansPath:             "outputs/fans.txt",
		Elapsed:              3 * time.Second,
	})

	assert.Contains(t, text, "Comparison complete")
	assert.Contains(t, text, "alice")
	assert.Contains(t, text, "resumed")
	assert.Contains(t, text, "Not following back  2")
	assert.Contains(t, text, "outputs/fans.txt")
	assert.Contains(t, text, "3s")
}

func TestRenderEnrichSummary(t *testing.T) {
	captureOutput(t)

	text := RenderEnrichSummary(EnrichSummary{
		Total:        2,
		Skipped:      1,
		ProfilesPath: "outputs/profiles.csv",
		SkippedPath:  "outputs/skipped_users.txt",
	})
	assert.Contains(t, text, "Enriched            1")
	assert.Contains(t, text, "outputs/skipped_users.txt")

	text = RenderEnrichSummary(EnrichSummary{Total: 2, SkippedPath: "outputs/skipped_users.txt"})
	assert.NotContains(t, text, "skipped_users.txt")
}

func TestPrintSummary(t *testing.T) {
	buf := captureOutput(t)

	PrintSummary(Summary{Username: "alice"})
	assert.Contains(t, buf.String(), "fresh login")
}
