package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Width(20).Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

// Summary describes a finished comparison run
type Summary struct {
	Username             string
	Resumed              bool
	Followers            int
	Following            int
	NotFollowingBack     int
	Fans                 int
	NotFollowingBackPath string
	FansPath             string
	Elapsed              time.Duration
}

// EnrichSummary describes a finished enrichment run
type EnrichSummary struct {
	Total        int
	Skipped      int
	ProfilesPath string
	SkippedPath  string
	Elapsed      time.Duration
}

type row struct {
	label string
	value string
}

func renderBox(title string, rows []row) string {
	mu.Lock()
	plain := noColor
	mu.Unlock()

	if plain {
		var b strings.Builder
		b.WriteString(title)
		for _, r := range rows {
			fmt.Fprintf(&b, "\n  %-20s%s", r.label, r.value)
		}
		return b.String()
	}

	lines := []string{titleStyle.Render(title), ""}
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), valueStyle.Render(r.value)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderSummary formats a comparison summary
func RenderSummary(s Summary) string {
	session := "fresh login"
	if s.Resumed {
		session = "resumed"
	}

	rows := []row{
		{"Account", s.Username},
		{"Session", session},
		{"Followers", fmt.Sprint(s.Followers)},
		{"Following", fmt.Sprint(s.Following)},
		{"Not following back", fmt.Sprint(s.NotFollowingBack)},
		{"Fans", fmt.Sprint(s.Fans)},
	}
	if s.NotFollowingBackPath != "" {
		rows = append(rows, row{"Report", s.NotFollowingBackPath})
	}
	if s.FansPath != "" {
		rows = append(rows, row{"Report", s.FansPath})
	}
	if s.Elapsed > 0 {
		rows = append(rows, row{"Elapsed", s.Elapsed.Round(time.Second).String()})
	}
	return renderBox("Comparison complete", rows)
}

// PrintSummary prints a comparison summary
func PrintSummary(s Summary) {
	emit(false, RenderSummary(s))
}

// RenderEnrichSummary formats an enrichment summary
func RenderEnrichSummary(s EnrichSummary) string {
	rows := []row{
		{"Usernames", fmt.Sprint(s.Total)},
		{"Enriched", fmt.Sprint(s.Total - s.Skipped)},
		{"Skipped", fmt.Sprint(s.Skipped)},
	}
	if s.ProfilesPath != "" {
		rows = append(rows, row{"Profiles", s.ProfilesPath})
	}
	if s.Skipped > 0 && s.SkippedPath != "" {
		rows = append(rows, row{"Skipped users", s.SkippedPath})
	}
	if s.Elapsed > 0 {
		rows = append(rows, row{"Elapsed", s.Elapsed.Round(time.Second).String()})
	}
	return renderBox("Enrichment complete", rows)
}

// PrintEnrichSummary prints an enrichment summary
func PrintEnrichSummary(s EnrichSummary) {
	emit(false, RenderEnrichSummary(s))
}
