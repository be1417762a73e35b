package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Banner printed at the start of interactive commands
const Banner = `
  ┌─┐┌─┐┬  ┬  ┌─┐┬ ┬┌─┐┬ ┬┌─┐┌─┐┬┌─
  ├┤ │ ││  │  │ ││││└─┐├─┤├┤ │  ├┴┐
  └  └─┘┴─┘┴─┘└─┘└┴┘└─┘┴ ┴└─┘└─┘┴ ┴
`

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

var (
	mu        sync.Mutex
	out       io.Writer = os.Stdout
	quietMode bool
	noColor   bool
)

// SetOutput redirects everything the package prints
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// SetColor toggles styled output
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = !enabled
}

func render(style lipgloss.Style, text string) string {
	mu.Lock()
	plain := noColor
	mu.Unlock()
	if plain {
		return text
	}
	return style.Render(text)
}

// Color functions for terminal output
func Cyan(text string) string    { return render(cyanStyle, text) }
func Yellow(text string) string  { return render(yellowStyle, text) }
func Red(text string) string     { return render(redStyle, text) }
func Green(text string) string   { return render(greenStyle, text) }
func Magenta(text string) string { return render(magentaStyle, text) }
func Dim(text string) string     { return render(dimStyle, text) }

func emit(always bool, text string) {
	mu.Lock()
	defer mu.Unlock()
	if quietMode && !always {
		return
	}
	fmt.Fprintln(out, text)
}

// Printf writes unstyled text unless quiet mode is on
func Printf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quietMode {
		return
	}
	fmt.Fprintf(out, format, args...)
}

// PrintLogo prints the banner
func PrintLogo() {
	emit(false, Cyan(Banner))
}

// PrintError prints an error message in red. It is shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	emit(true, Red(withDetail(msg, args)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	emit(false, Yellow(withDetail(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(false, Magenta(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	detail := fmt.Sprintf("%v", args[0])
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}
