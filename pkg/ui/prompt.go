package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"followcheck/pkg/session"

	"golang.org/x/term"
)

// Prompter reads answers from a terminal or any reader
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	stdin *os.File
}

// NewPrompter reads from stdin and writes questions to stderr so reports
// piped from stdout stay clean
func NewPrompter() *Prompter {
	return &Prompter{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stderr,
		stdin: os.Stdin,
	}
}

// NewPrompterWithIO creates a prompter over explicit streams. Hidden input is
// read like any other line.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Line asks a question and returns the trimmed answer
func (p *Prompter) Line(question string) (string, error) {
	fmt.Fprint(p.out, question)
	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.Line(question + " (y/N): ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Password reads a value without echoing it when attached to a terminal
func (p *Prompter) Password(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if p.stdin != nil && term.IsTerminal(int(p.stdin.Fd())) {
		password, err := term.ReadPassword(int(p.stdin.Fd()))
		fmt.Fprintln(p.out)
		if err == nil {
			return string(password), nil
		}
	}

	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Code asks for a two-factor code. The code is short-lived, so it is echoed.
func (p *Prompter) Code(ctx context.Context, challenge session.Challenge) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	method := "SMS"
	if challenge.TOTP {
		method = "authenticator app"
	}
	fmt.Fprintf(p.out, "\nTwo-factor authentication required for %s (%s", challenge.Username, method)
	if challenge.ObfuscatedPhone != "" {
		fmt.Fprintf(p.out, ", sent to %s", challenge.ObfuscatedPhone)
	}
	fmt.Fprintln(p.out, ")")

	code, err := p.Line("Enter 2FA code: ")
	if err != nil {
		return "", fmt.Errorf("failed to read 2FA code: %w", err)
	}
	if code == "" {
		return "", errors.New("no 2FA code entered")
	}
	return code, nil
}
