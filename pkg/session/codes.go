package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// Challenge describes a pending two-factor login
type Challenge struct {
	Username        string
	TOTP            bool
	ObfuscatedPhone string
}

// CodeProvider supplies the verification code for a two-factor challenge
type CodeProvider interface {
	Code(ctx context.Context, challenge Challenge) (string, error)
}

// CodeProviderFunc adapts a function to CodeProvider
type CodeProviderFunc func(ctx context.Context, challenge Challenge) (string, error)

// Code calls f
func (f CodeProviderFunc) Code(ctx context.Context, challenge Challenge) (string, error) {
	return f(ctx, challenge)
}

// StaticCode always returns the same code
type StaticCode string

// Code returns the static code
func (s StaticCode) Code(ctx context.Context, challenge Challenge) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("empty verification code")
	}
	return string(s), nil
}

// TOTPCodeProvider generates codes from an authenticator app secret
type TOTPCodeProvider struct {
	Secret string
	Now    func() time.Time
}

// Code generates the current TOTP code. It declines challenges that were
// not issued for an authenticator app.
func (p *TOTPCodeProvider) Code(ctx context.Context, challenge Challenge) (string, error) {
	if p.Secret == "" {
		return "", errors.New("no TOTP secret configured")
	}
	if !challenge.TOTP {
		return "", errors.New("account did not request an authenticator code")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	secret := strings.ToUpper(strings.ReplaceAll(p.Secret, " ", ""))
	return totp.GenerateCode(secret, now())
}

// FirstOf tries each provider in order and returns the first code obtained
func FirstOf(providers ...CodeProvider) CodeProvider {
	return CodeProviderFunc(func(ctx context.Context, challenge Challenge) (string, error) {
		var errs []error
		for _, p := range providers {
			if p == nil {
				continue
			}
			code, err := p.Code(ctx, challenge)
			if err == nil {
				return code, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return "", errors.New("no code provider available")
		}
		return "", errors.Join(errs...)
	})
}
