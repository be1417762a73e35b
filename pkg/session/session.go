package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"followcheck/pkg/auth"
	apperrors "followcheck/pkg/errors"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
)

// State is the authentication state of a Manager
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Client is the part of the Instagram client a session needs
type Client interface {
	Login(ctx context.Context, username, password string) (*instagram.LoginResult, error)
	TwoFactorLogin(ctx context.Context, username, code, identifier string) (*instagram.LoginResult, error)
	TimelineFeed(ctx context.Context) error
	Settings() *instagram.Settings
	SetSettings(s *instagram.Settings)
	ClearAuthorization()
}

// Result describes how a session was obtained
type Result struct {
	State     State
	Resumed   bool
	TwoFactor bool
	UserID    string
	Username  string
}

// Status describes the persisted session file
type Status struct {
	Path      string
	Exists    bool
	Valid     bool
	Username  string
	UserID    string
	LastLogin time.Time
	Err       error
}

// Manager obtains an authenticated client, reusing the persisted session
// when the server still accepts it
type Manager struct {
	client Client
	path   string
	codes  CodeProvider
	logger logger.Logger

	mu    sync.Mutex
	state State
}

// NewManager creates a session manager persisting to path
func NewManager(client Client, path string, codes CodeProvider, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		client: client,
		path:   path,
		codes:  codes,
		logger: log.WithField("component", "session"),
		state:  StateUnauthenticated,
	}
}

// State returns the current authentication state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Acquire authenticates the client. A persisted session is tried first and
// verified with a timeline fetch; if anything about it fails the file is
// deleted and a fresh login is performed. Only a fresh login can ask for a
// two-factor code.
func (m *Manager) Acquire(ctx context.Context, account *auth.Account) (*Result, error) {
	if account == nil || account.Username == "" {
		return nil, apperrors.New(apperrors.ErrorTypeAuth, 0, "username is required")
	}

	if result, err := m.resume(ctx, account); err == nil {
		m.setState(StateAuthenticated)
		return result, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		m.logger.WithError(err).WarnWithFields("stored session rejected, logging in again", map[string]interface{}{
			"path": m.path,
		})
		m.discard()
	}

	result, err := m.freshLogin(ctx, account)
	if err != nil {
		m.setState(StateUnauthenticated)
		return nil, err
	}
	m.setState(StateAuthenticated)
	return result, nil
}

// resume loads the session file and probes it. os.ErrNotExist means there
// was nothing to resume.
func (m *Manager) resume(ctx context.Context, account *auth.Account) (*Result, error) {
	settings, err := instagram.LoadSettingsFile(m.path)
	if err != nil {
		return nil, err
	}
	if settings.Username != "" && !strings.EqualFold(settings.Username, account.Username) {
		return nil, fmt.Errorf("session belongs to %s", settings.Username)
	}

	m.client.SetSettings(settings)

	loginResult, err := m.client.Login(ctx, account.Username, account.Password)
	if err != nil {
		return nil, err
	}
	if loginResult.TwoFactorRequired {
		return nil, apperrors.New(apperrors.ErrorTypeTwoFactor, 0, "stored session requires a new two-factor login")
	}
	if err := m.client.TimelineFeed(ctx); err != nil {
		return nil, fmt.Errorf("session probe failed: %w", err)
	}

	// A password login with stored device ids refreshes the session
	if !loginResult.Resumed {
		m.save()
	}

	m.logger.InfoWithFields("resumed stored session", map[string]interface{}{
		"username": account.Username,
		"user_id":  loginResult.UserID,
	})
	return &Result{
		State:    StateAuthenticated,
		Resumed:  true,
		UserID:   loginResult.UserID,
		Username: account.Username,
	}, nil
}

func (m *Manager) freshLogin(ctx context.Context, account *auth.Account) (*Result, error) {
	if account.Password == "" {
		return nil, apperrors.New(apperrors.ErrorTypeAuth, 0, "password is required for %s", account.Username)
	}

	m.client.ClearAuthorization()

	loginResult, err := m.client.Login(ctx, account.Username, account.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	twoFactor := false
	if loginResult.TwoFactorRequired {
		twoFactor = true
		loginResult, err = m.completeTwoFactor(ctx, account, loginResult)
		if err != nil {
			return nil, err
		}
	}

	m.save()

	return &Result{
		State:     StateAuthenticated,
		TwoFactor: twoFactor,
		UserID:    loginResult.UserID,
		Username:  account.Username,
	}, nil
}

func (m *Manager) completeTwoFactor(ctx context.Context, account *auth.Account, challenge *instagram.LoginResult) (*instagram.LoginResult, error) {
	if m.codes == nil {
		return nil, apperrors.New(apperrors.ErrorTypeTwoFactor, 0, "two-factor code required but no code source is configured")
	}

	code, err := m.codes.Code(ctx, Challenge{
		Username:        account.Username,
		TOTP:            challenge.TOTPEnabled,
		ObfuscatedPhone: challenge.ObfuscatedPhone,
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeTwoFactor, 0, "failed to obtain two-factor code: %v", err)
	}

	result, err := m.client.TwoFactorLogin(ctx, account.Username, code, challenge.TwoFactorIdentifier)
	if err != nil {
		return nil, fmt.Errorf("two-factor login failed: %w", err)
	}
	return result, nil
}

// save persists the client settings. A failed write only costs the next
// run a fresh login, so it is logged rather than returned.
func (m *Manager) save() {
	if err := instagram.DumpSettingsFile(m.path, m.client.Settings()); err != nil {
		m.logger.WithError(err).ErrorWithFields("failed to save session", map[string]interface{}{
			"path": m.path,
		})
		return
	}
	m.logger.DebugWithFields("session saved", map[string]interface{}{
		"path": m.path,
	})
}

// discard deletes the session file and drops the rejected authorization.
// Device ids survive so the next login comes from the same device.
func (m *Manager) discard() {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.WithError(err).WarnWithFields("failed to delete session file", map[string]interface{}{
			"path": m.path,
		})
	}
	m.client.ClearAuthorization()
}

// Logout forgets the persisted session
func (m *Manager) Logout() error {
	m.client.ClearAuthorization()
	m.setState(StateUnauthenticated)
	if err := os.Remove(m.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	m.logger.InfoWithFields("session removed", map[string]interface{}{
		"path": m.path,
	})
	return nil
}

// Inspect reports on the session file without contacting the server
func Inspect(path string) Status {
	status := Status{Path: path}

	settings, err := instagram.LoadSettingsFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return status
		}
		status.Exists = true
		status.Err = err
		return status
	}

	status.Exists = true
	status.Valid = settings.Authorized()
	status.Username = settings.Username
	status.UserID = settings.AuthorizationData.DSUserID
	status.LastLogin = settings.LastLogin
	if !status.Valid {
		status.Err = errors.New("session file carries no authorization")
	}
	return status
}
