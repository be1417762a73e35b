package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"followcheck/pkg/auth"
	apperrors "followcheck/pkg/errors"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acceptedAuthorization = "Bearer IGT:2:accepted"

// fakeClient mimics the login flow of the Instagram client. The server
// accepts only acceptedAuthorization.
type fakeClient struct {
	settings *instagram.Settings

	requireTwoFactor bool
	validCode        string
	loginErr         error

	logins          int
	twoFactorLogins int
	probes          int
	clears          int
}

func newFakeClient() *fakeClient {
	return &fakeClient{settings: instagram.NewSettings()}
}

func (f *fakeClient) authorize(username string) *instagram.LoginResult {
	f.settings.Authorization = acceptedAuthorization
	f.settings.AuthorizationData.DSUserID = "42"
	f.settings.Username = username
	f.settings.LastLogin = time.Now().UTC()
	return &instagram.LoginResult{Success: true, UserID: "42", Username: username}
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*instagram.LoginResult, error) {
	f.logins++
	if f.settings.Authorized() {
		return &instagram.LoginResult{Success: true, Resumed: true, UserID: f.settings.AuthorizationData.DSUserID, Username: username}, nil
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.requireTwoFactor {
		return &instagram.LoginResult{TwoFactorRequired: true, TwoFactorIdentifier: "tf-1", TOTPEnabled: true}, nil
	}
	return f.authorize(username), nil
}

func (f *fakeClient) TwoFactorLogin(ctx context.Context, username, code, identifier string) (*instagram.LoginResult, error) {
	f.twoFactorLogins++
	if identifier != "tf-1" || code != f.validCode {
		return nil, apperrors.New(apperrors.ErrorTypeTwoFactor, 400, "invalid code")
	}
	return f.authorize(username), nil
}

func (f *fakeClient) TimelineFeed(ctx context.Context) error {
	f.probes++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.settings.Authorization != acceptedAuthorization {
		return apperrors.New(apperrors.ErrorTypeAuth, 403, "login_required")
	}
	return nil
}

func (f *fakeClient) Settings() *instagram.Settings {
	s := *f.settings
	return &s
}

func (f *fakeClient) SetSettings(s *instagram.Settings) {
	copied := *s
	f.settings = &copied
}

func (f *fakeClient) ClearAuthorization() {
	f.clears++
	f.settings.ClearAuthorization()
}

func writeSession(t *testing.T, path, authorization, username string) {
	t.Helper()
	s := instagram.NewSettings()
	s.Authorization = authorization
	s.AuthorizationData.DSUserID = "42"
	s.Username = username
	require.NoError(t, instagram.DumpSettingsFile(path, s))
}

func alice() *auth.Account {
	return &auth.Account{Username: "alice", Password: "secret"}
}

func TestAcquireFreshLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	client := newFakeClient()
	m := NewManager(client, path, nil, logger.NewTestLogger())

	assert.Equal(t, StateUnauthenticated, m.State())

	result, err := m.Acquire(context.Background(), alice())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, result.State)
	assert.False(t, result.Resumed)
	assert.False(t, result.TwoFactor)
	assert.Equal(t, "42", result.UserID)
	assert.Equal(t, StateAuthenticated, m.State())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	saved, err := instagram.LoadSettingsFile(path)
	require.NoError(t, err)
	assert.True(t, saved.Authorized())
	assert.Equal(t, "alice", saved.Username)
}

func TestAcquireResumesValidSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, acceptedAuthorization, "alice")

	client := newFakeClient()
	m := NewManager(client, path, nil, logger.NewTestLogger())

	result, err := m.Acquire(context.Background(), &auth.Account{Username: "alice"})
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, 1, client.logins)
	assert.Equal(t, 1, client.probes)
	assert.Equal(t, 0, client.clears)
}

func TestAcquireResumeIgnoresUsernameCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, acceptedAuthorization, "alice")

	client := newFakeClient()
	m := NewManager(client, path, nil, logger.NewTestLogger())

	result, err := m.Acquire(context.Background(), &auth.Account{Username: "Alice", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, result.Resumed, "a session saved as alice belongs to Alice")
	assert.Equal(t, 1, client.logins)
	assert.Equal(t, 0, client.clears)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAcquireKeepsDeviceIDsAfterRejectedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, "Bearer IGT:2:expired", "alice")
	stored, err := instagram.LoadSettingsFile(path)
	require.NoError(t, err)

	client := newFakeClient()
	m := NewManager(client, path, nil, logger.NewTestLogger())

	result, err := m.Acquire(context.Background(), alice())
	require.NoError(t, err)
	assert.False(t, result.Resumed)

	saved, err := instagram.LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, acceptedAuthorization, saved.Authorization)
	assert.Equal(t, stored.UUIDs, saved.UUIDs, "a fresh login reuses the device ids")
}

func TestAcquireDeletesInvalidSessionFile(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{
			name: "corrupt file",
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
			},
		},
		{
			name: "expired session",
			setup: func(t *testing.T, path string) {
				writeSession(t, path, "Bearer IGT:2:expired", "alice")
			},
		},
		{
			name: "other account",
			setup: func(t *testing.T, path string) {
				writeSession(t, path, acceptedAuthorization, "mallory")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			tt.setup(t, path)

			client := newFakeClient()
			log := logger.NewTestLogger()
			m := NewManager(client, path, nil, log)

			result, err := m.Acquire(context.Background(), alice())
			require.NoError(t, err)
			assert.False(t, result.Resumed)
			assert.GreaterOrEqual(t, client.clears, 1)
			assert.True(t, log.HasMessage("stored session rejected, logging in again"))

			// The bad file was replaced by the fresh session
			saved, err := instagram.LoadSettingsFile(path)
			require.NoError(t, err)
			assert.Equal(t, acceptedAuthorization, saved.Authorization)
			assert.Equal(t, "alice", saved.Username)
		})
	}
}

func TestAcquireInvalidSessionAndFailedLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	client := newFakeClient()
	client.loginErr = apperrors.New(apperrors.ErrorTypeAuth, 400, "bad_password")
	m := NewManager(client, path, nil, logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), alice())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeAuth))
	assert.Equal(t, StateUnauthenticated, m.State())

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "invalid session file must be deleted")
}

func TestAcquireTwoFactor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	client := newFakeClient()
	client.requireTwoFactor = true
	client.validCode = "123456"

	var asked Challenge
	codes := CodeProviderFunc(func(ctx context.Context, challenge Challenge) (string, error) {
		asked = challenge
		return "123456", nil
	})
	m := NewManager(client, path, codes, logger.NewTestLogger())

	result, err := m.Acquire(context.Background(), alice())
	require.NoError(t, err)
	assert.True(t, result.TwoFactor)
	assert.Equal(t, StateAuthenticated, result.State)
	assert.Equal(t, "alice", asked.Username)
	assert.True(t, asked.TOTP)
	assert.Equal(t, 1, client.twoFactorLogins)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAcquireTwoFactorRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	client := newFakeClient()
	client.requireTwoFactor = true
	client.validCode = "123456"

	m := NewManager(client, path, StaticCode("000000"), logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), alice())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeTwoFactor))
	assert.Equal(t, 1, client.twoFactorLogins, "a rejected code is not retried")
	assert.Equal(t, StateUnauthenticated, m.State())

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no session is saved after a failed login")
}

func TestAcquireTwoFactorWithoutProvider(t *testing.T) {
	client := newFakeClient()
	client.requireTwoFactor = true
	m := NewManager(client, filepath.Join(t.TempDir(), "session.json"), nil, logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), alice())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeTwoFactor))
	assert.Equal(t, 0, client.twoFactorLogins)
}

func TestAcquireRequiresCredentials(t *testing.T) {
	m := NewManager(newFakeClient(), filepath.Join(t.TempDir(), "session.json"), nil, logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeAuth))

	_, err = m.Acquire(context.Background(), &auth.Account{Username: "alice"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeAuth))
}

func TestAcquireCancelledKeepsSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, acceptedAuthorization, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(newFakeClient(), path, nil, logger.NewTestLogger())
	_, err := m.Acquire(ctx, alice())
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	client := newFakeClient()
	m := NewManager(client, path, nil, logger.NewTestLogger())

	_, err := m.Acquire(context.Background(), alice())
	require.NoError(t, err)

	require.NoError(t, m.Logout())
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.False(t, client.settings.Authorized())

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	assert.NoError(t, m.Logout(), "logging out twice is not an error")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()

	missing := Inspect(filepath.Join(dir, "missing.json"))
	assert.False(t, missing.Exists)
	assert.NoError(t, missing.Err)

	validPath := filepath.Join(dir, "valid.json")
	writeSession(t, validPath, acceptedAuthorization, "alice")
	valid := Inspect(validPath)
	assert.True(t, valid.Exists)
	assert.True(t, valid.Valid)
	assert.Equal(t, "alice", valid.Username)
	assert.Equal(t, "42", valid.UserID)

	corruptPath := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corruptPath, []byte("nope"), 0600))
	corrupt := Inspect(corruptPath)
	assert.True(t, corrupt.Exists)
	assert.False(t, corrupt.Valid)
	assert.Error(t, corrupt.Err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}

func TestTOTPCodeProvider(t *testing.T) {
	const secret = "JBSWY3DPEHPK3PXP"
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &TOTPCodeProvider{Secret: "jbsw y3dp ehpk 3pxp", Now: func() time.Time { return now }}

	code, err := p.Code(context.Background(), Challenge{TOTP: true})
	require.NoError(t, err)

	expected, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.Equal(t, expected, code)
	assert.Len(t, code, 6)

	_, err = p.Code(context.Background(), Challenge{TOTP: false})
	assert.Error(t, err)

	_, err = (&TOTPCodeProvider{}).Code(context.Background(), Challenge{TOTP: true})
	assert.Error(t, err)
}

func TestStaticCode(t *testing.T) {
	code, err := StaticCode("654321").Code(context.Background(), Challenge{})
	require.NoError(t, err)
	assert.Equal(t, "654321", code)

	_, err = StaticCode("  ").Code(context.Background(), Challenge{})
	assert.Error(t, err)
}

func TestFirstOf(t *testing.T) {
	sms := Challenge{Username: "alice", TOTP: false}

	p := FirstOf(&TOTPCodeProvider{Secret: "JBSWY3DPEHPK3PXP"}, StaticCode("111111"))
	code, err := p.Code(context.Background(), sms)
	require.NoError(t, err)
	assert.Equal(t, "111111", code, "falls through to the next provider")

	_, err = FirstOf(StaticCode(""), nil).Code(context.Background(), sms)
	assert.Error(t, err)

	_, err = FirstOf().Code(context.Background(), sms)
	assert.Error(t, err)
}
