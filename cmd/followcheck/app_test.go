package main

import (
	"testing"
	"time"

	"followcheck/pkg/auth"
	"followcheck/pkg/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLineFlagsOnlyChangedDelays(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFetchFlags(cmd)
	addLookupFlags(cmd)

	flags := commandLineFlags(cmd)
	_, hasFetch := flags["fetch-delay"]
	_, hasLookup := flags["lookup-delay"]
	assert.False(t, hasFetch)
	assert.False(t, hasLookup)

	require.NoError(t, cmd.Flags().Set("fetch-delay", "10s"))
	flags = commandLineFlags(cmd)
	assert.Equal(t, 10*time.Second, flags["fetch-delay"])

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 10*time.Second, cfg.Delays.AfterFetch)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delays.AfterLookup)
}

func TestResolveAccountFromConfig(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvPassword, "")

	cfg := config.DefaultConfig()
	cfg.Instagram.Username = "alice"
	cfg.Instagram.Password = "hunter2"
	cfg.Instagram.TOTPSecret = "JBSWY3DPEHPK3PXP"

	account, err := resolveAccount(cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "hunter2", account.Password)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", account.TOTPSecret)
}

func TestResolveAccountSwitchedUsername(t *testing.T) {
	isolateCredentials(t)
	t.Setenv(config.EnvUsername, "alice")
	t.Setenv(config.EnvPassword, "hunter2")
	t.Setenv(config.EnvTOTPSecret, "JBSWY3DPEHPK3PXP")

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	cfg.MergeCommandLineFlags(map[string]interface{}{"username": "bob"})

	_, err := resolveAccount(cfg)
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound, "alice's password is not used for bob")

	manager, err := auth.NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.Store(&auth.Account{Username: "bob", Password: "bobs-password"}))

	account, err := resolveAccount(cfg)
	require.NoError(t, err)
	assert.Equal(t, "bob", account.Username)
	assert.Equal(t, "bobs-password", account.Password)
	assert.Empty(t, account.TOTPSecret, "alice's authenticator secret is not used for bob")
}

func TestResolveAccountUsernameCase(t *testing.T) {
	t.Setenv(config.EnvUsername, "alice")
	t.Setenv(config.EnvPassword, "hunter2")

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	cfg.MergeCommandLineFlags(map[string]interface{}{"username": "Alice"})

	account, err := resolveAccount(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Alice", account.Username)
	assert.Equal(t, "hunter2", account.Password)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"compare", "enrich", "auth", "config"} {
		assert.True(t, names[name], "missing command %s", name)
	}
}
