package mockapi

import (
	"context"
	"testing"
	"time"

	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(s *Server) *instagram.Client {
	client := instagram.NewClient(5*time.Second, logger.NewNopLogger())
	client.SetBaseURL(s.BaseURL())
	return client
}

func TestServerLoginAndPagination(t *testing.T) {
	s := NewServer()
	defer s.Close()

	s.AddAccount(Profile{PK: 7, Username: "alice"}, "pw")
	s.SetRelationships("alice", []string{"a", "b", "c", "d", "e"}, nil)

	client := newClient(s)
	ctx := context.Background()

	result, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "7", result.UserID)
	assert.True(t, client.Settings().Authorized())

	followers, err := client.UserFollowers(ctx, "7")
	require.NoError(t, err)
	assert.Len(t, followers, 5)

	following, err := client.UserFollowing(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestServerRejectsUnauthorized(t *testing.T) {
	s := NewServer()
	defer s.Close()

	client := newClient(s)
	assert.Error(t, client.TimelineFeed(context.Background()))
	assert.Equal(t, 0, s.TimelineCount())
}

func TestServerTwoFactor(t *testing.T) {
	s := NewServer()
	defer s.Close()

	s.AddAccount(Profile{PK: 7, Username: "alice"}, "pw")
	s.RequireTwoFactor("123456")

	client := newClient(s)
	ctx := context.Background()

	result, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, result.TwoFactorRequired)
	assert.Equal(t, "**12", result.ObfuscatedPhone)

	_, err = client.TwoFactorLogin(ctx, "alice", "000000", result.TwoFactorIdentifier)
	assert.Error(t, err)

	_, err = client.TwoFactorLogin(ctx, "alice", "123 456", result.TwoFactorIdentifier)
	require.NoError(t, err)
	assert.Equal(t, 1, s.LoginCount())
}

func TestPasswordFromEnvelope(t *testing.T) {
	assert.Equal(t, "p:w", passwordFromEnvelope("#PWD_INSTAGRAM:0:1700000000:p:w"))
	assert.Equal(t, "", passwordFromEnvelope("plain"))
}
