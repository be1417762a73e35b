package relationships

import (
	"context"
	"errors"
	"testing"

	"followcheck/pkg/compare"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
	"followcheck/pkg/pacing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	userID       string
	ids          map[string]string
	followers    []instagram.UserShort
	following    []instagram.UserShort
	followersErr error
	followingErr error
	calls        []string
}

func (f *fakeSource) UserID() string { return f.userID }

func (f *fakeSource) UserIDFromUsername(ctx context.Context, username string) (string, error) {
	f.calls = append(f.calls, "lookup:"+username)
	id, ok := f.ids[username]
	if !ok {
		return "", errors.New("user not found")
	}
	return id, nil
}

func (f *fakeSource) UserFollowers(ctx context.Context, userID string) ([]instagram.UserShort, error) {
	f.calls = append(f.calls, "followers:"+userID)
	return f.followers, f.followersErr
}

func (f *fakeSource) UserFollowing(ctx context.Context, userID string) ([]instagram.UserShort, error) {
	f.calls = append(f.calls, "following:"+userID)
	return f.following, f.followingErr
}

func users(names ...string) []instagram.UserShort {
	out := make([]instagram.UserShort, 0, len(names))
	for _, n := range names {
		out = append(out, instagram.UserShort{Username: n})
	}
	return out
}

func TestFetch(t *testing.T) {
	source := &fakeSource{
		ids:       map[string]string{"me": "42"},
		followers: users("alice", "bob", "carol", "bob"),
		following: users("bob", "carol", "dave", ""),
	}
	pacer := &pacing.NoDelay{}
	f := NewFetcher(source, pacer, logger.NewTestLogger())

	followers, following, err := f.Fetch(context.Background(), "me")
	require.NoError(t, err)

	assert.Equal(t, compare.NewSet("alice", "bob", "carol"), followers)
	assert.Equal(t, compare.NewSet("bob", "carol", "dave"), following)
	assert.Equal(t, []string{"lookup:me", "followers:42", "following:42"}, source.calls)
	assert.Equal(t, 2, pacer.Waits(), "one pause after each list")
}

func TestFetchLoggedInAccount(t *testing.T) {
	source := &fakeSource{userID: "7", followers: users("a"), following: users("b")}
	f := NewFetcher(source, nil, logger.NewTestLogger())

	followers, following, err := f.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, followers.Has("a"))
	assert.True(t, following.Has("b"))
	assert.Equal(t, []string{"followers:7", "following:7"}, source.calls)

	_, _, err = NewFetcher(&fakeSource{}, nil, logger.NewTestLogger()).Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		source    *fakeSource
		username  string
		wantCalls []string
	}{
		{
			name:      "unknown user",
			source:    &fakeSource{ids: map[string]string{}},
			username:  "ghost",
			wantCalls: []string{"lookup:ghost"},
		},
		{
			name:      "followers fail",
			source:    &fakeSource{ids: map[string]string{"me": "1"}, followersErr: boom},
			username:  "me",
			wantCalls: []string{"lookup:me", "followers:1"},
		},
		{
			name:      "following fail",
			source:    &fakeSource{ids: map[string]string{"me": "1"}, followingErr: boom},
			username:  "me",
			wantCalls: []string{"lookup:me", "followers:1", "following:1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.source, &pacing.NoDelay{}, logger.NewTestLogger())

			followers, following, err := f.Fetch(context.Background(), tt.username)
			assert.Error(t, err)
			assert.Nil(t, followers)
			assert.Nil(t, following)
			assert.Equal(t, tt.wantCalls, tt.source.calls)
		})
	}
}

func TestFetchCancelledDuringPause(t *testing.T) {
	source := &fakeSource{ids: map[string]string{"me": "1"}, followers: users("a")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(source, pacing.NewFixedDelay(0), logger.NewTestLogger())
	_, _, err := f.Fetch(ctx, "me")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"lookup:me", "followers:1"}, source.calls)
}
