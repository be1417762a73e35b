package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name                 string
		followers            Set
		following            Set
		wantNotFollowingBack []string
		wantNotFollowedBack  []string
	}{
		{
			name:                 "overlapping sets",
			followers:            NewSet("alice", "bob", "carol"),
			following:            NewSet("bob", "carol", "dave"),
			wantNotFollowingBack: []string{"dave"},
			wantNotFollowedBack:  []string{"alice"},
		},
		{
			name:                 "equal sets",
			followers:            NewSet("alice", "bob"),
			following:            NewSet("bob", "alice"),
			wantNotFollowingBack: []string{},
			wantNotFollowedBack:  []string{},
		},
		{
			name:                 "no followers",
			followers:            NewSet(),
			following:            NewSet("zed", "amy"),
			wantNotFollowingBack: []string{"amy", "zed"},
			wantNotFollowedBack:  []string{},
		},
		{
			name:                 "both empty",
			followers:            NewSet(),
			following:            NewSet(),
			wantNotFollowingBack: []string{},
			wantNotFollowedBack:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Diff(tt.followers, tt.following)
			assert.Equal(t, tt.wantNotFollowingBack, result.NotFollowingBack)
			assert.Equal(t, tt.wantNotFollowedBack, result.NotFollowedBack)
		})
	}
}

func TestDiffProperties(t *testing.T) {
	followers := NewSet("alice", "bob", "carol", "erin")
	following := NewSet("bob", "carol", "dave", "frank")

	result := Diff(followers, following)

	// Neither side overlaps the other or its own opposite set
	for _, u := range result.NotFollowingBack {
		assert.True(t, following.Has(u))
		assert.False(t, followers.Has(u))
		assert.NotContains(t, result.NotFollowedBack, u)
	}
	for _, u := range result.NotFollowedBack {
		assert.True(t, followers.Has(u))
		assert.False(t, following.Has(u))
	}

	// Inputs are left untouched and the result is stable
	assert.Equal(t, 4, followers.Len())
	assert.Equal(t, 4, following.Len())
	assert.Equal(t, result, Diff(followers, following))
}

func TestSet(t *testing.T) {
	s := NewSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))

	s.Add("c")
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())
	assert.Equal(t, []string{"a"}, s.Minus(NewSet("b", "c")).Sorted())
}
