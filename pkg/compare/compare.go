// Package compare computes the two one-way differences between an account's
// followers and the accounts it follows.
package compare

import "sort"

// Set is a set of usernames
type Set map[string]struct{}

// NewSet builds a set from usernames, dropping duplicates
func NewSet(usernames ...string) Set {
	s := make(Set, len(usernames))
	for _, u := range usernames {
		s.Add(u)
	}
	return s
}

// Add inserts a username
func (s Set) Add(username string) {
	s[username] = struct{}{}
}

// Has reports whether username is in the set
func (s Set) Has(username string) bool {
	_, ok := s[username]
	return ok
}

// Len returns the number of usernames
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the usernames in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Minus returns the usernames in s that are not in other
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for u := range s {
		if !other.Has(u) {
			out.Add(u)
		}
	}
	return out
}

// Result holds both differences, each sorted ascending
type Result struct {
	// NotFollowingBack are accounts followed by the user that do not follow back
	NotFollowingBack []string
	// NotFollowedBack are followers the user does not follow back
	NotFollowedBack []string
}

// Diff computes following minus followers and followers minus following.
// The inputs are not modified.
func Diff(followers, following Set) Result {
	return Result{
		NotFollowingBack: following.Minus(followers).Sorted(),
		NotFollowedBack:  followers.Minus(following).Sorted(),
	}
}
