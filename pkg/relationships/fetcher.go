// Package relationships fetches the follower and following sets of an account.
package relationships

import (
	"context"
	"fmt"
	"time"

	"followcheck/pkg/compare"
	"followcheck/pkg/instagram"
	"followcheck/pkg/logger"
	"followcheck/pkg/pacing"
)

// Source is the part of the Instagram client the fetcher needs
type Source interface {
	UserID() string
	UserIDFromUsername(ctx context.Context, username string) (string, error)
	UserFollowers(ctx context.Context, userID string) ([]instagram.UserShort, error)
	UserFollowing(ctx context.Context, userID string) ([]instagram.UserShort, error)
}

// Fetcher downloads both relationship lists, pausing after each
type Fetcher struct {
	source Source
	pacer  pacing.Pacer
	logger logger.Logger
}

// NewFetcher creates a fetcher
func NewFetcher(source Source, pacer pacing.Pacer, log logger.Logger) *Fetcher {
	if pacer == nil {
		pacer = &pacing.NoDelay{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		source: source,
		pacer:  pacer,
		logger: log.WithField("component", "relationships"),
	}
}

// Fetch returns the followers and following sets of username. An empty
// username means the logged in account. Nothing partial is returned: if
// either list fails the whole fetch fails.
func (f *Fetcher) Fetch(ctx context.Context, username string) (followers, following compare.Set, err error) {
	userID, err := f.resolve(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	followers, err = f.fetchOne(ctx, "followers", userID, f.source.UserFollowers)
	if err != nil {
		return nil, nil, err
	}

	following, err = f.fetchOne(ctx, "following", userID, f.source.UserFollowing)
	if err != nil {
		return nil, nil, err
	}

	return followers, following, nil
}

func (f *Fetcher) resolve(ctx context.Context, username string) (string, error) {
	if username == "" {
		userID := f.source.UserID()
		if userID == "" {
			return "", fmt.Errorf("no username given and no logged in account")
		}
		return userID, nil
	}

	userID, err := f.source.UserIDFromUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user id for %s: %w", username, err)
	}
	f.logger.DebugWithFields("resolved user id", map[string]interface{}{
		"username": username,
		"user_id":  userID,
	})
	return userID, nil
}

type listFunc func(ctx context.Context, userID string) ([]instagram.UserShort, error)

func (f *Fetcher) fetchOne(ctx context.Context, kind, userID string, list listFunc) (compare.Set, error) {
	start := time.Now()
	users, err := list(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	set := make(compare.Set, len(users))
	for _, u := range users {
		if u.Username != "" {
			set.Add(u.Username)
		}
	}

	f.logger.InfoWithFields("fetched relationship list", map[string]interface{}{
		"kind":     kind,
		"user_id":  userID,
		"count":    set.Len(),
		"duration": time.Since(start),
	})

	if err := f.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	return set, nil
}
