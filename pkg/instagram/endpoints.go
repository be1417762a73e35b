package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL of the Instagram private API
	BaseURL = "https://i.instagram.com/api/v1"

	// AppID identifies the Android app to the API
	AppID = "567067343352427"

	// Capabilities is the X-IG-Capabilities header sent by the Android app
	Capabilities = "3brTvw=="

	// DefaultPageSize is the number of users requested per friendships page
	DefaultPageSize = 200

	// MaxPageSize is the largest page the API accepts
	MaxPageSize = 200

	loginEndpoint          = "accounts/login/"
	twoFactorLoginEndpoint = "accounts/two_factor_login/"
	timelineEndpoint       = "feed/timeline/"
)

// usernameInfoPath returns the lookup path for a username
func usernameInfoPath(username string) string {
	return fmt.Sprintf("users/%s/usernameinfo/", url.PathEscape(username))
}

// FollowersPath returns the followers listing path for a user id
func FollowersPath(userID string) string {
	return fmt.Sprintf("friendships/%s/followers/", url.PathEscape(userID))
}

// FollowingPath returns the following listing path for a user id
func FollowingPath(userID string) string {
	return fmt.Sprintf("friendships/%s/following/", url.PathEscape(userID))
}

// friendshipsQuery builds the pagination query for a friendships page
func friendshipsQuery(maxID string, pageSize int) url.Values {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", pageSize))
	params.Set("search_surface", "follow_list_page")
	if maxID != "" {
		params.Set("max_id", maxID)
	}
	return params
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("https://www.instagram.com/%s/", username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips surrounding whitespace, a leading @ and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	return username
}
