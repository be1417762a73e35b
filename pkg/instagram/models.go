package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an Instagram primary key. The API sends it as a number in some
// responses and as a string in others.
type ID string

// UnmarshalJSON accepts both numeric and string encodings
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// apiStatus holds the fields every private API response may carry
type apiStatus struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	ErrorType         string `json:"error_type"`
	Spam              bool   `json:"spam"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	TwoFactorInfo     *struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
		Username            string `json:"username"`
		TOTPTwoFactorOn     bool   `json:"totp_two_factor_on"`
		SMSTwoFactorOn      bool   `json:"sms_two_factor_on"`
		ObfuscatedPhone     string `json:"obfuscated_phone_number"`
	} `json:"two_factor_info"`
	ChallengeURL string `json:"checkpoint_url"`
}

// LoginResult is the typed outcome of a login attempt. A two-factor
// challenge is reported here rather than as an error.
type LoginResult struct {
	Success             bool
	Resumed             bool
	UserID              string
	Username            string
	TwoFactorRequired   bool
	TwoFactorIdentifier string
	TOTPEnabled         bool
	ObfuscatedPhone     string
}

// loginResponse is the body of accounts/login/ and accounts/two_factor_login/
type loginResponse struct {
	apiStatus
	LoggedInUser *UserShort `json:"logged_in_user"`
}

// UserShort is the compact user object found in follower lists
type UserShort struct {
	PK         ID     `json:"pk"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	IsVerified bool   `json:"is_verified"`
}

// User is the full profile returned by usernameinfo
type User struct {
	PK             ID     `json:"pk"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	IsPrivate      bool   `json:"is_private"`
	IsVerified     bool   `json:"is_verified"`
	IsBusiness     bool   `json:"is_business"`
	AccountType    *int   `json:"account_type"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	MediaCount     int    `json:"media_count"`
	Biography      string `json:"biography"`
}

// userInfoResponse is the body of users/{username}/usernameinfo/
type userInfoResponse struct {
	apiStatus
	User *User `json:"user"`
}

// friendshipsResponse is one page of friendships/{id}/followers|following/
type friendshipsResponse struct {
	apiStatus
	Users     []UserShort `json:"users"`
	NextMaxID string      `json:"next_max_id"`
	BigList   bool        `json:"big_list"`
	PageSize  int         `json:"page_size"`
}

// timelineResponse is the body of feed/timeline/
type timelineResponse struct {
	apiStatus
	NumResults    int  `json:"num_results"`
	MoreAvailable bool `json:"more_available"`
}

// Account types reported by the API
const (
	AccountTypePersonal = 1
	AccountTypeBusiness = 2
	AccountTypeCreator  = 3
)

// AccountTypeName returns a label for an account type code
func AccountTypeName(accountType int) string {
	switch accountType {
	case AccountTypePersonal:
		return "personal"
	case AccountTypeBusiness:
		return "business"
	case AccountTypeCreator:
		return "creator"
	default:
		return "unknown"
	}
}
