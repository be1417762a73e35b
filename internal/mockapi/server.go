// Package mockapi serves a small in-memory imitation of the Instagram
// private API for end-to-end tests.
package mockapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pquerna/otp/totp"
)

// Profile is one account known to the server
type Profile struct {
	PK          int64
	Username    string
	FullName    string
	IsPrivate   bool
	IsVerified  bool
	AccountType int
}

// Server simulates the private API endpoints used by followcheck
type Server struct {
	server *httptest.Server

	mu             sync.RWMutex
	passwords      map[string]string
	profiles       map[string]*Profile
	followers      map[int64][]string
	following      map[int64][]string
	pageSize       int
	twoFactorCode  string
	totpSecret     string
	issued         map[string]bool
	errorResponses map[string]int

	requestCount int32
	logins       int32
	timelines    int32
}

// NewServer starts a mock server. Close it when done.
func NewServer() *Server {
	s := &Server{
		passwords:      make(map[string]string),
		profiles:       make(map[string]*Profile),
		followers:      make(map[int64][]string),
		following:      make(map[int64][]string),
		pageSize:       2,
		issued:         make(map[string]bool),
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/login/", s.handleLogin)
	mux.HandleFunc("/api/v1/accounts/two_factor_login/", s.handleTwoFactorLogin)
	mux.HandleFunc("/api/v1/feed/timeline/", s.handleTimeline)
	mux.HandleFunc("/api/v1/users/", s.handleUserInfo)
	mux.HandleFunc("/api/v1/friendships/", s.handleFriendships)

	s.server = httptest.NewServer(s.count(mux))
	return s
}

// BaseURL is the API root to configure the client with
func (s *Server) BaseURL() string {
	return s.server.URL + "/api/v1"
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// AddAccount registers a profile that can log in with password
func (s *Server) AddAccount(p Profile, password string) {
	s.AddProfile(p)
	s.mu.Lock()
	s.passwords[p.Username] = password
	s.mu.Unlock()
}

// AddProfile registers a profile that can be looked up
func (s *Server) AddProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := p
	s.profiles[p.Username] = &profile
}

// SetRelationships sets who follows username and who username follows
func (s *Server) SetRelationships(username string, followers, following []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := s.profiles[username].PK
	s.followers[pk] = followers
	s.following[pk] = following
}

// SetPageSize sets how many users each friendships page holds
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// RequireTwoFactor makes logins ask for code
func (s *Server) RequireTwoFactor(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twoFactorCode = code
}

// RequireTOTP makes logins ask for an authenticator code generated from secret
func (s *Server) RequireTOTP(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totpSecret = secret
}

// SetErrorResponse makes requests whose path contains pattern fail with code
func (s *Server) SetErrorResponse(pattern string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[pattern] = code
}

// RevokeSessions invalidates every issued authorization
func (s *Server) RevokeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = make(map[string]bool)
}

// RequestCount returns the number of requests served
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

// LoginCount returns the number of password or two-factor logins that succeeded
func (s *Server) LoginCount() int {
	return int(atomic.LoadInt32(&s.logins))
}

// TimelineCount returns the number of timeline probes served
func (s *Server) TimelineCount() int {
	return int(atomic.LoadInt32(&s.timelines))
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.requestCount, 1)
		if code := s.getErrorResponse(r.URL.Path); code > 0 {
			s.sendError(w, code, "", "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getErrorResponse(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for pattern, code := range s.errorResponses {
		if strings.Contains(path, pattern) {
			return code
		}
	}
	return 0
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := signedPayload(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "", "invalid signed_body")
		return
	}

	username := payload["username"]
	password := passwordFromEnvelope(payload["enc_password"])

	s.mu.RLock()
	expected, ok := s.passwords[username]
	twoFactorCode := s.twoFactorCode
	totpSecret := s.totpSecret
	s.mu.RUnlock()

	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid_user", "The username you entered doesn't appear to belong to an account.")
		return
	}
	if password != expected {
		s.sendError(w, http.StatusBadRequest, "bad_password", "The password you entered is incorrect.")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-" + username})
	if twoFactorCode != "" || totpSecret != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":              "fail",
			"message":             "",
			"two_factor_required": true,
			"two_factor_info": map[string]interface{}{
				"two_factor_identifier":   "2fa-" + username,
				"username":                username,
				"totp_two_factor_on":      totpSecret != "",
				"sms_two_factor_on":       totpSecret == "",
				"obfuscated_phone_number": "**12",
			},
		})
		return
	}

	s.completeLogin(w, username)
}

func (s *Server) handleTwoFactorLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := signedPayload(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "", "invalid signed_body")
		return
	}

	username := payload["username"]
	s.mu.RLock()
	code := s.twoFactorCode
	totpSecret := s.totpSecret
	s.mu.RUnlock()

	if payload["two_factor_identifier"] != "2fa-"+username {
		s.sendError(w, http.StatusBadRequest, "", "invalid two_factor_identifier")
		return
	}
	valid := payload["verification_code"] == code
	if totpSecret != "" {
		valid = totp.Validate(payload["verification_code"], totpSecret)
	}
	if !valid {
		s.sendError(w, http.StatusBadRequest, "sms_code_validation_code_invalid", "Please check the security code and try again.")
		return
	}

	s.completeLogin(w, username)
}

func (s *Server) completeLogin(w http.ResponseWriter, username string) {
	s.mu.Lock()
	profile := s.profiles[username]
	token, _ := json.Marshal(map[string]string{
		"ds_user_id": strconv.FormatInt(profile.PK, 10),
		"sessionid":  fmt.Sprintf("%d%%3Asession%d", profile.PK, len(s.issued)+1),
	})
	authorization := "Bearer IGT:2:" + base64.StdEncoding.EncodeToString(token)
	s.issued[authorization] = true
	s.mu.Unlock()

	atomic.AddInt32(&s.logins, 1)
	w.Header().Set("ig-set-authorization", authorization)
	w.Header().Set("ig-set-x-mid", "mid-"+username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"logged_in_user": map[string]interface{}{
			"pk":        profile.PK,
			"username":  profile.Username,
			"full_name": profile.FullName,
		},
	})
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issued[r.Header.Get("Authorization")]
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.sendError(w, http.StatusForbidden, "", "login_required")
		return
	}
	atomic.AddInt32(&s.timelines, 1)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"num_results": 0,
	})
}

// handleUserInfo serves /api/v1/users/{username}/usernameinfo/
func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.sendError(w, http.StatusForbidden, "", "login_required")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/users/"), "/"), "/")
	if len(parts) != 2 || parts[1] != "usernameinfo" {
		s.sendError(w, http.StatusNotFound, "", "unknown endpoint")
		return
	}

	s.mu.RLock()
	profile, ok := s.profiles[parts[0]]
	s.mu.RUnlock()
	if !ok {
		s.sendError(w, http.StatusNotFound, "", "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"user": map[string]interface{}{
			"pk":           profile.PK,
			"username":     profile.Username,
			"full_name":    profile.FullName,
			"is_private":   profile.IsPrivate,
			"is_verified":  profile.IsVerified,
			"account_type": profile.AccountType,
		},
	})
}

// handleFriendships serves /api/v1/friendships/{id}/followers|following/
func (s *Server) handleFriendships(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.sendError(w, http.StatusForbidden, "", "login_required")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/friendships/"), "/"), "/")
	if len(parts) != 2 {
		s.sendError(w, http.StatusNotFound, "", "unknown endpoint")
		return
	}
	pk, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "", "user_not_found")
		return
	}

	s.mu.RLock()
	var list []string
	switch parts[1] {
	case "followers":
		list = s.followers[pk]
	case "following":
		list = s.following[pk]
	}
	pageSize := s.pageSize
	s.mu.RUnlock()

	offset := 0
	if maxID := r.URL.Query().Get("max_id"); maxID != "" {
		offset, _ = strconv.Atoi(maxID)
	}
	if offset > len(list) {
		offset = len(list)
	}
	end := offset + pageSize
	if end > len(list) {
		end = len(list)
	}

	users := make([]map[string]interface{}, 0, end-offset)
	for _, username := range list[offset:end] {
		users = append(users, map[string]interface{}{
			"pk":       s.pkOf(username),
			"username": username,
		})
	}

	response := map[string]interface{}{
		"status":    "ok",
		"users":     users,
		"page_size": pageSize,
		"big_list":  end < len(list),
	}
	if end < len(list) {
		response["next_max_id"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) pkOf(username string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[username]; ok {
		return p.PK
	}
	var pk int64 = 1000
	for _, c := range username {
		pk = pk*31 + int64(c)
	}
	if pk < 0 {
		pk = -pk
	}
	return pk
}

// sendError sends an error response the way the private API does
func (s *Server) sendError(w http.ResponseWriter, code int, errorType, message string) {
	body := map[string]interface{}{
		"status":  "fail",
		"message": message,
	}
	if errorType != "" {
		body["error_type"] = errorType
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func signedPayload(r *http.Request) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	body := strings.TrimPrefix(r.PostForm.Get("signed_body"), "SIGNATURE.")
	var payload map[string]string
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// passwordFromEnvelope unwraps "#PWD_INSTAGRAM:0:<ts>:<password>"
func passwordFromEnvelope(envelope string) string {
	parts := strings.SplitN(envelope, ":", 4)
	if len(parts) != 4 {
		return ""
	}
	return parts[3]
}
