package instagram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"followcheck/pkg/config"
	"followcheck/pkg/errors"
	"followcheck/pkg/logger"
)

// Client represents an Instagram private API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger

	mu       sync.RWMutex
	settings *Settings
}

// NewClient creates a new Instagram API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":           config.DefaultConfig().Instagram.UserAgent,
			"Accept-Language":      "en-US",
			"X-IG-App-ID":          AppID,
			"X-IG-Capabilities":    Capabilities,
			"X-IG-Connection-Type": "WIFI",
			"X-FB-HTTP-Engine":     "Liger",
		},
		baseURL:  BaseURL,
		logger:   log,
		settings: NewSettings(),
	}
	return c
}

// NewClientFromConfig creates a client using the timeout, base URL and user agent from cfg
func NewClientFromConfig(cfg *config.InstagramConfig, log logger.Logger) *Client {
	c := NewClient(cfg.Timeout, log)
	if cfg.BaseURL != "" {
		c.SetBaseURL(cfg.BaseURL)
	}
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBaseURL points the client at a different API root
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Settings returns a copy of the current client state
func (c *Client) Settings() *Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := *c.settings
	return &s
}

// SetSettings replaces the client state, typically with one loaded from disk
func (c *Client) SetSettings(s *Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *s
	if copied.UserAgent != "" {
		c.headers["User-Agent"] = copied.UserAgent
	}
	c.settings = &copied
}

// ClearAuthorization drops the session but keeps the device identity
func (c *Client) ClearAuthorization() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.ClearAuthorization()
}

// UserID returns the id of the logged in account, or "" before login
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.AuthorizationData.DSUserID
}

// doRequest performs an HTTP request with the configured headers and the
// device and session headers taken from the settings
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.mu.RLock()
	s := c.settings
	req.Header.Set("X-IG-Device-ID", s.UUIDs.UUID)
	req.Header.Set("X-IG-Android-ID", s.UUIDs.AndroidDeviceID)
	if s.Mid != "" {
		req.Header.Set("X-MID", s.Mid)
	}
	if s.Authorization != "" {
		req.Header.Set("Authorization", s.Authorization)
	}
	if s.AuthorizationData.DSUserID != "" {
		req.Header.Set("IG-U-DS-USER-ID", s.AuthorizationData.DSUserID)
	}
	c.mu.RUnlock()

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	c.captureSession(resp)
	return resp, nil
}

// captureSession stores the session material the API hands out in ig-set-*
// response headers and cookies
func (c *Client) captureSession(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" || cookie.Value == `""` {
			continue
		}
		switch cookie.Name {
		case "sessionid":
			c.settings.AuthorizationData.SessionID = cookie.Value
		case "ds_user_id":
			c.settings.AuthorizationData.DSUserID = cookie.Value
		case "mid":
			c.settings.Mid = cookie.Value
		case "csrftoken":
			c.settings.CSRFToken = cookie.Value
		}
	}

	h := resp.Header
	if v := h.Get("ig-set-authorization"); v != "" && !strings.HasSuffix(v, ":") {
		c.settings.Authorization = v
		if sessionID := sessionIDFromAuthorization(v); sessionID != "" {
			c.settings.AuthorizationData.SessionID = sessionID
		}
	}
	if v := h.Get("ig-set-ig-u-ds-user-id"); v != "" {
		c.settings.AuthorizationData.DSUserID = v
	}
	if v := h.Get("ig-set-x-mid"); v != "" {
		c.settings.Mid = v
	}
}

// sessionIDFromAuthorization extracts the sessionid from a "Bearer IGT:2:<base64 json>" header
func sessionIDFromAuthorization(authorization string) string {
	parts := strings.SplitN(strings.TrimPrefix(authorization, "Bearer "), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	decoded, err := decodeBase64(parts[2])
	if err != nil {
		return ""
	}
	var payload struct {
		SessionID string `json:"sessionid"`
	}
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return ""
	}
	return payload.SessionID
}

func decodeBase64(s string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// call performs a request against an API path and returns the raw body.
// form selects POST with a urlencoded body, otherwise GET with query.
func (c *Client) call(ctx context.Context, path string, query url.Values, form url.Values) (*http.Response, []byte, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var (
		req *http.Request
		err error
	)
	if form != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return nil, nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}
	return resp, body, nil
}

// callJSON performs a request and decodes a successful JSON response into target
func (c *Client) callJSON(ctx context.Context, path string, query url.Values, form url.Values, target interface{}) error {
	resp, body, err := c.call(ctx, path, query, form)
	if err != nil {
		return err
	}
	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}
	return c.decode(resp, body, target)
}

// decode unmarshals body into target
func (c *Client) decode(resp *http.Response, body []byte, target interface{}) error {
	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}
	return nil
}

// checkResponseStatus maps a non-200 response to a typed error. The private
// API reports most failures as 400 with a JSON message, so the body is
// inspected before falling back to the status code.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var status apiStatus
	_ = json.Unmarshal(body, &status)

	fields := map[string]interface{}{
		"status":  resp.StatusCode,
		"url":     resp.Request.URL.Path,
		"message": status.Message,
	}
	if errors.IsRetryableStatusCode(resp.StatusCode) {
		c.logger.ErrorWithFields("API request failed", fields)
	} else {
		c.logger.WarnWithFields("API request rejected", fields)
	}

	return classifyFailure(resp.StatusCode, status)
}

func classifyFailure(code int, status apiStatus) *errors.Error {
	message := status.Message
	if message == "" {
		message = fmt.Sprintf("unexpected status code: %d", code)
	}

	switch {
	case status.Message == "login_required" || code == http.StatusUnauthorized:
		return errors.New(errors.ErrorTypeAuth, code, "authentication required: %s", message)
	case status.Message == "challenge_required" || status.Message == "checkpoint_required" || status.ErrorType == "checkpoint_challenge_required":
		return errors.New(errors.ErrorTypeChallenge, code, "account verification required: %s", message)
	case status.Message == "feedback_required" || status.Spam || code == http.StatusTooManyRequests ||
		strings.Contains(strings.ToLower(status.Message), "please wait"):
		return errors.New(errors.ErrorTypeRateLimit, code, "rate limit exceeded: %s", message)
	case status.ErrorType == "bad_password" || status.ErrorType == "invalid_user":
		return errors.New(errors.ErrorTypeAuth, code, "%s", message)
	case status.Message == "user_not_found" || code == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, code, "resource not found: %s", message)
	case code >= 500:
		return errors.New(errors.ErrorTypeServerError, code, "server error: %s", message)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrorTypeAuth, code, "forbidden: %s", message)
	default:
		return errors.New(errors.ErrorTypeUnknown, code, "%s", message)
	}
}

// Login authenticates with username and password. When the client already
// holds an authorized session it is reused without contacting the server;
// callers verify such a session with TimelineFeed.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	c.mu.RLock()
	s := c.settings
	if s.Authorized() {
		result := &LoginResult{
			Success:  true,
			Resumed:  true,
			UserID:   s.AuthorizationData.DSUserID,
			Username: username,
		}
		c.mu.RUnlock()
		c.logger.DebugWithFields("reusing stored session", map[string]interface{}{
			"username": username,
			"user_id":  result.UserID,
		})
		return result, nil
	}
	ids := s.UUIDs
	c.mu.RUnlock()

	if username == "" || password == "" {
		return nil, errors.New(errors.ErrorTypeAuth, 0, "username and password are required")
	}

	payload := map[string]string{
		"jazoest":             generateJazoest(ids.PhoneID),
		"country_codes":       `[{"country_code":"1","source":["default"]}]`,
		"phone_id":            ids.PhoneID,
		"enc_password":        encodePassword(password, time.Now()),
		"username":            username,
		"adid":                ids.AdvertisingID,
		"guid":                ids.UUID,
		"device_id":           ids.AndroidDeviceID,
		"google_tokens":       "[]",
		"login_attempt_count": "0",
	}
	form, err := signedBody(payload)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("logging in", map[string]interface{}{
		"username": username,
	})

	resp, body, err := c.call(ctx, loginEndpoint, nil, form)
	if err != nil {
		return nil, err
	}
	return c.handleLoginResponse(resp, body, username)
}

// TwoFactorLogin completes a login that returned TwoFactorRequired
func (c *Client) TwoFactorLogin(ctx context.Context, username, code, identifier string) (*LoginResult, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" {
		return nil, errors.New(errors.ErrorTypeTwoFactor, 0, "verification code is empty")
	}
	if identifier == "" {
		return nil, errors.New(errors.ErrorTypeTwoFactor, 0, "two-factor identifier is missing")
	}

	c.mu.RLock()
	ids := c.settings.UUIDs
	csrfToken := c.settings.CSRFToken
	c.mu.RUnlock()
	if csrfToken == "" {
		csrfToken = "missing"
	}

	payload := map[string]string{
		"verification_code":     code,
		"phone_id":              ids.PhoneID,
		"_csrftoken":            csrfToken,
		"two_factor_identifier": identifier,
		"username":              username,
		"trust_this_device":     "0",
		"guid":                  ids.UUID,
		"device_id":             ids.AndroidDeviceID,
		"waterfall_id":          ids.ClientSessionID,
		"verification_method":   "3",
	}
	form, err := signedBody(payload)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("submitting two-factor code", map[string]interface{}{
		"username": username,
	})

	resp, body, err := c.call(ctx, twoFactorLoginEndpoint, nil, form)
	if err != nil {
		return nil, err
	}
	result, err := c.handleLoginResponse(resp, body, username)
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeUnknown || errors.TypeOf(err) == errors.ErrorTypeAuth {
			return nil, errors.New(errors.ErrorTypeTwoFactor, errors.CodeOf(err), "two-factor login failed: %v", err)
		}
		return nil, err
	}
	if result.TwoFactorRequired {
		return nil, errors.New(errors.ErrorTypeTwoFactor, resp.StatusCode, "server requested another two-factor code")
	}
	return result, nil
}

func (c *Client) handleLoginResponse(resp *http.Response, body []byte, username string) (*LoginResult, error) {
	var lr loginResponse
	_ = json.Unmarshal(body, &lr)

	if lr.TwoFactorRequired && lr.TwoFactorInfo != nil {
		c.logger.InfoWithFields("two-factor authentication required", map[string]interface{}{
			"username": username,
		})
		return &LoginResult{
			TwoFactorRequired:   true,
			TwoFactorIdentifier: lr.TwoFactorInfo.TwoFactorIdentifier,
			TOTPEnabled:         lr.TwoFactorInfo.TOTPTwoFactorOn,
			ObfuscatedPhone:     lr.TwoFactorInfo.ObfuscatedPhone,
			Username:            username,
		}, nil
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return nil, err
	}
	if lr.LoggedInUser == nil {
		return nil, errors.New(errors.ErrorTypeParsing, resp.StatusCode, "login response has no logged_in_user")
	}

	c.mu.Lock()
	if c.settings.AuthorizationData.DSUserID == "" {
		c.settings.AuthorizationData.DSUserID = lr.LoggedInUser.PK.String()
	}
	c.settings.Username = lr.LoggedInUser.Username
	c.settings.UserAgent = c.headers["User-Agent"]
	c.settings.LastLogin = time.Now().UTC()
	authorized := c.settings.Authorized()
	userID := c.settings.AuthorizationData.DSUserID
	c.mu.Unlock()

	if !authorized {
		return nil, errors.New(errors.ErrorTypeAuth, resp.StatusCode, "login succeeded but no authorization header was issued")
	}

	c.logger.InfoWithFields("login successful", map[string]interface{}{
		"username": lr.LoggedInUser.Username,
		"user_id":  userID,
	})
	return &LoginResult{
		Success:  true,
		UserID:   userID,
		Username: lr.LoggedInUser.Username,
	}, nil
}

// TimelineFeed fetches the home feed. It is the cheapest authenticated call
// and doubles as the probe that a resumed session is still accepted.
func (c *Client) TimelineFeed(ctx context.Context) error {
	c.mu.RLock()
	ids := c.settings.UUIDs
	c.mu.RUnlock()

	form := url.Values{}
	form.Set("reason", "cold_start_fetch")
	form.Set("is_pull_to_refresh", "0")
	form.Set("phone_id", ids.PhoneID)
	form.Set("device_id", ids.UUID)
	form.Set("_uuid", ids.UUID)
	form.Set("client_session_id", ids.ClientSessionID)
	form.Set("battery_level", "100")
	form.Set("is_charging", "1")
	form.Set("timezone_offset", "0")

	var response timelineResponse
	if err := c.callJSON(ctx, timelineEndpoint, nil, form, &response); err != nil {
		return err
	}
	if response.Status != "" && response.Status != "ok" {
		return classifyFailure(http.StatusOK, response.apiStatus)
	}
	return nil
}

// UserInfoByUsername fetches the full profile for a username
func (c *Client) UserInfoByUsername(ctx context.Context, username string) (*User, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return nil, errors.New(errors.ErrorTypeNotFound, 0, "invalid username %q", username)
	}

	c.logger.DebugWithFields("fetching user info", map[string]interface{}{
		"username": username,
	})

	var response userInfoResponse
	if err := c.callJSON(ctx, usernameInfoPath(username), nil, nil, &response); err != nil {
		return nil, err
	}
	if response.User == nil || response.User.PK == "" {
		return nil, errors.New(errors.ErrorTypeNotFound, http.StatusOK, "user %s not found", username)
	}
	return response.User, nil
}

// UserIDFromUsername resolves a username to its numeric id
func (c *Client) UserIDFromUsername(ctx context.Context, username string) (string, error) {
	user, err := c.UserInfoByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return user.PK.String(), nil
}

// UserFollowers returns every account following userID
func (c *Client) UserFollowers(ctx context.Context, userID string) ([]UserShort, error) {
	return c.paginate(ctx, "followers", FollowersPath(userID))
}

// UserFollowing returns every account userID follows
func (c *Client) UserFollowing(ctx context.Context, userID string) ([]UserShort, error) {
	return c.paginate(ctx, "following", FollowingPath(userID))
}

// paginate walks a friendships listing until next_max_id runs out
func (c *Client) paginate(ctx context.Context, kind, path string) ([]UserShort, error) {
	var (
		users []UserShort
		maxID string
		page  int
	)
	seen := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var response friendshipsResponse
		if err := c.callJSON(ctx, path, friendshipsQuery(maxID, DefaultPageSize), nil, &response); err != nil {
			c.logger.ErrorWithFields("failed to fetch relationship page", map[string]interface{}{
				"kind":  kind,
				"page":  page,
				"error": err.Error(),
			})
			return nil, err
		}
		if response.Status != "" && response.Status != "ok" {
			return nil, classifyFailure(http.StatusOK, response.apiStatus)
		}

		users = append(users, response.Users...)
		page++

		c.logger.DebugWithFields("fetched relationship page", map[string]interface{}{
			"kind":  kind,
			"page":  page,
			"count": len(response.Users),
			"total": len(users),
		})

		next := response.NextMaxID
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
		maxID = next
	}

	return users, nil
}

// generateJazoest derives the checksum field the app attaches to logins
func generateJazoest(phoneID string) string {
	sum := 0
	for _, r := range phoneID {
		sum += int(r)
	}
	return "2" + strconv.Itoa(sum)
}

// encodePassword wraps the password in the unencrypted #PWD_INSTAGRAM envelope
func encodePassword(password string, now time.Time) string {
	return fmt.Sprintf("#PWD_INSTAGRAM:0:%d:%s", now.Unix(), password)
}

// signedBody wraps a payload the way the app signs login requests
func signedBody(payload map[string]string) (url.Values, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to encode payload: %v", err)
	}
	form := url.Values{}
	form.Set("signed_body", "SIGNATURE."+string(data))
	return form, nil
}
