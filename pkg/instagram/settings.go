package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"followcheck/pkg/report"

	"github.com/google/uuid"
)

// DeviceIDs are the identifiers the Android app sends with every request.
// They stay stable across logins so the account keeps seeing one device.
type DeviceIDs struct {
	PhoneID         string `json:"phone_id"`
	UUID            string `json:"uuid"`
	ClientSessionID string `json:"client_session_id"`
	AdvertisingID   string `json:"advertising_id"`
	AndroidDeviceID string `json:"android_device_id"`
}

// AuthorizationData is the session cookie material returned at login
type AuthorizationData struct {
	DSUserID  string `json:"ds_user_id"`
	SessionID string `json:"sessionid"`
}

// Settings is the serialisable client state. Dumping it after a login and
// loading it on the next run lets the client skip the password exchange.
type Settings struct {
	UUIDs             DeviceIDs         `json:"uuids"`
	Authorization     string            `json:"authorization"`
	AuthorizationData AuthorizationData `json:"authorization_data"`
	Mid               string            `json:"mid"`
	CSRFToken         string            `json:"csrftoken,omitempty"`
	Username          string            `json:"username"`
	UserAgent         string            `json:"user_agent"`
	LastLogin         time.Time         `json:"last_login"`
}

// NewSettings returns settings with freshly generated device ids
func NewSettings() *Settings {
	return &Settings{
		UUIDs: DeviceIDs{
			PhoneID:         uuid.NewString(),
			UUID:            uuid.NewString(),
			ClientSessionID: uuid.NewString(),
			AdvertisingID:   uuid.NewString(),
			AndroidDeviceID: "android-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		},
	}
}

// Authorized reports whether the settings carry a usable session
func (s *Settings) Authorized() bool {
	return s.Authorization != "" && s.AuthorizationData.DSUserID != ""
}

// ClearAuthorization drops the session but keeps the device ids
func (s *Settings) ClearAuthorization() {
	s.Authorization = ""
	s.AuthorizationData = AuthorizationData{}
	s.LastLogin = time.Time{}
}

// Validate checks that the device identity is complete
func (s *Settings) Validate() error {
	ids := s.UUIDs
	if ids.PhoneID == "" || ids.UUID == "" || ids.AndroidDeviceID == "" {
		return fmt.Errorf("settings are missing device identifiers")
	}
	if s.Authorization != "" && !strings.HasPrefix(s.Authorization, "Bearer ") {
		return fmt.Errorf("settings carry a malformed authorization header")
	}
	return nil
}

// ParseSettings decodes and validates settings JSON
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSettingsFile reads settings previously written by DumpSettingsFile
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(data)
}

// DumpSettingsFile atomically writes settings readable only by the owner
func DumpSettingsFile(path string, s *Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return report.WriteFileAtomic(path, bytes.NewReader(data), 0600)
}
