package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// Environment variables overriding persisted browser settings
	EnvHeadless        = "PILOT_HEADLESS"
	EnvBrowserArgs     = "PILOT_BROWSER_ARGS"
	EnvProvider        = "PILOT_PROVIDER"
	EnvDevice          = "PILOT_DEVICE"
	EnvProject         = "PILOT_PROJECT"
	EnvRunID           = "PILOT_RUN_ID"
	EnvReuseSession    = "PILOT_REUSE_SESSION"
	EnvRemoteSessionID = "PILOT_REMOTE_SESSION_ID"
	EnvGridURL         = "PILOT_GRID_URL"
)

// gridProviders are the provider values that select the cloud-grid
// open path instead of a local vendor launch.
var gridProviders = map[string]bool{
	"bs":           true,
	"browserstack": true,
	"grid":         true,
}

// BrowserSection manages browser run settings: the forced-headless
// override, extra browser arguments, the cloud-grid provider/device
// selectors, project tagging, and the session re-use flags consumed by
// the lifecycle keywords.
type BrowserSection struct {
	Headless        bool     `json:"headless"`
	ExtraArgs       []string `json:"extra_args"`
	Provider        string   `json:"provider"`
	Device          string   `json:"device"`
	Project         string   `json:"project"`
	RunID           string   `json:"run_id"`
	ReuseSession    bool     `json:"reuse_session"`
	RemoteSessionID string   `json:"remote_session_id"`
	GridURL         string   `json:"grid_url"`
	mu              sync.RWMutex
}

// NewBrowserSection creates a new browser section with default settings.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure browser launch behavior, cloud-grid selection, and session re-use."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":          s.Headless,
		"extra_args":        append([]string(nil), s.ExtraArgs...),
		"provider":          s.Provider,
		"device":            s.Device,
		"project":           s.Project,
		"run_id":            s.RunID,
		"reuse_session":     s.ReuseSession,
		"remote_session_id": s.RemoteSessionID,
		"grid_url":          s.GridURL,
	}
}

// SetData replaces the configuration data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["headless"]; ok {
		b, err := toBool(v)
		if err != nil {
			return fmt.Errorf("headless: %w", err)
		}
		s.Headless = b
	}
	if v, ok := data["extra_args"]; ok {
		args, err := toStringSlice(v)
		if err != nil {
			return fmt.Errorf("extra_args: %w", err)
		}
		s.ExtraArgs = args
	}
	for key, dst := range map[string]*string{
		"provider":          &s.Provider,
		"device":            &s.Device,
		"project":           &s.Project,
		"run_id":            &s.RunID,
		"remote_session_id": &s.RemoteSessionID,
		"grid_url":          &s.GridURL,
	} {
		if v, ok := data[key]; ok {
			str, err := toString(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = str
		}
	}
	if v, ok := data["reuse_session"]; ok {
		b, err := toBool(v)
		if err != nil {
			return fmt.Errorf("reuse_session: %w", err)
		}
		s.ReuseSession = b
	}

	return nil
}

// Validate checks the current configuration for consistency.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Provider != "" && !gridProviders[strings.ToLower(s.Provider)] {
		return fmt.Errorf("unknown provider %q", s.Provider)
	}
	if gridProviders[strings.ToLower(s.Provider)] && s.GridURL == "" {
		return fmt.Errorf("provider %q requires grid_url", s.Provider)
	}
	return nil
}

// Reset restores the section to its default values.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = false
	s.ExtraArgs = nil
	s.Provider = ""
	s.Device = ""
	s.Project = ""
	s.RunID = ""
	s.ReuseSession = false
	s.RemoteSessionID = ""
	s.GridURL = ""
}

// ApplyEnvironment overlays settings from process environment
// variables. Unset variables leave the persisted values untouched.
func (s *BrowserSection) ApplyEnvironment() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := os.Getenv(EnvHeadless); v != "" {
		s.Headless = envBool(v)
	}
	if v := os.Getenv(EnvBrowserArgs); v != "" {
		for _, arg := range strings.Split(v, ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				s.ExtraArgs = append(s.ExtraArgs, arg)
			}
		}
	}
	if v := os.Getenv(EnvProvider); v != "" {
		s.Provider = v
	}
	if v := os.Getenv(EnvDevice); v != "" {
		s.Device = v
	}
	if v := os.Getenv(EnvProject); v != "" {
		s.Project = v
	}
	if v := os.Getenv(EnvRunID); v != "" {
		s.RunID = v
	}
	if v := os.Getenv(EnvReuseSession); v != "" {
		s.ReuseSession = envBool(v)
	}
	if v := os.Getenv(EnvRemoteSessionID); v != "" {
		s.RemoteSessionID = v
	}
	if v := os.Getenv(EnvGridURL); v != "" {
		s.GridURL = v
	}
}

// IsGridProvider reports whether the configured provider selects the
// cloud-grid open path.
func (s *BrowserSection) IsGridProvider() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gridProviders[strings.ToLower(s.Provider)]
}

// IsHeadless returns the forced-headless override flag.
func (s *BrowserSection) IsHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}

// SetHeadless sets the forced-headless override flag.
func (s *BrowserSection) SetHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = headless
}

// GetExtraArgs returns the configured additional browser arguments.
func (s *BrowserSection) GetExtraArgs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ExtraArgs...)
}

// GetDevice returns the cloud-grid device selector.
func (s *BrowserSection) GetDevice() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Device
}

// GetProject returns the cloud-grid project name tag.
func (s *BrowserSection) GetProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Project
}

// GetRunID returns the cloud-grid run id tag.
func (s *BrowserSection) GetRunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RunID
}

// GetGridURL returns the cloud-grid endpoint URL.
func (s *BrowserSection) GetGridURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.GridURL
}

// IsReuseSession returns the browser re-use flag.
func (s *BrowserSection) IsReuseSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ReuseSession
}

// SetReuseSession sets the browser re-use flag. The close keywords
// reset it once the original session is gone.
func (s *BrowserSection) SetReuseSession(reuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReuseSession = reuse
}

// GetRemoteSessionID returns the target remote session id for the
// detach protocol, or empty when none is configured.
func (s *BrowserSection) GetRemoteSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RemoteSessionID
}

// SetRemoteSessionID sets the target remote session id.
func (s *BrowserSection) SetRemoteSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RemoteSessionID = id
}

func envBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		// Any non-empty, non-parsable value counts as enabled
		return true
	}
	return b
}

func toBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func toString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...), nil
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}
