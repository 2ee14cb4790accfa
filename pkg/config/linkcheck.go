package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

const (
	// SectionIDLinkCheck is the identifier for the link check section
	SectionIDLinkCheck = "linkcheck"

	// Default values for link check settings
	defaultLinkCheckTimeout = 30 * time.Second
	defaultUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/39.0.2171.71 Safari/537.36"
)

// defaultBenignStatuses are non-standard status codes that some sites
// return for automated requests even though the link works. 999 is the
// LinkedIn anti-bot response.
var defaultBenignStatuses = []int{999}

// LinkCheckSection manages link verification policy: the HTTP request
// timeout, the browser-identifying user agent, the benign status code
// allowlist, and URL exclusion patterns.
type LinkCheckSection struct {
	Timeout         time.Duration `json:"timeout"`
	UserAgent       string        `json:"user_agent"`
	BenignStatuses  []int         `json:"benign_statuses"`
	ExcludePatterns []string      `json:"exclude_patterns"`
	compiled        []glob.Glob
	mu              sync.RWMutex
}

// NewLinkCheckSection creates a new link check section with default settings.
func NewLinkCheckSection() *LinkCheckSection {
	return &LinkCheckSection{
		Timeout:        defaultLinkCheckTimeout,
		UserAgent:      defaultUserAgent,
		BenignStatuses: append([]int(nil), defaultBenignStatuses...),
	}
}

// ID returns the section identifier.
func (s *LinkCheckSection) ID() string {
	return SectionIDLinkCheck
}

// Title returns the section title.
func (s *LinkCheckSection) Title() string {
	return "Link Check Settings"
}

// Description returns the section description.
func (s *LinkCheckSection) Description() string {
	return "Configure link verification: request timeout, user agent, benign status codes, and excluded URLs."
}

// Data returns the current configuration data.
func (s *LinkCheckSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"timeout":          s.Timeout.String(),
		"user_agent":       s.UserAgent,
		"benign_statuses":  append([]int(nil), s.BenignStatuses...),
		"exclude_patterns": append([]string(nil), s.ExcludePatterns...),
	}
}

// SetData replaces the configuration data.
func (s *LinkCheckSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["timeout"]; ok {
		str, err := toString(v)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		s.Timeout = d
	}
	if v, ok := data["user_agent"]; ok {
		str, err := toString(v)
		if err != nil {
			return fmt.Errorf("user_agent: %w", err)
		}
		s.UserAgent = str
	}
	if v, ok := data["benign_statuses"]; ok {
		statuses, err := toIntSlice(v)
		if err != nil {
			return fmt.Errorf("benign_statuses: %w", err)
		}
		s.BenignStatuses = statuses
	}
	if v, ok := data["exclude_patterns"]; ok {
		patterns, err := toStringSlice(v)
		if err != nil {
			return fmt.Errorf("exclude_patterns: %w", err)
		}
		s.ExcludePatterns = patterns
		s.compiled = nil
	}

	return nil
}

// Validate checks that every exclusion pattern compiles.
func (s *LinkCheckSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	for _, pattern := range s.ExcludePatterns {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Reset restores the section to its default values.
func (s *LinkCheckSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Timeout = defaultLinkCheckTimeout
	s.UserAgent = defaultUserAgent
	s.BenignStatuses = append([]int(nil), defaultBenignStatuses...)
	s.ExcludePatterns = nil
	s.compiled = nil
}

// GetTimeout returns the HTTP request timeout for link checks.
func (s *LinkCheckSection) GetTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Timeout
}

// GetUserAgent returns the browser-identifying user agent header value.
func (s *LinkCheckSection) GetUserAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserAgent
}

// IsBenignStatus reports whether the status code is on the allowlist
// of codes that are logged but never counted as broken.
func (s *LinkCheckSection) IsBenignStatus(status int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, benign := range s.BenignStatuses {
		if status == benign {
			return true
		}
	}
	return false
}

// IsExcluded reports whether the URL matches any exclusion pattern.
// Patterns that fail to compile are skipped; Validate surfaces them.
func (s *LinkCheckSection) IsExcluded(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compiled == nil && len(s.ExcludePatterns) > 0 {
		s.compiled = make([]glob.Glob, 0, len(s.ExcludePatterns))
		for _, pattern := range s.ExcludePatterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				continue
			}
			s.compiled = append(s.compiled, g)
		}
	}
	for _, g := range s.compiled {
		if g.Match(url) {
			return true
		}
	}
	return false
}

func toIntSlice(v interface{}) ([]int, error) {
	switch vv := v.(type) {
	case []int:
		return append([]int(nil), vv...), nil
	case []interface{}:
		out := make([]int, 0, len(vv))
		for _, item := range vv {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				// JSON numbers decode as float64
				out = append(out, int(n))
			default:
				return nil, fmt.Errorf("expected int element, got %T", item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected int list, got %T", v)
	}
}
