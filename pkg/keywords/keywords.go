package keywords

import (
	"github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/driver"
	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/session"
)

// DriverFactory opens browser sessions, local or cloud-grid.
// *driver.Factory satisfies it; tests substitute fakes.
type DriverFactory interface {
	Open(vendor driver.Vendor, opts driver.Options) (driver.Driver, error)
	OpenGridDesktop(endpoint, browser, project, runID string) (driver.Remote, error)
	OpenGridMobile(endpoint, device, project, runID string) (driver.Remote, error)
}

var _ DriverFactory = (*driver.Factory)(nil)

// Library holds the browser lifecycle keywords and their shared state:
// the session registry, the driver factory, and the configuration
// sections consulted at open and close time.
type Library struct {
	registry *session.Registry
	factory  DriverFactory
	browser  *config.BrowserSection
	links    *config.LinkCheckSection
	log      *logging.Logger

	// versionLogged gates the one-time browser version banner
	versionLogged bool
}

// New creates a keyword library. Dependencies are injected explicitly
// so tests can run against fakes without global configuration.
func New(factory DriverFactory, browser *config.BrowserSection, links *config.LinkCheckSection) *Library {
	log, _ := NewLogger()
	return &Library{
		registry: session.NewRegistry(),
		factory:  factory,
		browser:  browser,
		links:    links,
		log:      log,
	}
}

// NewLogger creates the component logger the keyword library reports
// through. A fallback stderr logger is returned when file logging is
// unavailable.
func NewLogger() (*logging.Logger, error) {
	return logging.NewLogger("keywords")
}

// Registry exposes the session registry, mainly for inspection in
// tests and the CLI.
func (l *Library) Registry() *session.Registry {
	return l.registry
}

// ReturnBrowser returns the driver handle of the current session, or
// nil when no session is open. Callers use it to reach past the
// keyword surface for direct driver work.
func (l *Library) ReturnBrowser() driver.Driver {
	return l.registry.Current()
}
