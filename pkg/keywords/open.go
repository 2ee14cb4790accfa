package keywords

import (
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/driver"
)

// OpenBrowser opens a new browser session, makes it current, and
// navigates to the given URL. The alias selects the browser vendor
// ("chrome", "gc", "ff", "safari", ...); extra options are passed to
// the browser launch as command-line arguments.
//
// When a cloud-grid provider is configured the alias selects a grid
// desktop pool instead, unless a device is configured, in which case
// the session opens on that real mobile device and the alias is
// ignored.
func (l *Library) OpenBrowser(url, alias string, options ...string) (driver.Driver, error) {
	if count := l.registry.Count(); count > 0 {
		l.log.Warnf("%d browser session(s) already open; opening another", count)
	}

	d, vendor, err := l.openSession(alias, options)
	if err != nil {
		l.log.Errorf("failed to open browser %q: %v", alias, err)
		return nil, err
	}

	l.registry.Open(d)
	l.logVersionOnce(d)

	// The monitor is an init script, so it must be in place before the
	// first navigation or the landing page escapes instrumentation.
	if err := driver.StartXHRMonitor(d); err != nil {
		l.log.Warnf("failed to start network monitor: %v", err)
	}

	// With session re-use the configured Chrome instance already has
	// its page; navigating would clobber it.
	if !(l.browser.IsReuseSession() && vendor == driver.Chrome) {
		if err := d.Navigate(url); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (l *Library) openSession(alias string, options []string) (driver.Driver, driver.Vendor, error) {
	if l.browser.IsGridProvider() {
		d, err := l.openGridSession(alias)
		return d, "", err
	}

	vendor, err := driver.ParseVendor(alias)
	if err != nil {
		return nil, "", err
	}

	// The forced-headless override wins unconditionally so run-wide
	// headless execution cannot be undone per keyword call; launch
	// arguments still pass through.
	opts := driver.Options{
		Headless: l.browser.IsHeadless(),
		Args:     l.effectiveArgs(options),
	}

	d, err := l.factory.Open(vendor, opts)
	return d, vendor, err
}

func (l *Library) openGridSession(alias string) (driver.Driver, error) {
	endpoint := l.browser.GetGridURL()
	project := l.browser.GetProject()
	runID := l.browser.GetRunID()

	if device := l.browser.GetDevice(); device != "" {
		l.log.Infof("opening grid session on device %q", device)
		return l.factory.OpenGridMobile(endpoint, device, project, runID)
	}

	name, ok := driver.GridDesktopName(alias)
	if !ok {
		return nil, &driver.UnknownBrowserError{Alias: alias}
	}
	l.log.Infof("opening grid desktop session for %q", name)
	return l.factory.OpenGridDesktop(endpoint, name, project, runID)
}

// effectiveArgs merges the explicit keyword options with the
// configured extra browser arguments, configured values last.
func (l *Library) effectiveArgs(options []string) []string {
	var args []string
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			args = append(args, opt)
		}
	}
	return append(args, l.browser.GetExtraArgs()...)
}

func (l *Library) logVersionOnce(d driver.Driver) {
	if l.versionLogged {
		return
	}
	caps := d.Capabilities()
	version, _ := caps["browserVersion"].(string)
	l.log.Infof("browser: %s %s", caps.BrowserName(), version)
	l.versionLogged = true
}

// SwitchBrowser changes the current session. The selector is "NEW"
// for the most recently opened session or the 1-based position of an
// open session.
func (l *Library) SwitchBrowser(selector string) error {
	if err := l.registry.Switch(selector); err != nil {
		l.log.Errorf("switch browser failed: %v", err)
		return err
	}
	l.log.Infof("switched to session %q", selector)
	return nil
}

// CurrentURL returns the URL of the current session's page.
func (l *Library) CurrentURL() (string, error) {
	d := l.registry.Current()
	if d == nil {
		return "", fmt.Errorf("no open browser session")
	}
	return d.CurrentURL(), nil
}
