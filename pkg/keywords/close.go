package keywords

import (
	"errors"
	"strings"

	"github.com/entrhq/pilot/pkg/driver"
)

// CloseBrowser closes the current browser session and removes it from
// the registry. With no open session it logs and returns nil.
func (l *Library) CloseBrowser() error {
	d := l.registry.Current()
	if d == nil {
		l.log.Infof("close browser: no open session")
		return nil
	}

	if isSafari(d) {
		driver.OpenWindows.Clear()
	}

	// A configured remote session id means a secondary grid session
	// must go down with this one.
	_, detachErr := l.detachRemoteSession(d, true)

	l.registry.Remove(d)
	l.browser.SetReuseSession(false)

	if err := d.Quit(); err != nil {
		return errors.Join(detachErr, err)
	}
	return detachErr
}

// CloseRemoteBrowser closes the configured secondary remote session
// through the current handle without tearing the handle down. Purely
// local sessions and runs without a configured remote session id are
// untouched.
func (l *Library) CloseRemoteBrowser() error {
	d := l.registry.Current()
	if d == nil {
		l.log.Infof("close remote browser: no open session")
		return nil
	}

	handled, err := l.detachRemoteSession(d, false)
	if handled {
		l.registry.Remove(d)
	}
	return err
}

// CloseAllBrowsers closes every open session in opening order. Close
// failures do not stop the sweep; they are aggregated into the
// returned error. The registry, the session re-use flag, the forced
// headless flag, and the Safari window set are reset regardless.
func (l *Library) CloseAllBrowsers() error {
	var errs []error
	for _, d := range l.registry.All() {
		if _, err := l.detachRemoteSession(d, true); err != nil {
			errs = append(errs, err)
		}
		if err := d.Quit(); err != nil {
			errs = append(errs, err)
		}
	}

	l.registry.Clear()
	l.browser.SetReuseSession(false)
	l.browser.SetHeadless(false)
	driver.OpenWindows.Clear()

	return errors.Join(errs...)
}

// detachRemoteSession runs the remote-session swap against the handle:
// the configured remote session id is swapped in, the session is
// closed (and quit, unless closeOnly), and the handle's real id is
// restored on every path, including close failures. Returns whether
// the protocol applied to this handle at all.
func (l *Library) detachRemoteSession(d driver.Driver, closeOnly bool) (bool, error) {
	remote, ok := d.(driver.Remote)
	if !ok {
		return false, nil
	}
	targetID := l.browser.GetRemoteSessionID()
	if targetID == "" {
		return false, nil
	}

	realID := remote.SessionID()
	remote.SetSessionID(targetID)
	defer remote.SetSessionID(realID)

	var errs []error
	if err := remote.Close(); err != nil {
		errs = append(errs, err)
	}
	if !closeOnly {
		if err := remote.Quit(); err != nil {
			errs = append(errs, err)
		}
	}

	l.log.Warnf("closed remote session %s; driver processes may be left running on the grid host", targetID)
	return true, errors.Join(errs...)
}

func isSafari(d driver.Driver) bool {
	return strings.EqualFold(d.Capabilities().BrowserName(), "safari") ||
		strings.EqualFold(d.Capabilities().BrowserName(), "webkit")
}
