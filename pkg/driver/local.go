package driver

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// localDriver is a Driver backed by a locally launched Playwright
// browser: one browser process, one isolated context, one page.
type localDriver struct {
	vendor  Vendor
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	caps    Capabilities
}

var _ Driver = (*localDriver)(nil)

// Navigate loads the given URL in the driver's page.
func (d *localDriver) Navigate(url string) error {
	if _, err := d.page.Goto(url, playwright.PageGotoOptions{}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// CurrentURL returns the URL of the active page.
func (d *localDriver) CurrentURL() string {
	return d.page.URL()
}

// Capabilities returns the browser capabilities reported at open.
func (d *localDriver) Capabilities() Capabilities {
	return d.caps
}

// FindElements returns all elements matching the CSS selector.
func (d *localDriver) FindElements(selector string) ([]Element, error) {
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}

	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &localElement{handle: handle})
	}
	return elements, nil
}

// Close closes the active page.
func (d *localDriver) Close() error {
	return d.page.Close()
}

// Quit tears down the page, context, and browser.
func (d *localDriver) Quit() error {
	_ = d.page.Close()    // Ignore errors, continue cleanup
	_ = d.context.Close() // Ignore errors, continue cleanup
	if d.vendor == Safari {
		OpenWindows.Remove(d)
	}
	return d.browser.Close()
}

// InstallInitScript installs a script evaluated on every new document
// before any page script runs. Used by the XHR monitor.
func (d *localDriver) InstallInitScript(script string) error {
	return d.page.AddInitScript(playwright.Script{
		Content: playwright.String(script),
	})
}

// localElement wraps a Playwright element handle.
type localElement struct {
	handle playwright.ElementHandle
}

// Attribute returns the value of the named attribute.
func (e *localElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}
