package driver

// Capabilities describes the browser a handle is connected to, as
// reported by the underlying automation runtime.
type Capabilities map[string]interface{}

// BrowserName returns the capability identifying the browser vendor,
// or empty when unknown.
func (c Capabilities) BrowserName() string {
	name, _ := c["browserName"].(string)
	return name
}

// Element is a handle to a single element on the current page.
type Element interface {
	// Attribute returns the value of the named attribute, or empty
	// when the attribute is absent.
	Attribute(name string) (string, error)
}

// Driver is an opaque live connection to one browser instance, local
// process or remote grid session. Exactly one driver at a time is
// "current" from the keyword layer's point of view; drivers that are
// not current stay alive and tracked but are never implicitly
// operated on.
type Driver interface {
	// Navigate loads the given URL in the driver's active page
	Navigate(url string) error

	// CurrentURL returns the URL of the active page
	CurrentURL() string

	// Capabilities returns the browser capabilities reported at open
	Capabilities() Capabilities

	// FindElements returns all elements matching the CSS selector
	FindElements(selector string) ([]Element, error)

	// Close closes the active window or session target
	Close() error

	// Quit tears down the browser and releases all resources. The
	// handle must not be used afterwards.
	Quit() error
}

// Remote is a driver whose connection multiplexes logical sessions
// addressed by a session id. The id is deliberately mutable: Close
// and Quit always target whichever session id the handle currently
// holds, which is what allows a targeted close of a secondary remote
// session by temporarily swapping the id.
type Remote interface {
	Driver

	// SessionID returns the session id Close and Quit will address
	SessionID() string

	// SetSessionID redirects Close and Quit to another session on
	// the same connection
	SetSessionID(id string)
}
