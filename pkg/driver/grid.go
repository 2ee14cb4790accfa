package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// gridRequestTimeout bounds every grid protocol round-trip.
const gridRequestTimeout = 60 * time.Second

// GridDriver is a Remote driver backed by a cloud-grid session
// addressed over the wire protocol's REST surface. The session id it
// holds is mutable by design: Close and Quit always address whichever
// id the field currently contains.
type GridDriver struct {
	endpoint   string
	client     *http.Client
	sessionID  string
	caps       Capabilities
	currentURL string
}

var _ Remote = (*GridDriver)(nil)

// OpenGridDesktop creates a desktop browser session on the cloud grid.
// The project name and run id are attached as grid-side tags.
func OpenGridDesktop(endpoint, browser, project, runID string) (*GridDriver, error) {
	caps := Capabilities{
		"browserName": browser,
		"grid:options": map[string]interface{}{
			"projectName": project,
			"buildName":   runID,
		},
	}
	return newGridSession(endpoint, caps)
}

// OpenGridMobile creates a real-device mobile session on the cloud
// grid for the given device name.
func OpenGridMobile(endpoint, device, project, runID string) (*GridDriver, error) {
	caps := Capabilities{
		"browserName": "chrome",
		"grid:options": map[string]interface{}{
			"projectName": project,
			"buildName":   runID,
			"deviceName":  device,
			"realMobile":  true,
		},
	}
	return newGridSession(endpoint, caps)
}

// OpenGridDesktop opens a desktop grid session through the factory.
// Grid sessions do not touch the local Playwright runtime, so the
// factory needs no initialization for them.
func (f *Factory) OpenGridDesktop(endpoint, browser, project, runID string) (Remote, error) {
	return OpenGridDesktop(endpoint, browser, project, runID)
}

// OpenGridMobile opens a real-device mobile grid session through the
// factory.
func (f *Factory) OpenGridMobile(endpoint, device, project, runID string) (Remote, error) {
	return OpenGridMobile(endpoint, device, project, runID)
}

func newGridSession(endpoint string, caps Capabilities) (*GridDriver, error) {
	d := &GridDriver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: gridRequestTimeout},
	}

	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": caps,
		},
	}
	value, err := d.do(http.MethodPost, "/session", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid session: %w", err)
	}

	var created struct {
		SessionID    string                 `json:"sessionId"`
		Capabilities map[string]interface{} `json:"capabilities"`
	}
	if err := json.Unmarshal(value, &created); err != nil {
		return nil, fmt.Errorf("malformed grid session response: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("grid returned no session id")
	}

	d.sessionID = created.SessionID
	d.caps = created.Capabilities
	if d.caps == nil {
		d.caps = caps
	}
	return d, nil
}

// Navigate loads the given URL in the grid session.
func (d *GridDriver) Navigate(url string) error {
	_, err := d.do(http.MethodPost, d.sessionPath("/url"), map[string]string{"url": url})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	d.currentURL = url
	return nil
}

// CurrentURL returns the last URL navigated to in this session.
func (d *GridDriver) CurrentURL() string {
	return d.currentURL
}

// Capabilities returns the capabilities the grid reported at session
// creation.
func (d *GridDriver) Capabilities() Capabilities {
	return d.caps
}

// FindElements evaluates the CSS selector against the session's page
// source. Grid round-trips per element are avoided by matching over
// one source snapshot.
func (d *GridDriver) FindElements(selector string) ([]Element, error) {
	value, err := d.do(http.MethodGet, d.sessionPath("/source"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page source: %w", err)
	}

	var source string
	if err := json.Unmarshal(value, &source); err != nil {
		return nil, fmt.Errorf("malformed page source response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page source: %w", err)
	}

	var elements []Element
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &gridElement{sel: sel})
	})
	return elements, nil
}

// Close closes the window of whichever session the current session id
// addresses.
func (d *GridDriver) Close() error {
	if _, err := d.do(http.MethodDelete, d.sessionPath("/window"), nil); err != nil {
		return fmt.Errorf("failed to close grid window: %w", err)
	}
	return nil
}

// Quit ends whichever session the current session id addresses.
func (d *GridDriver) Quit() error {
	if _, err := d.do(http.MethodDelete, d.sessionPath(""), nil); err != nil {
		return fmt.Errorf("failed to quit grid session: %w", err)
	}
	return nil
}

// SessionID returns the session id Close and Quit address.
func (d *GridDriver) SessionID() string {
	return d.sessionID
}

// SetSessionID redirects Close and Quit to another session on the
// same grid connection.
func (d *GridDriver) SetSessionID(id string) {
	d.sessionID = id
}

func (d *GridDriver) sessionPath(suffix string) string {
	return "/session/" + d.sessionID + suffix
}

// do performs one grid protocol round-trip and returns the response's
// value field.
func (d *GridDriver) do(method, path string, body interface{}) (json.RawMessage, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, d.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed grid response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Value, &failure); err == nil && failure.Error != "" {
			return nil, fmt.Errorf("grid error %s: %s", failure.Error, failure.Message)
		}
		return nil, fmt.Errorf("grid returned status %d", resp.StatusCode)
	}

	return payload.Value, nil
}

// gridElement wraps one node matched in the session's page source.
type gridElement struct {
	sel *goquery.Selection
}

// Attribute returns the value of the named attribute, or empty when
// the attribute is absent.
func (e *gridElement) Attribute(name string) (string, error) {
	value, _ := e.sel.Attr(name)
	return value, nil
}
