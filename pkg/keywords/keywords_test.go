package keywords

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/driver"
)

// fakeDriver is an in-memory Driver for keyword tests.
type fakeDriver struct {
	name      string
	url       string
	navigated []string
	elements  []driver.Element
	findErr   error
	quitErr   error
	quitCalls int
	caps      driver.Capabilities
}

func newFakeDriver(name string) *fakeDriver {
	return &fakeDriver{
		name: name,
		caps: driver.Capabilities{"browserName": name, "browserVersion": "1.0"},
	}
}

func (f *fakeDriver) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	f.url = url
	return nil
}

func (f *fakeDriver) CurrentURL() string                { return f.url }
func (f *fakeDriver) Capabilities() driver.Capabilities { return f.caps }

func (f *fakeDriver) FindElements(string) ([]driver.Element, error) {
	return f.elements, f.findErr
}

func (f *fakeDriver) Close() error { return nil }

func (f *fakeDriver) Quit() error {
	f.quitCalls++
	return f.quitErr
}

// fakeRemote adds a mutable session id and per-id close/quit
// recording.
type fakeRemote struct {
	fakeDriver
	sessionID string
	closedIDs []string
	quitIDs   []string
	closeErr  error
}

func newFakeRemote(name, sessionID string) *fakeRemote {
	return &fakeRemote{fakeDriver: *newFakeDriver(name), sessionID: sessionID}
}

func (f *fakeRemote) SessionID() string      { return f.sessionID }
func (f *fakeRemote) SetSessionID(id string) { f.sessionID = id }

func (f *fakeRemote) Close() error {
	f.closedIDs = append(f.closedIDs, f.sessionID)
	return f.closeErr
}

func (f *fakeRemote) Quit() error {
	f.quitIDs = append(f.quitIDs, f.sessionID)
	return f.fakeDriver.Quit()
}

// fakeFactory hands out pre-built drivers and records what was asked
// of it.
type fakeFactory struct {
	next        driver.Driver
	nextRemote  driver.Remote
	openErr     error
	openVendor  driver.Vendor
	openOpts    driver.Options
	gridBrowser string
	gridDevice  string
	gridProject string
}

func (f *fakeFactory) Open(vendor driver.Vendor, opts driver.Options) (driver.Driver, error) {
	f.openVendor = vendor
	f.openOpts = opts
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.next == nil {
		f.next = newFakeDriver(string(vendor))
	}
	return f.next, nil
}

func (f *fakeFactory) OpenGridDesktop(endpoint, browser, project, runID string) (driver.Remote, error) {
	f.gridBrowser = browser
	f.gridProject = project
	if f.nextRemote == nil {
		f.nextRemote = newFakeRemote(browser, "grid-1")
	}
	return f.nextRemote, nil
}

func (f *fakeFactory) OpenGridMobile(endpoint, device, project, runID string) (driver.Remote, error) {
	f.gridDevice = device
	f.gridProject = project
	if f.nextRemote == nil {
		f.nextRemote = newFakeRemote("chrome", "grid-1")
	}
	return f.nextRemote, nil
}

func newTestLibrary(factory DriverFactory) (*Library, *config.BrowserSection) {
	browser := config.NewBrowserSection()
	return New(factory, browser, config.NewLinkCheckSection()), browser
}

func TestOpenBrowser_LocalVendor(t *testing.T) {
	factory := &fakeFactory{}
	l, _ := newTestLibrary(factory)

	d, err := l.OpenBrowser("https://example.com", "gc")
	require.NoError(t, err)

	assert.Equal(t, driver.Chrome, factory.openVendor)
	assert.Same(t, d, l.ReturnBrowser())
	assert.Equal(t, 1, l.Registry().Count())

	fd := d.(*fakeDriver)
	assert.Equal(t, []string{"https://example.com"}, fd.navigated)
}

func TestOpenBrowser_UnknownAlias(t *testing.T) {
	l, _ := newTestLibrary(&fakeFactory{})

	_, err := l.OpenBrowser("https://example.com", "netscape")
	require.Error(t, err)

	var unknown *driver.UnknownBrowserError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 0, l.Registry().Count())
}

func TestOpenBrowser_MergesExtraArgs(t *testing.T) {
	factory := &fakeFactory{}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"extra_args": []string{"--disable-gpu"},
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome", "--lang=fi", "")
	require.NoError(t, err)

	// Explicit options first, configured arguments appended; empty
	// options are dropped
	assert.Equal(t, []string{"--lang=fi", "--disable-gpu"}, factory.openOpts.Args)
	assert.False(t, factory.openOpts.Headless)
}

func TestOpenBrowser_ForcedHeadlessKeepsArgs(t *testing.T) {
	factory := &fakeFactory{}
	l, browser := newTestLibrary(factory)
	browser.SetHeadless(true)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"extra_args": []string{"--disable-gpu"},
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome", "--lang=fi")
	require.NoError(t, err)

	// Forcing headless must not eat the launch arguments
	assert.True(t, factory.openOpts.Headless)
	assert.Equal(t, []string{"--lang=fi", "--disable-gpu"}, factory.openOpts.Args)
}

func TestOpenBrowser_ReuseSessionSkipsNavigation(t *testing.T) {
	reused := newFakeDriver("chrome")
	factory := &fakeFactory{next: reused}
	l, browser := newTestLibrary(factory)
	browser.SetReuseSession(true)

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)
	assert.Empty(t, reused.navigated)

	// Re-use is a Chrome-only shortcut; other vendors still navigate
	ff := newFakeDriver("firefox")
	factory.next = ff
	_, err = l.OpenBrowser("https://example.com", "ff")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, ff.navigated)
}

func TestOpenBrowser_GridDesktop(t *testing.T) {
	factory := &fakeFactory{}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider": "bs",
		"grid_url": "https://grid.example.com/wd/hub",
		"project":  "checkout",
	}))

	d, err := l.OpenBrowser("https://example.com", "IE")
	require.NoError(t, err)

	assert.Equal(t, "internet explorer", factory.gridBrowser)
	assert.Equal(t, "checkout", factory.gridProject)
	assert.Same(t, d, l.ReturnBrowser())
}

func TestOpenBrowser_GridDesktopUnknownAlias(t *testing.T) {
	l, browser := newTestLibrary(&fakeFactory{})
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider": "bs",
		"grid_url": "https://grid.example.com/wd/hub",
	}))

	_, err := l.OpenBrowser("https://example.com", "android")
	var unknown *driver.UnknownBrowserError
	require.ErrorAs(t, err, &unknown)
}

func TestOpenBrowser_GridDeviceTakesPrecedence(t *testing.T) {
	factory := &fakeFactory{}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider": "bs",
		"grid_url": "https://grid.example.com/wd/hub",
		"device":   "Google Pixel 7",
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	assert.Equal(t, "Google Pixel 7", factory.gridDevice)
	assert.Empty(t, factory.gridBrowser)
}

// scriptedDriver records the order of init-script installation and
// navigation.
type scriptedDriver struct {
	fakeDriver
	events []string
}

func (s *scriptedDriver) Navigate(url string) error {
	s.events = append(s.events, "navigate")
	return s.fakeDriver.Navigate(url)
}

func (s *scriptedDriver) InstallInitScript(string) error {
	s.events = append(s.events, "script")
	return nil
}

func TestOpenBrowser_MonitorInstalledBeforeNavigation(t *testing.T) {
	d := &scriptedDriver{fakeDriver: *newFakeDriver("chrome")}
	factory := &fakeFactory{next: d}
	l, _ := newTestLibrary(factory)

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	// The init script only reaches documents loaded after it is
	// installed, so it must precede the first navigation
	assert.Equal(t, []string{"script", "navigate"}, d.events)
}

func TestSwitchBrowser(t *testing.T) {
	factory := &fakeFactory{}
	l, _ := newTestLibrary(factory)

	first := newFakeDriver("chrome")
	second := newFakeDriver("firefox")
	factory.next = first
	_, err := l.OpenBrowser("https://a.example.com", "chrome")
	require.NoError(t, err)
	factory.next = second
	_, err = l.OpenBrowser("https://b.example.com", "ff")
	require.NoError(t, err)

	require.NoError(t, l.SwitchBrowser("1"))
	assert.Same(t, first, l.ReturnBrowser())

	require.NoError(t, l.SwitchBrowser("new"))
	assert.Same(t, second, l.ReturnBrowser())

	require.Error(t, l.SwitchBrowser("5"))
	assert.Same(t, second, l.ReturnBrowser())
}

func TestCloseBrowser(t *testing.T) {
	d := newFakeDriver("chrome")
	factory := &fakeFactory{next: d}
	l, browser := newTestLibrary(factory)
	browser.SetReuseSession(true)

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	require.NoError(t, l.CloseBrowser())
	assert.Equal(t, 1, d.quitCalls)
	assert.Equal(t, 0, l.Registry().Count())
	assert.False(t, browser.IsReuseSession())
}

func TestCloseBrowser_NoSession(t *testing.T) {
	l, _ := newTestLibrary(&fakeFactory{})
	assert.NoError(t, l.CloseBrowser())
}

func TestCloseBrowser_QuitFailureSurfaces(t *testing.T) {
	d := newFakeDriver("chrome")
	d.quitErr = fmt.Errorf("browser already gone")
	factory := &fakeFactory{next: d}
	l, _ := newTestLibrary(factory)

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	err = l.CloseBrowser()
	require.Error(t, err)
	// The handle is dropped even when quit fails
	assert.Equal(t, 0, l.Registry().Count())
}

func TestCloseRemoteBrowser_SwapsAndRestores(t *testing.T) {
	remote := newFakeRemote("chrome", "real-id")
	factory := &fakeFactory{nextRemote: remote}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider":          "bs",
		"grid_url":          "https://grid.example.com/wd/hub",
		"remote_session_id": "target-id",
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	require.NoError(t, l.CloseRemoteBrowser())

	// Close and quit both addressed the swapped-in session id
	assert.Equal(t, []string{"target-id"}, remote.closedIDs)
	assert.Equal(t, []string{"target-id"}, remote.quitIDs)
	// The real id is back in place afterwards
	assert.Equal(t, "real-id", remote.SessionID())
	assert.Equal(t, 0, l.Registry().Count())
}

func TestCloseRemoteBrowser_RestoresIDWhenCloseFails(t *testing.T) {
	remote := newFakeRemote("chrome", "real-id")
	remote.closeErr = fmt.Errorf("window already closed")
	factory := &fakeFactory{nextRemote: remote}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider":          "bs",
		"grid_url":          "https://grid.example.com/wd/hub",
		"remote_session_id": "target-id",
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	err = l.CloseRemoteBrowser()
	require.Error(t, err)
	assert.Equal(t, "real-id", remote.SessionID())
}

func TestCloseRemoteBrowser_LocalSessionUntouched(t *testing.T) {
	d := newFakeDriver("chrome")
	factory := &fakeFactory{next: d}
	l, browser := newTestLibrary(factory)
	browser.SetRemoteSessionID("target-id")

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	require.NoError(t, l.CloseRemoteBrowser())
	assert.Equal(t, 0, d.quitCalls)
	assert.Equal(t, 1, l.Registry().Count())
}

func TestCloseRemoteBrowser_NoConfiguredID(t *testing.T) {
	remote := newFakeRemote("chrome", "real-id")
	factory := &fakeFactory{nextRemote: remote}
	l, browser := newTestLibrary(factory)
	require.NoError(t, browser.SetData(map[string]interface{}{
		"provider": "bs",
		"grid_url": "https://grid.example.com/wd/hub",
	}))

	_, err := l.OpenBrowser("https://example.com", "chrome")
	require.NoError(t, err)

	require.NoError(t, l.CloseRemoteBrowser())
	assert.Empty(t, remote.closedIDs)
	assert.Equal(t, 1, l.Registry().Count())
}

func TestCloseAllBrowsers(t *testing.T) {
	factory := &fakeFactory{}
	l, browser := newTestLibrary(factory)
	browser.SetReuseSession(true)
	browser.SetHeadless(true)

	first := newFakeDriver("chrome")
	second := newFakeDriver("firefox")
	second.quitErr = fmt.Errorf("lost connection")
	third := newFakeDriver("chrome")

	for _, d := range []*fakeDriver{first, second, third} {
		factory.next = d
		_, err := l.OpenBrowser("https://example.com", "chrome")
		require.NoError(t, err)
	}

	err := l.CloseAllBrowsers()
	require.Error(t, err)

	// One failure does not stop the sweep
	assert.Equal(t, 1, first.quitCalls)
	assert.Equal(t, 1, second.quitCalls)
	assert.Equal(t, 1, third.quitCalls)

	assert.Equal(t, 0, l.Registry().Count())
	assert.False(t, browser.IsReuseSession())
	assert.False(t, browser.IsHeadless())
}

func TestCloseAllBrowsers_Empty(t *testing.T) {
	l, _ := newTestLibrary(&fakeFactory{})
	assert.NoError(t, l.CloseAllBrowsers())
}

func TestRun_Dispatch(t *testing.T) {
	d := newFakeDriver("chrome")
	factory := &fakeFactory{next: d}
	l, _ := newTestLibrary(factory)

	require.NoError(t, l.Run("Open Browser", "https://example.com", "gc"))
	assert.Equal(t, 1, l.Registry().Count())

	require.NoError(t, l.Run("SWITCH  BROWSER", "NEW"))
	require.NoError(t, l.Run("Return Browser"))
	require.NoError(t, l.Run("close all browsers"))
	assert.Equal(t, 0, l.Registry().Count())
}

func TestRun_ReturnBrowser(t *testing.T) {
	l, _ := newTestLibrary(&fakeFactory{})

	// No open session is informational, not an error
	require.NoError(t, l.Run("Return Browser"))

	err := l.Run("Return Browser", "unexpected")
	require.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	l, _ := newTestLibrary(&fakeFactory{})

	err := l.Run("Take Screenshot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keyword")

	err = l.Run("Open Browser", "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a url")

	err = l.Run("Close Browser", "unexpected")
	require.Error(t, err)
}
