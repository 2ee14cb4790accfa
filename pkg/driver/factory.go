package driver

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// DefaultTimeout is the default per-operation timeout for locally
// launched browsers, in milliseconds.
const DefaultTimeout = 30000.0

// androidUserAgent is the user agent used for the Android vendor's
// mobile emulation context.
const androidUserAgent = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/115.0.0.0 Mobile Safari/537.36"

// Options configures a local browser launch.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Args are additional command-line arguments for the browser
	Args []string

	// BinaryPath optionally points at an alternative browser binary
	BinaryPath string

	// Timeout is the default operation timeout in milliseconds
	// (0 means DefaultTimeout)
	Timeout float64
}

func (o Options) timeout() float64 {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

// Factory launches local browsers through a shared Playwright runtime.
// Initialize must be called before the first Open.
type Factory struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// NewFactory creates a new driver factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Initialize installs and starts the Playwright runtime. Safe to call
// more than once; only the first call does work.
func (f *Factory) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		return nil
	}

	// Discard driver output so it cannot interleave with test logs
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	f.pw = pw
	f.initialized = true
	return nil
}

// Shutdown stops the Playwright runtime. Open drivers must be quit
// before calling Shutdown.
func (f *Factory) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized || f.pw == nil {
		return nil
	}
	if err := f.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	f.pw = nil
	f.initialized = false
	return nil
}

// Open launches a local browser for the given vendor and returns its
// driver handle. Safari handles are recorded in the vendor-quirk
// window set until a close keyword clears them.
func (f *Factory) Open(vendor Vendor, opts Options) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return nil, fmt.Errorf("driver factory not initialized")
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if len(opts.Args) > 0 {
		launch.Args = opts.Args
	}
	if opts.BinaryPath != "" {
		launch.ExecutablePath = playwright.String(opts.BinaryPath)
	}

	var browserType playwright.BrowserType
	contextOpts := playwright.BrowserNewContextOptions{}

	switch vendor {
	case Chrome:
		browserType = f.pw.Chromium
	case Edge:
		browserType = f.pw.Chromium
		launch.Channel = playwright.String("msedge")
	case IE:
		// No engine ships for IE anymore; Edge is the compatibility path
		browserType = f.pw.Chromium
		launch.Channel = playwright.String("msedge")
	case Firefox:
		browserType = f.pw.Firefox
	case Safari:
		browserType = f.pw.WebKit
	case Android:
		browserType = f.pw.Chromium
		contextOpts.Viewport = &playwright.Size{Width: 393, Height: 851}
		contextOpts.IsMobile = playwright.Bool(true)
		contextOpts.HasTouch = playwright.Bool(true)
		contextOpts.DeviceScaleFactor = playwright.Float(2.75)
		contextOpts.UserAgent = playwright.String(androidUserAgent)
	default:
		return nil, &UnknownBrowserError{Alias: string(vendor)}
	}

	browser, err := browserType.Launch(launch)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", vendor, err)
	}

	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(opts.timeout())

	d := &localDriver{
		vendor:  vendor,
		browser: browser,
		context: context,
		page:    page,
		caps: Capabilities{
			"browserName":    string(vendor),
			"browserVersion": browser.Version(),
			"headless":       opts.Headless,
		},
	}

	if vendor == Safari {
		OpenWindows.Add(d)
	}

	return d, nil
}
