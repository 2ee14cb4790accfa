package driver

import (
	"fmt"
	"strings"
)

// Vendor identifies a supported local browser.
type Vendor string

const (
	Chrome  Vendor = "chrome"
	Firefox Vendor = "firefox"
	IE      Vendor = "ie"
	Safari  Vendor = "safari"
	Android Vendor = "android"
	Edge    Vendor = "edge"
)

// vendorAliases maps the accepted browser alias spellings to vendors.
// Lookups are case-insensitive.
var vendorAliases = map[string]Vendor{
	"chrome":            Chrome,
	"gc":                Chrome,
	"firefox":           Firefox,
	"ff":                Firefox,
	"ie":                IE,
	"internet explorer": IE,
	"safari":            Safari,
	"sf":                Safari,
	"android":           Android,
	"androidphone":      Android,
	"androidmobile":     Android,
	"edge":              Edge,
}

// gridDesktopNames maps aliases to the browser names accepted by the
// cloud grid's desktop pool. Mobile grid sessions are selected by
// device instead and accept any of these as the fallback browser.
var gridDesktopNames = map[string]string{
	"chrome":            "chrome",
	"gc":                "chrome",
	"firefox":           "firefox",
	"ff":                "firefox",
	"safari":            "safari",
	"sf":                "safari",
	"edge":              "edge",
	"ie":                "internet explorer",
	"internet explorer": "internet explorer",
}

// UnknownBrowserError reports a browser alias that matches no vendor
// table entry.
type UnknownBrowserError struct {
	Alias string
}

func (e *UnknownBrowserError) Error() string {
	return fmt.Sprintf("unknown browser %q", e.Alias)
}

// ParseVendor resolves a browser alias to its vendor,
// case-insensitively. Unknown aliases return UnknownBrowserError.
func ParseVendor(alias string) (Vendor, error) {
	vendor, ok := vendorAliases[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return "", &UnknownBrowserError{Alias: alias}
	}
	return vendor, nil
}

// GridDesktopName resolves a browser alias to the name used by the
// cloud grid's desktop pool. The second return value is false when the
// alias is not available on the grid.
func GridDesktopName(alias string) (string, bool) {
	name, ok := gridDesktopNames[strings.ToLower(strings.TrimSpace(alias))]
	return name, ok
}
