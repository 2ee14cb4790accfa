package keywords

import (
	"fmt"
	"strconv"
	"strings"
)

// KeywordFunc executes one keyword against the library with its
// test-framework arguments.
type KeywordFunc func(l *Library, args []string) error

// keywordTable maps normalized keyword names to their implementations.
// Names are matched case-insensitively with whitespace collapsed, so
// "Open Browser", "open browser" and "OPEN  BROWSER" all dispatch the
// same keyword.
var keywordTable = map[string]KeywordFunc{
	"open browser": func(l *Library, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("open browser requires a url and a browser alias")
		}
		_, err := l.OpenBrowser(args[0], args[1], args[2:]...)
		return err
	},
	"switch browser": func(l *Library, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("switch browser requires a session selector")
		}
		return l.SwitchBrowser(args[0])
	},
	"close browser": func(l *Library, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("close browser takes no arguments")
		}
		return l.CloseBrowser()
	},
	"close remote browser": func(l *Library, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("close remote browser takes no arguments")
		}
		return l.CloseRemoteBrowser()
	},
	"close all browsers": func(l *Library, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("close all browsers takes no arguments")
		}
		return l.CloseAllBrowsers()
	},
	"return browser": func(l *Library, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("return browser takes no arguments")
		}
		d := l.ReturnBrowser()
		if d == nil {
			l.log.Infof("return browser: no open session")
			return nil
		}
		l.log.Infof("current browser: %s at %s", d.Capabilities().BrowserName(), d.CurrentURL())
		return nil
	},
	// HEAD results are taken at face value by default; pass a third
	// argument of "false" to re-check 404/405 responses with a GET.
	"verify links": func(l *Library, args []string) error {
		url := CurrentPage
		logAll := false
		headerOnly := true

		if len(args) > 0 && args[0] != "" {
			url = args[0]
		}
		var err error
		if len(args) > 1 {
			if logAll, err = strconv.ParseBool(args[1]); err != nil {
				return fmt.Errorf("verify links: invalid log-all flag %q", args[1])
			}
		}
		if len(args) > 2 {
			if headerOnly, err = strconv.ParseBool(args[2]); err != nil {
				return fmt.Errorf("verify links: invalid header-only flag %q", args[2])
			}
		}
		if len(args) > 3 {
			return fmt.Errorf("verify links takes at most three arguments")
		}
		return l.VerifyLinks(url, logAll, headerOnly)
	},
}

// Run dispatches a keyword by its test-framework name.
func (l *Library) Run(name string, args ...string) error {
	fn, ok := keywordTable[normalizeKeyword(name)]
	if !ok {
		return fmt.Errorf("unknown keyword %q", name)
	}
	return fn(l, args)
}

// Keywords returns the names of all registered keywords.
func Keywords() []string {
	names := make([]string, 0, len(keywordTable))
	for name := range keywordTable {
		names = append(names, name)
	}
	return names
}

func normalizeKeyword(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
