package keywords

import (
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
)

// CurrentPage tells VerifyLinks to check the page the current session
// is already on instead of navigating first.
const CurrentPage = "current"

// BrokenLinksError reports the links that failed verification.
type BrokenLinksError struct {
	URLs []string
}

func (e *BrokenLinksError) Error() string {
	return fmt.Sprintf("found %d broken link(s): %s", len(e.URLs), strings.Join(e.URLs, ", "))
}

// VerifyLinks checks every anchor on a page. The page is the current
// one when url is "current", otherwise the session navigates to url
// first. Each distinct http(s) link is requested once with a HEAD; a
// 404 or 405 is re-checked with a GET unless headerOnly is set, since
// some servers reject HEAD for resources a GET serves fine. Statuses
// in [400, 599] count as broken; statuses on the configured benign
// allowlist never do. With logAll every healthy link is logged too.
//
// Returns BrokenLinksError when any link is broken.
func (l *Library) VerifyLinks(url string, logAll, headerOnly bool) error {
	d := l.registry.Current()
	if d == nil {
		return fmt.Errorf("no open browser session")
	}

	if url != "" && !strings.EqualFold(url, CurrentPage) {
		if err := d.Navigate(url); err != nil {
			return err
		}
	}

	elements, err := d.FindElements("a[href]")
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		l.log.Warnf("no links found on %s", d.CurrentURL())
		return nil
	}

	base, err := neturl.Parse(d.CurrentURL())
	if err != nil {
		return fmt.Errorf("invalid page url %q: %w", d.CurrentURL(), err)
	}

	client := &http.Client{Timeout: l.links.GetTimeout()}
	checked := make(map[string]bool)
	var broken []string

	for _, el := range elements {
		href, err := el.Attribute("href")
		if err != nil || href == "" {
			continue
		}

		ref, err := neturl.Parse(strings.TrimSpace(href))
		if err != nil {
			l.log.Debugf("skipping unparsable href %q", href)
			continue
		}
		target := base.ResolveReference(ref)
		if target.Scheme != "http" && target.Scheme != "https" {
			l.log.Debugf("skipping non-http link %q", href)
			continue
		}

		link := target.String()
		if checked[link] {
			continue
		}
		checked[link] = true

		if l.links.IsExcluded(link) {
			l.log.Infof("link excluded by pattern: %s", link)
			continue
		}

		status, err := l.checkLink(client, link, headerOnly)
		if err != nil {
			l.log.Errorf("broken link %s: %v", link, err)
			broken = append(broken, link)
			continue
		}

		switch {
		case l.links.IsBenignStatus(status):
			l.log.Infof("link %s returned status %d (allowlisted)", link, status)
		case status >= 400 && status <= 599:
			l.log.Errorf("broken link %s: status %d", link, status)
			broken = append(broken, link)
		case logAll:
			l.log.Infof("link ok: %s (%d)", link, status)
		}
	}

	if len(broken) > 0 {
		return &BrokenLinksError{URLs: broken}
	}
	return nil
}

// checkLink requests the link and returns its status code. HEAD is
// tried first; 404 and 405 are re-checked with a GET unless headerOnly
// is set.
func (l *Library) checkLink(client *http.Client, link string, headerOnly bool) (int, error) {
	status, err := l.request(client, http.MethodHead, link)
	if err != nil {
		return 0, err
	}

	if !headerOnly && (status == http.StatusNotFound || status == http.StatusMethodNotAllowed) {
		return l.request(client, http.MethodGet, link)
	}
	return status, nil
}

func (l *Library) request(client *http.Client, method, link string) (int, error) {
	req, err := http.NewRequest(method, link, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", l.links.GetUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
