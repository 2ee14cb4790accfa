package driver

// xhrMonitorScript instruments XMLHttpRequest and fetch so that
// synchronization keywords can observe in-flight network traffic via
// window.__pilotPendingRequests.
const xhrMonitorScript = `(() => {
  if (window.__pilotPendingRequests !== undefined) return;
  window.__pilotPendingRequests = 0;

  const send = XMLHttpRequest.prototype.send;
  XMLHttpRequest.prototype.send = function (...args) {
    window.__pilotPendingRequests++;
    this.addEventListener('loadend', () => {
      window.__pilotPendingRequests--;
    });
    return send.apply(this, args);
  };

  const origFetch = window.fetch;
  if (origFetch) {
    window.fetch = function (...args) {
      window.__pilotPendingRequests++;
      return origFetch.apply(this, args).finally(() => {
        window.__pilotPendingRequests--;
      });
    };
  }
})();`

// initScripter is implemented by drivers that can install scripts
// evaluated before any page script runs.
type initScripter interface {
	InstallInitScript(script string) error
}

// StartXHRMonitor installs the network-traffic monitor on the driver's
// pages. Grid sessions carry their own instrumentation, so drivers
// without init-script support are a no-op.
func StartXHRMonitor(d Driver) error {
	s, ok := d.(initScripter)
	if !ok {
		return nil
	}
	return s.InstallInitScript(xhrMonitorScript)
}
