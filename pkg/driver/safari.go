package driver

import "sync"

// WindowSet tracks open Safari windows. Safari's automation runtime
// refuses new sessions while stale window state lingers, so the close
// keywords clear this set whenever a Safari handle is torn down.
type WindowSet struct {
	mu      sync.Mutex
	windows map[Driver]struct{}
}

// OpenWindows is the process-wide Safari window tracking set.
var OpenWindows = &WindowSet{windows: make(map[Driver]struct{})}

// Add records an open Safari window for the driver.
func (s *WindowSet) Add(d Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[d] = struct{}{}
}

// Remove drops the driver's window record, if any.
func (s *WindowSet) Remove(d Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, d)
}

// Clear empties the set.
func (s *WindowSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[Driver]struct{})
}

// Len returns the number of tracked windows.
func (s *WindowSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
