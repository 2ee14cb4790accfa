package session

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/entrhq/pilot/pkg/driver"
)

// NewSession is the selector that switches back to the most recently
// opened browser.
const NewSession = "NEW"

// OutOfRangeError is returned when a switch selector names a position
// outside the live session set.
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("session index %d out of range: %d open session(s)", e.Index, e.Count)
}

// Registry tracks every open browser session in opening order and
// designates one of them as current. All keyword operations act on the
// current session unless told otherwise.
type Registry struct {
	mu      sync.RWMutex
	handles []driver.Driver
	current int
}

// NewRegistry returns an empty registry with no current session.
func NewRegistry() *Registry {
	return &Registry{current: -1}
}

// Open records a newly opened session and makes it current. Nil
// handles and handles already present are ignored.
func (r *Registry) Open(d driver.Driver) {
	if d == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.handles {
		if h == d {
			r.current = i
			return
		}
	}
	r.handles = append(r.handles, d)
	r.current = len(r.handles) - 1
}

// Current returns the session keywords act on, or nil when no session
// is open.
func (r *Registry) Current() driver.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current < 0 || r.current >= len(r.handles) {
		return nil
	}
	return r.handles[r.current]
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// All returns the open sessions in opening order.
func (r *Registry) All() []driver.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]driver.Driver(nil), r.handles...)
}

// Switch changes the current session. The selector is either NewSession
// (case-insensitive), which selects the most recently opened session,
// or a 1-based position in the live session set. On any error the
// current session is left unchanged.
func (r *Registry) Switch(selector string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trimmed := strings.TrimSpace(selector)
	if strings.EqualFold(trimmed, NewSession) {
		if len(r.handles) == 0 {
			return &OutOfRangeError{Index: 0, Count: 0}
		}
		r.current = len(r.handles) - 1
		return nil
	}

	index, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("invalid session selector %q: expected %q or a session number", selector, NewSession)
	}
	if index < 1 || index > len(r.handles) {
		return &OutOfRangeError{Index: index, Count: len(r.handles)}
	}
	r.current = index - 1
	return nil
}

// Remove drops a session from the registry. Removing a session that is
// not present is a no-op. Removing the current session leaves the
// registry with no current session until the next Open or Switch.
func (r *Registry) Remove(d driver.Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.handles {
		if h != d {
			continue
		}
		r.handles = append(r.handles[:i], r.handles[i+1:]...)
		switch {
		case r.current == i:
			r.current = -1
		case r.current > i:
			r.current--
		}
		return
	}
}

// Clear drops every session and resets the current pointer.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = nil
	r.current = -1
}
