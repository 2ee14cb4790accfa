package session

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pilot/pkg/driver"
)

// stubDriver satisfies driver.Driver with no behavior. The registry
// only cares about handle identity.
type stubDriver struct {
	name string
}

func (s *stubDriver) Navigate(string) error                        { return nil }
func (s *stubDriver) CurrentURL() string                           { return "" }
func (s *stubDriver) Capabilities() driver.Capabilities            { return nil }
func (s *stubDriver) FindElements(string) ([]driver.Element, error) { return nil, nil }
func (s *stubDriver) Close() error                                 { return nil }
func (s *stubDriver) Quit() error                                  { return nil }

func TestRegistry_OpenMakesCurrent(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Current())
	assert.Equal(t, 0, r.Count())

	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}

	r.Open(first)
	assert.Same(t, first, r.Current())

	r.Open(second)
	assert.Same(t, second, r.Current())
	assert.Equal(t, 2, r.Count())
}

func TestRegistry_OpenIgnoresNilAndDuplicates(t *testing.T) {
	r := NewRegistry()
	d := &stubDriver{}

	r.Open(nil)
	assert.Equal(t, 0, r.Count())

	r.Open(d)
	r.Open(d)
	assert.Equal(t, 1, r.Count())
	assert.Same(t, d, r.Current())
}

func TestRegistry_OpenExistingBecomesCurrent(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	r.Open(first)
	r.Open(second)

	// Re-opening an already tracked handle selects it without growing
	// the set.
	r.Open(first)
	assert.Equal(t, 2, r.Count())
	assert.Same(t, first, r.Current())
}

func TestRegistry_Switch(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	third := &stubDriver{name: "third"}
	r.Open(first)
	r.Open(second)
	r.Open(third)

	require.NoError(t, r.Switch("1"))
	assert.Same(t, first, r.Current())

	require.NoError(t, r.Switch("2"))
	assert.Same(t, second, r.Current())

	require.NoError(t, r.Switch("NEW"))
	assert.Same(t, third, r.Current())

	// Selector matching is case-insensitive and whitespace tolerant
	require.NoError(t, r.Switch(" new "))
	assert.Same(t, third, r.Current())
}

func TestRegistry_SwitchOutOfRange(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	r.Open(first)
	r.Open(second)
	require.NoError(t, r.Switch("1"))

	err := r.Switch("3")
	require.Error(t, err)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 3, oor.Index)
	assert.Equal(t, 2, oor.Count)

	err = r.Switch("0")
	require.Error(t, err)

	// Failed switches leave the current session untouched
	assert.Same(t, first, r.Current())
}

func TestRegistry_SwitchInvalidSelector(t *testing.T) {
	r := NewRegistry()
	r.Open(&stubDriver{})

	err := r.Switch("chrome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session selector")
}

func TestRegistry_SwitchEmptyRegistry(t *testing.T) {
	r := NewRegistry()

	err := r.Switch("NEW")
	require.Error(t, err)

	err = r.Switch("1")
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 0, oor.Count)
}

func TestRegistry_SwitchRenumbersAfterRemoval(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	third := &stubDriver{name: "third"}
	r.Open(first)
	r.Open(second)
	r.Open(third)

	r.Remove(second)

	// Positions refer to the live set, not opening history
	require.NoError(t, r.Switch("2"))
	assert.Same(t, third, r.Current())
}

func TestRegistry_RemoveCurrentLeavesNoCurrent(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	r.Open(first)
	r.Open(second)

	r.Remove(second)
	assert.Nil(t, r.Current())
	assert.Equal(t, 1, r.Count())

	// A later switch restores a current session
	require.NoError(t, r.Switch("1"))
	assert.Same(t, first, r.Current())
}

func TestRegistry_RemoveEarlierKeepsCurrent(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	third := &stubDriver{name: "third"}
	r.Open(first)
	r.Open(second)
	r.Open(third)

	r.Remove(first)
	assert.Same(t, third, r.Current())

	r.Remove(&stubDriver{name: "untracked"})
	assert.Equal(t, 2, r.Count())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Open(&stubDriver{})
	r.Open(&stubDriver{})

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Nil(t, r.Current())
	assert.Empty(t, r.All())
}

func TestRegistry_AllPreservesOpeningOrder(t *testing.T) {
	r := NewRegistry()
	first := &stubDriver{name: "first"}
	second := &stubDriver{name: "second"}
	r.Open(first)
	r.Open(second)
	require.NoError(t, r.Switch("1"))

	all := r.All()
	require.Len(t, all, 2)
	assert.Same(t, first, all[0])
	assert.Same(t, second, all[1])
}

// TestRegistry_RandomOperations drives the registry through random
// open/switch/remove sequences and checks that a current session
// exists exactly when it should and always belongs to the live set.
func TestRegistry_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewRegistry()
	var pool []*stubDriver

	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			d := &stubDriver{}
			pool = append(pool, d)
			r.Open(d)
			assert.Same(t, d, r.Current())
		case 1:
			if n := r.Count(); n > 0 {
				_ = r.Switch("NEW")
			}
		case 2:
			if n := r.Count(); n > 0 {
				err := r.Switch(strconv.Itoa(1 + rng.Intn(n)))
				assert.NoError(t, err)
			}
		case 3:
			if len(pool) > 0 {
				idx := rng.Intn(len(pool))
				r.Remove(pool[idx])
				pool = append(pool[:idx], pool[idx+1:]...)
			}
		}

		current := r.Current()
		if r.Count() == 0 {
			assert.Nil(t, current)
		}
		if current != nil {
			found := false
			for _, d := range r.All() {
				if d == current {
					found = true
					break
				}
			}
			assert.True(t, found, "current session must be in the live set")
		}
	}
}
