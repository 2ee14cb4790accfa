package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	title       string
	data        map[string]interface{}
	validateErr error
}

func (m *mockSection) ID() string                                { return m.id }
func (m *mockSection) Title() string                             { return m.title }
func (m *mockSection) Description() string                       { return "mock section" }
func (m *mockSection) Data() map[string]interface{}              { return m.data }
func (m *mockSection) SetData(data map[string]interface{}) error { m.data = data; return nil }
func (m *mockSection) Validate() error                           { return m.validateErr }
func (m *mockSection) Reset()                                    { m.data = make(map[string]interface{}) }

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saved    bool
}

func newMockStore() *mockStore {
	return &mockStore{
		sections: make(map[string]map[string]interface{}),
	}
}

func (m *mockStore) Load() error { return m.loadErr }
func (m *mockStore) Save() error { m.saved = true; return m.saveErr }

func (m *mockStore) GetSection(sectionID string) (map[string]interface{}, error) {
	if data, exists := m.sections[sectionID]; exists {
		return data, nil
	}
	return make(map[string]interface{}), nil
}

func (m *mockStore) SetSection(sectionID string, data map[string]interface{}) error {
	m.sections[sectionID] = data
	return nil
}

func TestNewManager(t *testing.T) {
	store := newMockStore()
	manager := NewManager(store)

	require.NotNil(t, manager)
	assert.Equal(t, store, manager.Store())
	assert.Empty(t, manager.GetSections())
}

func TestManager_RegisterSection(t *testing.T) {
	t.Run("registers section successfully", func(t *testing.T) {
		manager := NewManager(newMockStore())
		section := &mockSection{id: "test", title: "Test"}

		require.NoError(t, manager.RegisterSection(section))

		retrieved, ok := manager.GetSection("test")
		require.True(t, ok)
		assert.Equal(t, "test", retrieved.ID())
	})

	t.Run("prevents duplicate registration", func(t *testing.T) {
		manager := NewManager(newMockStore())
		require.NoError(t, manager.RegisterSection(&mockSection{id: "test"}))

		err := manager.RegisterSection(&mockSection{id: "test"})
		assert.Error(t, err)
	})

	t.Run("maintains registration order", func(t *testing.T) {
		manager := NewManager(newMockStore())
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, manager.RegisterSection(&mockSection{id: id}))
		}

		sections := manager.GetSections()
		require.Len(t, sections, 3)
		assert.Equal(t, "c", sections[0].ID())
		assert.Equal(t, "a", sections[1].ID())
		assert.Equal(t, "b", sections[2].ID())
	})
}

func TestManager_LoadAll(t *testing.T) {
	store := newMockStore()
	store.sections["test"] = map[string]interface{}{"key": "value"}

	manager := NewManager(store)
	section := &mockSection{id: "test"}
	require.NoError(t, manager.RegisterSection(section))

	require.NoError(t, manager.LoadAll())
	assert.Equal(t, "value", section.data["key"])
}

func TestManager_LoadAll_KeepsDefaultsWhenEmpty(t *testing.T) {
	manager := NewManager(newMockStore())
	section := &mockSection{id: "test", data: map[string]interface{}{"key": "default"}}
	require.NoError(t, manager.RegisterSection(section))

	require.NoError(t, manager.LoadAll())
	assert.Equal(t, "default", section.data["key"])
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("persists section data", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		section := &mockSection{id: "test", data: map[string]interface{}{"key": "value"}}
		require.NoError(t, manager.RegisterSection(section))

		require.NoError(t, manager.SaveAll())
		assert.True(t, store.saved)
		assert.Equal(t, "value", store.sections["test"]["key"])
	})

	t.Run("rejects invalid sections", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		section := &mockSection{id: "test", validateErr: assert.AnError}
		require.NoError(t, manager.RegisterSection(section))

		err := manager.SaveAll()
		assert.Error(t, err)
		assert.False(t, store.saved)
	})
}
