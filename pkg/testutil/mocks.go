package testutil

import (
	"errors"
	"sync"

	"github.com/Veraticus/past-midnight/pkg/input"
	"github.com/Veraticus/past-midnight/pkg/interfaces"
)

// MockStore is a thread-safe in-memory interfaces.Store that can be told to fail.
type MockStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
	sets   int
}

var _ interfaces.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{values: make(map[string]string)}
}

// Get implements interfaces.Store.
func (m *MockStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements interfaces.Store.
func (m *MockStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

// Put stores a raw value without counting it as a Set.
func (m *MockStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Value returns the raw stored value.
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// SetGetError makes Get fail with err.
func (m *MockStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// SetSetError makes Set fail with err.
func (m *MockStore) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// GetSetCount returns how many times Set was called.
func (m *MockStore) GetSetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// ErrStoreUnavailable is a canned persistence failure.
var ErrStoreUnavailable = errors.New("store unavailable")

// MockContainer records visibility changes.
type MockContainer struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
}

var _ interfaces.Container = (*MockContainer)(nil)

// NewMockContainer creates a hidden container.
func NewMockContainer() *MockContainer {
	return &MockContainer{}
}

// Show implements interfaces.Container.
func (m *MockContainer) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = true
	m.shows++
}

// Hide implements interfaces.Container.
func (m *MockContainer) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = false
	m.hides++
}

// Visible reports the current visibility.
func (m *MockContainer) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// GetShowCount returns how many times Show was called.
func (m *MockContainer) GetShowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}

// GetHideCount returns how many times Hide was called.
func (m *MockContainer) GetHideCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hides
}

// MockInputSource is an input.Source fed by Emit.
type MockInputSource struct {
	mu       sync.Mutex
	next     int
	handlers map[int]input.Handler
	order    []int
}

var _ input.Source = (*MockInputSource)(nil)

// NewMockInputSource creates a source without subscribers.
func NewMockInputSource() *MockInputSource {
	return &MockInputSource{handlers: make(map[int]input.Handler)}
}

// Subscribe implements input.Source.
func (m *MockInputSource) Subscribe(h input.Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := m.next
	m.handlers[id] = h
	m.order = append(m.order, id)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// Emit delivers ev to every subscriber synchronously, in subscription order.
func (m *MockInputSource) Emit(ev input.Event) {
	m.mu.Lock()
	var hs []input.Handler
	for _, id := range m.order {
		if h, ok := m.handlers[id]; ok {
			hs = append(hs, h)
		}
	}
	m.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (m *MockInputSource) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}
