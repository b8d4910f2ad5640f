package history

import (
	"sync"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Entry is a history entry.
type Entry struct {
	State *router.State `json:"state,omitempty"`
	Title string        `json:"title,omitempty"`
	URL   string        `json:"url"`
}

// Memory is an in-memory session history: a stack of entries with a cursor.
// Back, Forward and Go move the cursor and fire popstate events.
type Memory struct {
	mu        sync.Mutex
	base      string
	entries   []Entry
	index     int
	listeners []router.PopstateListener
}

var _ router.History = (*Memory)(nil)

// MemoryOption configures a Memory history.
type MemoryOption func(*Memory)

// WithBasePath sets the value returned by Base.
func WithBasePath(base string) MemoryOption {
	return func(m *Memory) {
		m.base = base
	}
}

// NewMemory creates a history whose single entry has the given URL.
func NewMemory(initialURL string, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: []Entry{{URL: initialURL}},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Base() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.base
}

func (m *Memory) Location(opts router.LocationOptions) string {
	return Locate(m.Current().URL, opts)
}

// PushState drops the entries after the cursor and appends a new one.
func (m *Memory) PushState(state *router.State, title, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], Entry{State: state, Title: title, URL: url})
	m.index = len(m.entries) - 1
}

func (m *Memory) ReplaceState(state *router.State, title, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = Entry{State: state, Title: title, URL: url}
}

func (m *Memory) AddPopstateListener(l router.PopstateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Memory) RemovePopstateListener(l router.PopstateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Back moves one entry back. It reports false at the first entry.
func (m *Memory) Back() bool {
	return m.Go(-1)
}

// Forward moves one entry forward. It reports false at the last entry.
func (m *Memory) Forward() bool {
	return m.Go(1)
}

// Go moves the cursor by delta entries and fires a popstate event with the state of
// the new current entry. It reports false, without moving, when the target is out
// of range or delta is zero.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	evt := router.PopstateEvent{State: m.entries[target].State}
	listeners := append([]router.PopstateListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l.OnPopState(evt)
	}
	return true
}

// Current returns the current entry.
func (m *Memory) Current() Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Entries returns a copy of all entries and the cursor position.
func (m *Memory) Entries() ([]Entry, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...), m.index
}
