// Package widget holds the interactive state of the dashboard: the chat
// panel with its simulated typing delay and the collapsible sidebar.
// All types are safe for concurrent use.
package widget

import "sync"

// Toggle is a two-state Closed/Open switch. The zero value is Closed.
type Toggle struct {
	mu   sync.RWMutex
	open bool
}

// Toggle flips the state and returns whether it is now open.
func (t *Toggle) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = !t.open
	return t.open
}

// Open forces the Open state.
func (t *Toggle) Open() {
	t.mu.Lock()
	t.open = true
	t.mu.Unlock()
}

// Close forces the Closed state.
func (t *Toggle) Close() {
	t.mu.Lock()
	t.open = false
	t.mu.Unlock()
}

// IsOpen reports the current state.
func (t *Toggle) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open
}
