package widget

import "sync"

// Sidebar is the collapsible navigation menu and the backdrop that covers
// the page while it is open on narrow screens.
type Sidebar struct {
	mu       sync.Mutex
	menu     Toggle
	backdrop Toggle
}

// SidebarState is a snapshot of the sidebar.
type SidebarState struct {
	Open     bool `json:"open"`
	Backdrop bool `json:"backdrop"`
}

// ToggleMenu flips the menu and the backdrop together.
func (s *Sidebar) ToggleMenu() SidebarState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu.Toggle()
	s.backdrop.Toggle()
	return s.state()
}

// DismissBackdrop closes the menu and hides the backdrop, whatever their state.
func (s *Sidebar) DismissBackdrop() SidebarState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu.Close()
	s.backdrop.Close()
	return s.state()
}

// State returns the current snapshot.
func (s *Sidebar) State() SidebarState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Sidebar) state() SidebarState {
	return SidebarState{Open: s.menu.IsOpen(), Backdrop: s.backdrop.IsOpen()}
}
