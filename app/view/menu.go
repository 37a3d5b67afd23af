package view

import "sync"

// Menu tracks the slide menu. It starts hidden.
type Menu struct {
	mu     sync.Mutex
	hidden bool
}

func NewMenu() *Menu {
	return &Menu{hidden: true}
}

func (m *Menu) Hidden() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hidden
}

// Toggle flips the menu and returns whether it is now hidden.
func (m *Menu) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hidden = !m.hidden
	return m.hidden
}
