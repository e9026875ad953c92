package state

import "fmt"

// SearchHighlighted reports whether search matches are currently highlighted.
func (s *Store) SearchHighlighted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := s.values[KeySearchNodeHighlighted].(bool)
	return b
}

// SetSearchHighlighted writes KeySearchNodeHighlighted.
func (s *Store) SetSearchHighlighted(on bool) error {
	return s.Set(KeySearchNodeHighlighted, on)
}

// SelectedSidebar returns the identifier of the selected sidebar.
func (s *Store) SelectedSidebar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	str, _ := s.values[KeySelectedSidebar].(string)
	return str
}

// SelectSidebar writes KeySelectedSidebar.
func (s *Store) SelectSidebar(id string) error {
	return s.Set(KeySelectedSidebar, id)
}

// Panel returns the panel stored under one of the panel keys, or nil.
func (s *Store) Panel(key Key) (*Panel, error) {
	if !isPanelKey(key) {
		return nil, fmt.Errorf("%w: %q is not a panel key", ErrInvalidKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.values[key].(*Panel)
	return p, nil
}

// SetPanel writes p under one of the panel keys.
func (s *Store) SetPanel(key Key, p *Panel) error {
	if !isPanelKey(key) {
		return fmt.Errorf("%w: %q is not a panel key", ErrInvalidKey, key)
	}
	return s.Set(key, p)
}

func isPanelKey(key Key) bool {
	return key == KeySearchSidebarPanel || key == KeyNodeSidebarPanel || key == KeyGraphOverviewSidebarPanel
}
