package main

import "sync"

// termNetwork is the terminal rendering surface. With physics enabled the
// graph pane is re-laid out after every change; with physics disabled the
// current order is frozen. Fit limits the pane to a set of nodes.
type termNetwork struct {
	mu      sync.Mutex
	physics bool
	focus   []string
}

func newTermNetwork(physics bool) *termNetwork {
	return &termNetwork{physics: physics}
}

func (n *termNetwork) PhysicsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.physics
}

func (n *termNetwork) SetPhysics(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.physics = enabled
}

func (n *termNetwork) Fit(ids []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ids == nil {
		n.focus = nil
		return
	}
	n.focus = append([]string{}, ids...)
}

// Focus returns the nodes the pane is limited to, or nil for all.
func (n *termNetwork) Focus() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.focus == nil {
		return nil
	}
	return append([]string{}, n.focus...)
}
