// Package state provides the observable key-value store that holds the
// viewer's UI state and notifies subscribers when a field is written.
//
// The set of keys is closed. Every key always holds a value, starting from
// the defaults returned by New. Writes notify synchronously, in registration
// order, on every call to Set, even when the value did not change.
package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Key identifies one of the recognized state fields.
type Key string

// Recognized keys.
const (
	KeySearchNodeHighlighted     Key = "isSearchNodeHighlighted"
	KeySearchSidebarPanel        Key = "searchSidebarPanel"
	KeyNodeSidebarPanel          Key = "nodeSidebarPanel"
	KeyGraphOverviewSidebarPanel Key = "graphOverviewSidebarPanel"
	KeySelectedSidebar           Key = "selectedSidebar"
)

// Sidebar identifiers stored under KeySelectedSidebar.
const (
	SidebarNone     = ""
	SidebarSearch   = "search"
	SidebarNode     = "node"
	SidebarOverview = "overview"
)

var (
	// ErrInvalidKey is returned when a key outside the recognized set is used.
	ErrInvalidKey = errors.New("invalid state key")
	// ErrInvalidValue is returned when a value has the wrong type for its key.
	ErrInvalidValue = errors.New("invalid state value")
)

// Panel is the content of a sidebar panel.
type Panel struct {
	ID    string
	Title string
	Body  string // markdown
}

// Listener is called with the new value after every write to its key.
// A non-nil error stops notification of the listeners registered after it.
type Listener func(value any) error

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	store *Store
	key   Key
	id    uint64
	fn    Listener

	removed bool // guarded by store.mu
}

// Unsubscribe removes the listener from the store. Calling it more than once
// has no effect.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.store == nil {
		return
	}
	sub.store.remove(sub.key, sub.id)
}

// Store holds the UI state. The zero value is not usable; create one with New.
type Store struct {
	mu        sync.Mutex
	values    map[Key]any
	listeners map[Key][]*Subscription
	nextID    uint64
}

var keys = []Key{
	KeySearchNodeHighlighted,
	KeySearchSidebarPanel,
	KeyNodeSidebarPanel,
	KeyGraphOverviewSidebarPanel,
	KeySelectedSidebar,
}

// Keys returns the recognized keys in declaration order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

func defaults() map[Key]any {
	return map[Key]any{
		KeySearchNodeHighlighted:     false,
		KeySearchSidebarPanel:        (*Panel)(nil),
		KeyNodeSidebarPanel:          (*Panel)(nil),
		KeyGraphOverviewSidebarPanel: (*Panel)(nil),
		KeySelectedSidebar:           SidebarNone,
	}
}

// New creates a store populated with default values.
func New() *Store {
	return &Store{
		values:    defaults(),
		listeners: make(map[Key][]*Subscription),
	}
}

// Set writes value under key and then calls every listener registered for
// key, in registration order, with the new value.
//
// The value is written before any listener runs. If a listener returns an
// error, the remaining listeners are skipped and the error is returned.
func (s *Store) Set(key Key, value any) error {
	v, err := normalize(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = v
	subs := make([]*Subscription, len(s.listeners[key]))
	copy(subs, s.listeners[key])
	s.mu.Unlock()

	for _, sub := range subs {
		// A listener earlier in this Set may have removed sub.
		s.mu.Lock()
		removed := sub.removed
		s.mu.Unlock()
		if removed {
			continue
		}
		if err := sub.fn(v); err != nil {
			return fmt.Errorf("state: listener for %s: %w", key, err)
		}
	}
	return nil
}

// Get returns the current value for key.
func (s *Store) Get(key Key) (any, error) {
	if !valid(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

// Subscribe registers fn to be called on every future Set of key.
func (s *Store) Subscribe(key Key, fn Listener) (*Subscription, error) {
	if !valid(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if fn == nil {
		return nil, errors.New("state: nil listener")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sub := &Subscription{store: s, key: key, id: s.nextID, fn: fn}
	s.listeners[key] = append(s.listeners[key], sub)
	return sub, nil
}

// Snapshot returns a copy of all current values.
func (s *Store) Snapshot() map[Key]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Key]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// LogValue renders the current values in key order, panels by ID.
func (s *Store) LogValue() slog.Value {
	snap := s.Snapshot()
	attrs := make([]slog.Attr, 0, len(snap))
	for _, k := range Keys() {
		switch v := snap[k].(type) {
		case *Panel:
			id := ""
			if v != nil {
				id = v.ID
			}
			attrs = append(attrs, slog.String(string(k), id))
		default:
			attrs = append(attrs, slog.Any(string(k), v))
		}
	}
	return slog.GroupValue(attrs...)
}

func (s *Store) remove(key Key, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.listeners[key]
	for i, sub := range subs {
		if sub.id == id {
			sub.removed = true
			// Copy so in-flight notifications keep iterating their own slice.
			next := make([]*Subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			s.listeners[key] = next
			return
		}
	}
}

func valid(key Key) bool {
	switch key {
	case KeySearchNodeHighlighted, KeySearchSidebarPanel, KeyNodeSidebarPanel,
		KeyGraphOverviewSidebarPanel, KeySelectedSidebar:
		return true
	}
	return false
}

// normalize checks value against the type expected for key. An untyped nil
// is accepted for panel keys and stored as a nil *Panel.
func normalize(key Key, value any) (any, error) {
	switch key {
	case KeySearchNodeHighlighted:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KeySelectedSidebar:
		if str, ok := value.(string); ok {
			return str, nil
		}
	case KeySearchSidebarPanel, KeyNodeSidebarPanel, KeyGraphOverviewSidebarPanel:
		if value == nil {
			return (*Panel)(nil), nil
		}
		if p, ok := value.(*Panel); ok {
			return p, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil, fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, key, value)
}
