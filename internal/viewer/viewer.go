// Package viewer implements the interactive behaviors of the SBOM graph
// viewer: sidebar and panel selection, color schemes, grouping, physics,
// isolate hiding, search highlighting and export.
//
// A Viewer mutates the graph and publishes UI state through a state.Store.
// It never writes to the store while holding its own lock, so store
// subscribers may call back into the Viewer.
package viewer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/latebit/sbomvis/internal/config"
	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/palette"
	"github.com/latebit/sbomvis/internal/state"
)

// Network is the rendering surface the viewer drives.
type Network interface {
	PhysicsEnabled() bool
	SetPhysics(enabled bool)
	// Fit brings the given nodes into view; nil means every node.
	Fit(ids []string)
}

// Button IDs returned by Toolbar.
const (
	ButtonSidebar  = "sidebarToggle"
	ButtonPhysics  = "physicsToggle"
	ButtonSearch   = "searchButton"
	ButtonZoom     = "zoomToView"
	ButtonIsolates = "isolatesToggle"
	ButtonGrouping = "groupingToggle"
	ButtonExport   = "exportImage"
	ButtonTheme    = "themeToggle"
)

// Button is the current presentation of a toolbar control.
type Button struct {
	ID    string
	Icon  string
	Title string
}

// Options configures a Viewer.
type Options struct {
	Colors   config.Colors
	Theme    string   // dark, light, auto
	Grouping Grouping // initial grouping, default GroupByDirectory
	// PrefersDark resolves the "auto" theme. Nil means dark.
	PrefersDark func() bool
	Logger      *slog.Logger
}

// Viewer binds a graph, the UI state store and a rendering surface.
type Viewer struct {
	graph *graph.Graph
	store *state.Store
	net   Network
	opts  Options
	log   *slog.Logger

	mu               sync.Mutex
	sidebarOpen      bool
	isolatesVisible  bool
	grouping         Grouping
	scheme           palette.Scheme
	highlighted      map[string]bool
	lastSearch       string
	lastSearchResult []Match
}

// New creates a Viewer and applies the initial grouping and color scheme.
func New(g *graph.Graph, store *state.Store, net Network, opts Options) (*Viewer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.PrefersDark == nil {
		opts.PrefersDark = func() bool { return true }
	}
	if opts.Theme == "" {
		opts.Theme = palette.ModeAuto
	}
	if opts.Grouping == "" {
		opts.Grouping = GroupByDirectory
	}

	v := &Viewer{
		graph:           g,
		store:           store,
		net:             net,
		opts:            opts,
		log:             opts.Logger,
		isolatesVisible: true,
		highlighted:     make(map[string]bool),
	}
	if err := v.GroupGraph(opts.Grouping); err != nil {
		return nil, err
	}
	if err := v.SetColorScheme(opts.Theme); err != nil {
		return nil, err
	}
	return v, nil
}

// Graph returns the graph the viewer operates on.
func (v *Viewer) Graph() *graph.Graph { return v.graph }

// Store returns the UI state store.
func (v *Viewer) Store() *state.Store { return v.store }

// SidebarOpen reports whether the sidebar is open.
func (v *Viewer) SidebarOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sidebarOpen
}

// IsolatesVisible reports whether isolate nodes are currently shown.
func (v *Viewer) IsolatesVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isolatesVisible
}

// Grouping returns the active grouping.
func (v *Viewer) Grouping() Grouping {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.grouping
}

// Scheme returns the active color scheme.
func (v *Viewer) Scheme() palette.Scheme {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scheme
}

// Toolbar returns the icon and title of every control.
func (v *Viewer) Toolbar() []Button {
	v.mu.Lock()
	defer v.mu.Unlock()

	sidebar := Button{ID: ButtonSidebar, Icon: "▶", Title: "Open sidebar"}
	if v.sidebarOpen {
		sidebar = Button{ID: ButtonSidebar, Icon: "◀", Title: "Close sidebar"}
	}
	physics := Button{ID: ButtonPhysics, Icon: "▶", Title: "Enable physics"}
	if v.net.PhysicsEnabled() {
		physics = Button{ID: ButtonPhysics, Icon: "⏸", Title: "Disable physics"}
	}
	isolates := Button{ID: ButtonIsolates, Icon: "◌", Title: "Show isolates"}
	if v.isolatesVisible {
		isolates = Button{ID: ButtonIsolates, Icon: "◉", Title: "Hide isolates"}
	}

	return []Button{
		sidebar,
		physics,
		{ID: ButtonSearch, Icon: "⌕", Title: "Search"},
		{ID: ButtonZoom, Icon: "⤢", Title: "Zoom to view"},
		isolates,
		v.grouping.button(),
		{ID: ButtonExport, Icon: "⇩", Title: "Export image"},
		{ID: ButtonTheme, Icon: v.scheme.Icon, Title: v.scheme.Tooltip},
	}
}

func (v *Viewer) openSidebar() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.sidebarOpen {
		v.sidebarOpen = true
		v.log.Debug("sidebar opened")
	}
}

func (v *Viewer) publishPanel(key state.Key, sidebar string, p *state.Panel) error {
	if err := v.store.SetPanel(key, p); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	v.openSidebar()
	return v.store.SelectSidebar(sidebar)
}
