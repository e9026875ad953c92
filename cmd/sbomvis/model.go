package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/latebit/sbomvis/internal/config"
	"github.com/latebit/sbomvis/internal/export"
	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/sbom"
	"github.com/latebit/sbomvis/internal/state"
	"github.com/latebit/sbomvis/internal/viewer"
)

// stateMsg carries a store write into the update loop.
type stateMsg struct {
	key   state.Key
	value any
}

// reloadMsg is sent by the file watcher when an input SBOM changes.
type reloadMsg struct {
	path string
}

type reloadResult struct {
	viewer *viewer.Viewer
	err    error
}

type model struct {
	viewer  *viewer.Viewer
	store   *state.Store
	net     *termNetwork
	cfg     *config.Config
	log     *slog.Logger
	paths   []string
	updates chan tea.Msg

	items     []graphListItem
	graphIdx  int
	graphPane viewport.Model
	sidebar   viewport.Model
	search    textinput.Model
	searching bool

	status string
	err    error
	width  int
	height int
	ready  bool
}

// newModel wires the store to the update loop. Store listeners only queue
// messages; rendering happens in Update.
func newModel(v *viewer.Viewer, net *termNetwork, cfg *config.Config, paths []string, logger *slog.Logger) (model, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ti := textinput.New()
	ti.Placeholder = "search nodes"
	ti.Prompt = "/ "

	m := model{
		viewer:  v,
		store:   v.Store(),
		net:     net,
		cfg:     cfg,
		log:     logger,
		paths:   paths,
		updates: make(chan tea.Msg, 64),
		search:  ti,
	}
	for _, key := range []state.Key{state.KeySelectedSidebar, state.KeySearchNodeHighlighted} {
		if _, err := m.store.Subscribe(key, m.forward(key)); err != nil {
			return m, err
		}
	}
	m.items = flattenGraph(v.Graph(), net.Focus())
	return m, nil
}

func (m model) forward(key state.Key) state.Listener {
	updates := m.updates
	log := m.log
	return func(value any) error {
		select {
		case updates <- stateMsg{key: key, value: value}:
		default:
			log.Warn("state update dropped", "key", string(key))
		}
		return nil
	}
}

func (m model) waitForState() tea.Cmd {
	updates := m.updates
	return func() tea.Msg { return <-updates }
}

func (m model) Init() tea.Cmd {
	return m.waitForState()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.ready {
			var cmd tea.Cmd
			m.graphPane, cmd = m.graphPane.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		m.applyState(msg)
		return m, m.waitForState()

	case reloadMsg:
		m.status = "reloading " + msg.path
		return m, m.reload()

	case reloadResult:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		previous := m.viewer
		m.viewer = msg.viewer
		// Highlights belong to the previous graph.
		m.setErr(m.store.SetSearchHighlighted(false))
		m.refreshPanels(previous)
		m.status = fmt.Sprintf("reloaded %d nodes", m.viewer.Graph().NodeCount())
		m.refreshGraph()
		m.layout()
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "s":
		m.viewer.ToggleSidebar()
		m.layout()
	case "p":
		if m.viewer.TogglePhysics() {
			m.status = "physics on"
		} else {
			m.status = "physics off"
		}
		m.refreshGraph()
	case "/":
		m.searching = true
		m.search.SetValue("")
		m.search.Focus()
		return m, textinput.Blink
	case "c":
		m.setErr(m.viewer.ClearHighlight())
		m.refreshGraph()
	case "z":
		m.zoom()
	case "i":
		n := m.viewer.ToggleIsolates()
		m.status = fmt.Sprintf("%d isolates toggled", n)
		m.refreshGraph()
	case "g":
		g := m.viewer.ToggleGrouping()
		m.status = "grouped by " + string(g)
		m.refreshGraph()
	case "t":
		s := m.viewer.ToggleTheme()
		m.status = s.Mode + " mode"
		m.refreshGraph()
		m.renderSidebar()
	case "e":
		m.exportGraph()
	case "o":
		m.setErr(m.viewer.ShowOverview())
	case "x":
		if m.graphIdx >= 0 && m.graphIdx < len(m.items) && !m.items[m.graphIdx].header {
			item := m.items[m.graphIdx]
			m.setErr(m.viewer.HideNode(item.id))
			m.status = "hid " + item.label
			m.refreshGraph()
		}
	case "X":
		n := m.viewer.ShowHiddenNodes()
		m.status = fmt.Sprintf("%d hidden nodes shown", n)
		m.refreshGraph()
	case "enter":
		if m.graphIdx >= 0 && m.graphIdx < len(m.items) && !m.items[m.graphIdx].header {
			m.setErr(m.viewer.SelectNode(m.items[m.graphIdx].id))
		}
	case "j", "down":
		if m.graphIdx < len(m.items)-1 {
			m.graphIdx++
			m.renderGraph()
		}
	case "k", "up":
		if m.graphIdx > 0 {
			m.graphIdx--
			m.renderGraph()
		}
	default:
		if m.ready {
			var cmd tea.Cmd
			m.graphPane, cmd = m.graphPane.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		matches, err := m.viewer.Search(m.search.Value())
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		ids := make([]string, len(matches))
		for i, match := range matches {
			ids[i] = match.ID
		}
		m.setErr(m.viewer.HighlightNodes(ids))
		m.status = fmt.Sprintf("%d matches", len(matches))
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// zoom fits the highlighted search matches, or every node.
func (m *model) zoom() {
	var ids []string
	if m.store.SearchHighlighted() {
		_, matches := m.viewer.LastSearch()
		for _, match := range matches {
			if m.viewer.Highlighted(match.ID) {
				ids = append(ids, match.ID)
			}
		}
	}
	if ids == nil {
		m.status = "showing all nodes"
	} else {
		m.status = fmt.Sprintf("zoomed to %d nodes", len(ids))
	}
	m.viewer.ZoomToView(ids)
	m.graphIdx = 0
	m.refreshGraph()
}

func (m *model) exportGraph() {
	f, err := export.ParseFormat(m.cfg.ExportFormat)
	if err != nil {
		m.setErr(err)
		return
	}
	path, err := m.viewer.ExportImage(m.cfg.ExportPath, f)
	if err != nil {
		m.setErr(err)
		return
	}
	m.status = "exported " + path
}

func (m *model) setErr(err error) {
	m.err = err
	if err != nil {
		m.log.Error("action failed", "error", err)
	}
}

func (m *model) applyState(msg stateMsg) {
	m.log.Debug("state changed", "key", string(msg.key), "state", m.store)
	switch msg.key {
	case state.KeySelectedSidebar:
		m.layout()
	case state.KeySearchNodeHighlighted:
		if on, _ := msg.value.(bool); !on {
			m.status = "highlight cleared"
		}
		m.refreshGraph()
	}
}

// reload rebuilds the graph from the input files. The new viewer shares
// the store and keeps the current theme, grouping, isolate visibility and
// sidebar state.
func (m model) reload() tea.Cmd {
	paths := m.paths
	store := m.store
	net := m.net
	logger := m.log
	cfg := *m.cfg
	cfg.Theme = m.viewer.Scheme().Mode
	cfg.Grouping = string(m.viewer.Grouping())
	cfg.HideIsolates = !m.viewer.IsolatesVisible()
	sidebarOpen := m.viewer.SidebarOpen()

	return func() tea.Msg {
		docs, err := sbom.LoadAll(paths)
		if err != nil {
			return reloadResult{err: err}
		}
		v, err := newViewer(graph.Build(docs, logger), store, net, &cfg, logger)
		if err != nil {
			return reloadResult{err: err}
		}
		if sidebarOpen {
			v.ToggleSidebar()
		}
		return reloadResult{viewer: v}
	}
}

// refreshPanels republishes the selected panel against the reloaded graph.
// A node that no longer exists clears the node panel.
func (m *model) refreshPanels(previous *viewer.Viewer) {
	open := m.viewer.SidebarOpen()

	var err error
	switch m.store.SelectedSidebar() {
	case state.SidebarSearch:
		if query, _ := previous.LastSearch(); query != "" {
			_, err = m.viewer.Search(query)
		}
	case state.SidebarNode:
		p, _ := m.store.Panel(state.KeyNodeSidebarPanel)
		if p == nil {
			break
		}
		if _, ok := m.viewer.Graph().GetNode(p.ID); ok {
			err = m.viewer.SelectNode(p.ID)
		} else if err = m.store.SetPanel(state.KeyNodeSidebarPanel, nil); err == nil {
			err = m.store.SelectSidebar(state.SidebarNone)
		}
	case state.SidebarOverview:
		err = m.viewer.ShowOverview()
	}
	m.setErr(err)

	if !open && m.viewer.SidebarOpen() {
		m.viewer.ToggleSidebar()
	}
}

// refreshGraph rebuilds the graph pane. With physics off the current order
// is kept.
func (m *model) refreshGraph() {
	fresh := flattenGraph(m.viewer.Graph(), m.net.Focus())
	if m.net.PhysicsEnabled() || len(m.items) == 0 {
		m.items = fresh
	} else {
		m.items = keepOrder(m.items, fresh)
	}
	if m.graphIdx >= len(m.items) {
		m.graphIdx = max(0, len(m.items)-1)
	}
	m.renderGraph()
}

func (m *model) renderGraph() {
	if m.ready {
		m.graphPane.SetContent(renderGraphView(m.items, m.graphIdx, m.graphPane.Width))
	}
}

func (m *model) layout() {
	if m.width == 0 {
		return
	}
	headerHeight := 2 // toolbar + divider
	footerHeight := 1 // status bar
	paneHeight := max(1, m.height-headerHeight-footerHeight)

	graphWidth := m.width
	sidebarWidth := 0
	if m.viewer.SidebarOpen() {
		sidebarWidth = m.width * 2 / 5
		graphWidth = m.width - sidebarWidth - 1
	}

	if !m.ready {
		m.graphPane = viewport.New(graphWidth, paneHeight)
		m.sidebar = viewport.New(sidebarWidth, paneHeight)
		m.ready = true
	} else {
		m.graphPane.Width = graphWidth
		m.graphPane.Height = paneHeight
		m.sidebar.Width = sidebarWidth
		m.sidebar.Height = paneHeight
	}
	m.search.Width = m.width - 4
	m.renderGraph()
	m.renderSidebar()
}

// selectedPanel returns the panel of the selected sidebar.
func (m model) selectedPanel() *state.Panel {
	var key state.Key
	switch m.store.SelectedSidebar() {
	case state.SidebarSearch:
		key = state.KeySearchSidebarPanel
	case state.SidebarNode:
		key = state.KeyNodeSidebarPanel
	case state.SidebarOverview:
		key = state.KeyGraphOverviewSidebarPanel
	default:
		return nil
	}
	p, _ := m.store.Panel(key)
	return p
}

func (m *model) renderSidebar() {
	if !m.ready || m.sidebar.Width == 0 {
		return
	}
	p := m.selectedPanel()
	if p == nil {
		m.sidebar.SetContent("\n  Press / to search, o for an overview\n  or enter on a node.\n")
		return
	}
	rendered, err := renderMarkdown(p.Body, m.sidebar.Width, m.viewer.Scheme().Mode)
	if err != nil {
		m.sidebar.SetContent(p.Body)
	} else {
		m.sidebar.SetContent(rendered)
	}
	m.sidebar.GotoTop()
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.toolbarView())
	b.WriteByte('\n')
	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(strings.Repeat("─", m.width))
	}
	b.WriteByte('\n')

	if m.viewer.SidebarOpen() {
		divider := lipgloss.NewStyle().
			Height(m.graphPane.Height).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			Render("")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.graphPane.View(), divider, m.sidebar.View()))
	} else {
		b.WriteString(m.graphPane.View())
	}
	b.WriteByte('\n')
	b.WriteString(m.statusBarView())
	return b.String()
}

var toolbarKeys = map[string]string{
	viewer.ButtonSidebar:  "s",
	viewer.ButtonPhysics:  "p",
	viewer.ButtonSearch:   "/",
	viewer.ButtonZoom:     "z",
	viewer.ButtonIsolates: "i",
	viewer.ButtonGrouping: "g",
	viewer.ButtonExport:   "e",
	viewer.ButtonTheme:    "t",
}

func (m model) toolbarView() string {
	parts := make([]string, 0, 8)
	for _, btn := range m.viewer.Toolbar() {
		parts = append(parts, fmt.Sprintf("%s %s [%s]", btn.Icon, btn.Title, toolbarKeys[btn.ID]))
	}
	return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(strings.Join(parts, "  "))
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().Width(m.width).Padding(0, 1)

	if m.err != nil {
		return style.Foreground(lipgloss.Color("9")).Render("Error: " + m.err.Error())
	}
	g := m.viewer.Graph()
	parts := []string{fmt.Sprintf("%d nodes  %d edges", g.NodeCount(), g.EdgeCount())}
	if m.store.SearchHighlighted() {
		parts = append(parts, "(highlighted)")
	}
	if m.net.Focus() != nil {
		parts = append(parts, "(zoomed)")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, "[o] overview  [enter] details  [x/X] hide/show  [c] clear  [q] quit")
	return style.Faint(true).Render(strings.Join(parts, "  "))
}

func renderMarkdown(body string, width int, mode string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(mode),
		glamour.WithWordWrap(max(10, width-4)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}
