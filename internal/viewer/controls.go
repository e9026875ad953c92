package viewer

import (
	"fmt"
	"strings"

	"github.com/latebit/sbomvis/internal/export"
	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/palette"
)

// Grouping selects how nodes are grouped and colored.
type Grouping string

// Groupings.
const (
	GroupByDirectory Grouping = "directory"
	GroupBySBOM      Grouping = "sbom"
)

// MultipleInstallPaths is the group of entries installed at several paths.
const MultipleInstallPaths = "<Multiple install paths>"

// ParseGrouping validates a grouping name.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(strings.ToLower(s)); g {
	case GroupByDirectory, GroupBySBOM:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping %q (want directory or sbom)", s)
}

// button shows the active grouping; the title names the mode a click
// switches to.
func (g Grouping) button() Button {
	if g == GroupBySBOM {
		return Button{ID: ButtonGrouping, Icon: "☷", Title: "Color by parent directory"}
	}
	return Button{ID: ButtonGrouping, Icon: "⬡", Title: "Color by SBOM"}
}

// ToggleSidebar opens or closes the sidebar and reports whether it is open.
func (v *Viewer) ToggleSidebar() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sidebarOpen = !v.sidebarOpen
	return v.sidebarOpen
}

// TogglePhysics flips the physics simulation and reports whether it is on.
func (v *Viewer) TogglePhysics() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.net.SetPhysics(!v.net.PhysicsEnabled())
	enabled := v.net.PhysicsEnabled()
	v.log.Debug("physics toggled", "enabled", enabled)
	return enabled
}

// ZoomToView fits the given nodes into view, or every node when ids is nil.
func (v *Viewer) ZoomToView(ids []string) {
	v.net.Fit(ids)
}

// ToggleIsolates hides or shows nodes without connections. Nodes hidden by
// user choice are left alone. It returns the number of nodes changed.
func (v *Viewer) ToggleIsolates() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := 0
	for _, id := range v.graph.Isolates() {
		v.graph.Update(id, func(n *graph.Node) {
			if n.UserHidden {
				return
			}
			n.Hidden = !n.Hidden
			changed++
		})
	}
	v.isolatesVisible = !v.isolatesVisible
	v.log.Debug("isolates toggled", "visible", v.isolatesVisible, "changed", changed)
	return changed
}

// HideNode hides node id by user choice. Toggling isolates does not bring
// it back; ShowHiddenNodes does.
func (v *Viewer) HideNode(id string) error {
	if !v.graph.Update(id, func(n *graph.Node) { n.UserHidden = true }) {
		return fmt.Errorf("node %q not found", id)
	}
	v.log.Debug("node hidden", "id", id)
	return nil
}

// ShowHiddenNodes shows every node hidden with HideNode and returns how
// many there were. Isolates stay hidden while isolates are toggled off.
func (v *Viewer) ShowHiddenNodes() int {
	shown := 0
	v.graph.UpdateAll(func(n *graph.Node) {
		if n.UserHidden {
			n.UserHidden = false
			shown++
		}
	})
	v.log.Debug("hidden nodes shown", "count", shown)
	return shown
}

// ToggleGrouping switches between directory and SBOM grouping and returns
// the new grouping.
func (v *Viewer) ToggleGrouping() Grouping {
	next := GroupBySBOM
	if v.Grouping() == GroupBySBOM {
		next = GroupByDirectory
	}
	if err := v.GroupGraph(next); err != nil {
		v.log.Warn("grouping failed", "grouping", string(next), "error", err)
		return v.Grouping()
	}
	return next
}

// GroupGraph assigns every node a group and the group's color.
func (v *Viewer) GroupGraph(g Grouping) error {
	var groupOf func(n *graph.Node) string
	switch g {
	case GroupByDirectory:
		groupOf = directoryGroup
	case GroupBySBOM:
		groupOf = func(n *graph.Node) string { return n.SBOMFile }
	default:
		return fmt.Errorf("unknown grouping %q", g)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	highlight := v.opts.Colors.Highlight
	v.graph.UpdateAll(func(n *graph.Node) {
		n.Group = groupOf(n)
		n.OriginalColor = palette.ForGroup(n.Group)
		n.Color = n.OriginalColor
		if v.highlighted[n.ID] {
			n.Color = highlight
		}
	})
	v.grouping = g
	v.log.Debug("graph grouped", "by", string(g))
	return nil
}

func directoryGroup(n *graph.Node) string {
	switch len(n.InstallPaths) {
	case 0:
		return ""
	case 1:
	default:
		return MultipleInstallPaths
	}
	p := n.InstallPaths[0]
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// ToggleTheme switches between the dark and light schemes.
func (v *Viewer) ToggleTheme() palette.Scheme {
	next := palette.ModeDark
	if v.Scheme().Mode == palette.ModeDark {
		next = palette.ModeLight
	}
	if err := v.SetColorScheme(next); err != nil {
		v.log.Warn("color scheme failed", "mode", next, "error", err)
	}
	return v.Scheme()
}

// SetColorScheme applies "dark", "light" or "auto" and recolors node icons
// and labels to match.
func (v *Viewer) SetColorScheme(mode string) error {
	// Only auto needs to ask the terminal.
	prefersDark := true
	if mode == palette.ModeAuto {
		prefersDark = v.opts.PrefersDark()
	}
	scheme, err := palette.Resolve(mode, prefersDark)
	if err != nil {
		return err
	}

	icon, font := v.opts.Colors.LightNode, v.opts.Colors.LightText
	if scheme.Mode == palette.ModeDark {
		icon, font = v.opts.Colors.DarkNode, v.opts.Colors.DarkText
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.graph.UpdateAll(func(n *graph.Node) {
		n.IconColor = icon
		n.FontColor = font
	})
	v.scheme = scheme
	v.log.Debug("color scheme set", "mode", mode, "resolved", scheme.Mode)
	return nil
}

// SetNodeColors sets the color of the given nodes. A nil color restores
// each node's original color.
func (v *Viewer) SetNodeColors(ids []string, color *string) {
	for _, id := range ids {
		v.graph.Update(id, func(n *graph.Node) {
			if color != nil {
				n.Color = *color
			} else {
				n.Color = n.OriginalColor
			}
		})
	}
}

// ExportImage writes the visible graph to path. An empty path uses
// "SBOM.<format>".
func (v *Viewer) ExportImage(path string, f export.Format) (string, error) {
	if path == "" {
		path = "SBOM." + string(f)
	}
	if err := export.WriteFile(path, v.graph, f); err != nil {
		return "", err
	}
	v.log.Info("graph exported", "path", path, "format", string(f))
	return path, nil
}
