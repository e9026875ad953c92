// Command sbomvis is a terminal viewer for SBOM relationship graphs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/latebit/sbomvis/internal/config"
	"github.com/latebit/sbomvis/internal/export"
	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/logging"
	"github.com/latebit/sbomvis/internal/sbom"
	"github.com/latebit/sbomvis/internal/state"
	"github.com/latebit/sbomvis/internal/viewer"
	"github.com/latebit/sbomvis/internal/watch"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			exportMain(os.Args[2:])
			return
		case "groups":
			groupsMain(os.Args[2:])
			return
		}
	}
	viewMain(os.Args[1:])
}

// commonFlags registers the flags shared by every subcommand.
type commonFlags struct {
	configPath *string
	theme      *string
	grouping   *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", config.DefaultPath(), "config file (TOML)"),
		theme:      fs.String("theme", "", "color scheme: dark, light or auto (overrides config)"),
		grouping:   fs.String("grouping", "", "group nodes by directory or sbom (overrides config)"),
	}
}

// load reads the config, applies flag overrides and builds the graph.
func (c commonFlags) load(paths []string, logWriter io.Writer) (*config.Config, *slog.Logger, io.Closer, *graph.Graph, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if *c.theme != "" {
		cfg.Theme = *c.theme
	}
	if *c.grouping != "" {
		cfg.Grouping = *c.grouping
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	logger, closer, err := logging.Open(cfg.LogFormat, cfg.LogLevel, cfg.LogFile, logWriter)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	docs, err := sbom.LoadAll(paths)
	if err != nil {
		_ = closer.Close()
		return nil, nil, nil, nil, err
	}
	return cfg, logger, closer, graph.Build(docs, logger), nil
}

// newViewer builds a viewer over store with the theme, grouping and
// isolate visibility of cfg.
func newViewer(g *graph.Graph, store *state.Store, net viewer.Network, cfg *config.Config, logger *slog.Logger) (*viewer.Viewer, error) {
	grouping, err := viewer.ParseGrouping(cfg.Grouping)
	if err != nil {
		return nil, err
	}
	v, err := viewer.New(g, store, net, viewer.Options{
		Colors:      cfg.Colors,
		Theme:       cfg.Theme,
		Grouping:    grouping,
		PrefersDark: lipgloss.HasDarkBackground,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.HideIsolates {
		v.ToggleIsolates()
	}
	return v, nil
}

func viewMain(args []string) {
	fs := flag.NewFlagSet("sbomvis", flag.ExitOnError)
	common := addCommonFlags(fs)
	watchFiles := fs.Bool("watch", false, "reload when an input file changes (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sbomvis [-config FILE] [-theme MODE] [-grouping BY] [-watch] sbom.json...\n")
		fmt.Fprintf(os.Stderr, "       sbomvis export [-format dot|json] [-o FILE] sbom.json...\n")
		fmt.Fprintf(os.Stderr, "       sbomvis groups [-grouping BY] sbom.json...\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	paths := fs.Args()

	// The terminal belongs to the UI, so logs only go to log_file.
	cfg, logger, closer, g, err := common.load(paths, nil)
	if err != nil {
		fatal(err)
	}
	defer closer.Close()

	net := newTermNetwork(cfg.Physics)
	v, err := newViewer(g, state.New(), net, cfg, logger)
	if err != nil {
		fatal(err)
	}
	m, err := newModel(v, net, cfg, paths, logger)
	if err != nil {
		fatal(err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startReloader(ctx, func(msg reloadMsg) { p.Send(msg) }, logger)

	if *watchFiles || cfg.Watch {
		go func() {
			err := watch.Watch(ctx, paths, func(path string) { p.Send(reloadMsg{path: path}) }, logger)
			if err != nil {
				logger.Error("watch failed", "error", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

func exportMain(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	common := addCommonFlags(fs)
	format := fs.String("format", "", "output format: dot or json (overrides config)")
	out := fs.String("o", "", "output file, - for stdout (default from config)")
	hideIsolates := fs.Bool("hide-isolates", false, "leave out nodes without relationships")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sbomvis export [-format dot|json] [-o FILE] sbom.json...\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger, closer, g, err := common.load(fs.Args(), os.Stderr)
	if err != nil {
		fatal(err)
	}
	defer closer.Close()

	if *format != "" {
		cfg.ExportFormat = *format
	}
	f, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		fatal(err)
	}
	if *hideIsolates {
		cfg.HideIsolates = true
	}

	v, err := newViewer(g, state.New(), newTermNetwork(false), cfg, logger)
	if err != nil {
		fatal(err)
	}

	path := *out
	if path == "" {
		path = cfg.ExportPath
		if *format != "" {
			path = "SBOM." + string(f)
		}
	}
	if path == "-" {
		if err := export.Write(os.Stdout, v.Graph(), f); err != nil {
			fatal(err)
		}
		return
	}
	written, err := v.ExportImage(path, f)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", written)
}

func groupsMain(args []string) {
	fs := flag.NewFlagSet("groups", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sbomvis groups [-grouping directory|sbom] sbom.json...\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger, closer, g, err := common.load(fs.Args(), os.Stderr)
	if err != nil {
		fatal(err)
	}
	defer closer.Close()

	v, err := newViewer(g, state.New(), newTermNetwork(false), cfg, logger)
	if err != nil {
		fatal(err)
	}
	printGroups(os.Stdout, v.Groups())
}

func printGroups(w io.Writer, groups []viewer.GroupSummary) {
	for _, grp := range groups {
		name := grp.Name
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(w, "%6d  %s  %s\n", grp.Count, grp.Color, name)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
