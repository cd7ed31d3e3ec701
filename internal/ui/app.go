package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hslu-pren/ufosure/internal/api"
	"github.com/hslu-pren/ufosure/internal/monitor"
	"github.com/hslu-pren/ufosure/internal/prefs"
	"github.com/hslu-pren/ufosure/internal/router"
	"github.com/hslu-pren/ufosure/internal/script"
	"github.com/hslu-pren/ufosure/internal/state"
)

// requestTimeout bounds each API call made on behalf of a key press.
const requestTimeout = 10 * time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	API       api.SystemAPI
	APIBase   string
	Store     *state.System
	Monitor   *monitor.Stream
	Scripts   *script.Runner
	Logger    *slog.Logger
	BasePath  string
	Location  string // initial hash location, e.g. "#/logger"
	ThemeName string
	PrefsPath string

	// LoadResult is the channel returned by Store.Start. When nil the model
	// starts its own load.
	LoadResult <-chan error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	api       api.SystemAPI
	apiBase   string
	store     *state.System
	stream    *monitor.Stream
	runner    *script.Runner
	logger    *slog.Logger
	prefsPath string
	loadCh    <-chan error

	router  *router.Router[page]
	current router.Match[page]

	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool

	snapshot state.Snapshot
	status   statusLine
}

type statusLine struct {
	text string
	err  bool
	at   time.Time
}

// New creates the model and resolves the initial view. An unknown initial
// location falls back to the first route and is reported in the status line.
func New(opts Options) (Model, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	r, err := newRouter(opts.BasePath)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		ctx:       ctx,
		api:       opts.API,
		apiBase:   opts.APIBase,
		store:     opts.Store,
		stream:    opts.Monitor,
		runner:    opts.Scripts,
		logger:    logger,
		prefsPath: prefsPath,
		loadCh:    opts.LoadResult,
		router:    r,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}

	location := strings.TrimSpace(opts.Location)
	if location == "" {
		location = r.Home()
	}
	match, err := r.ResolveLocation(location)
	if err != nil {
		m.setError(err)
		if match, err = r.Resolve(r.Home()); err != nil {
			return Model{}, err
		}
	}
	m.current = match
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	switch {
	case m.loadCh != nil:
		cmds = append(cmds, waitLoadCmd(m.loadCh))
	case m.store != nil:
		cmds = append(cmds, reloadCmd(m.ctx, m.store))
	}
	if m.stream != nil {
		cmds = append(cmds, waitMonitorCmd(m.ctx, m.stream))
	}
	mm := &m
	if cmd := m.current.View.enter(mm); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.current.View.resize(&m)
		return m, nil

	case loadResultMsg:
		m.refreshSnapshot()
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case actionMsg:
		m.refreshSnapshot()
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.text)
		}
		return m, nil

	case monitorMsg:
		if p, ok := m.loadedPage(routeLogger); ok {
			p.resize(&m)
		}
		return m, waitMonitorCmd(m.ctx, m.stream)

	case scriptsMsg, scriptEventMsg, scriptDoneMsg:
		if p, ok := m.loadedPage(routeScripts); ok {
			return m, p.receive(&m, msg)
		}
		return m, nil

	case algorithmsMsg:
		if p, ok := m.loadedPage(routeSettings); ok {
			return m, p.receive(&m, msg)
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.current.View.view(&m, m.width, m.contentHeight()))
	return b.String()
}

func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// CurrentPath returns the path of the active view.
func (m Model) CurrentPath() string {
	return m.current.Path
}

// CurrentName returns the route name of the active view.
func (m Model) CurrentName() string {
	return m.current.Name
}

// Location returns the hash location of the active view.
func (m Model) Location() string {
	return m.router.Href(m.current.Path)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		m.showHelp = false
		return nil
	}
	if m.current.View.capturing() {
		return m.current.View.update(m, msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.current.View.resize(m)
		m.savePrefs()
		return nil
	case key.Matches(msg, m.keys.Reload):
		if m.store == nil {
			return nil
		}
		m.setStatus("Reloading…")
		return reloadCmd(m.ctx, m.store)
	case key.Matches(msg, m.keys.Tab):
		return m.navigate(m.router.Next(m.current.Path))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.navigate(m.router.Prev(m.current.Path))
	case key.Matches(msg, m.keys.Home):
		return m.navigateIndex(0)
	case key.Matches(msg, m.keys.Scripts):
		return m.navigateIndex(1)
	case key.Matches(msg, m.keys.Logger):
		return m.navigateIndex(2)
	case key.Matches(msg, m.keys.Settings):
		return m.navigateIndex(3)
	}
	return m.current.View.update(m, msg)
}

func (m *Model) navigateIndex(idx int) tea.Cmd {
	routes := m.router.Routes()
	if idx < 0 || idx >= len(routes) {
		return nil
	}
	return m.navigate(routes[idx].Path)
}

// navigate switches to path. Unresolvable paths keep the current view.
func (m *Model) navigate(path string) tea.Cmd {
	match, err := m.router.Resolve(path)
	if err != nil {
		m.logger.Warn("navigation failed", "path", path, "error", err)
		m.setError(err)
		return nil
	}
	if match.Path == m.current.Path {
		return nil
	}
	m.current = match
	m.current.View.resize(m)
	m.savePrefs()
	return m.current.View.enter(m)
}

// NavigateLocation resolves a hash location such as "#/settings".
func (m *Model) NavigateLocation(location string) tea.Cmd {
	return m.navigate(router.ParseLocation(location))
}

func (m *Model) loadedPage(name string) (page, bool) {
	for _, info := range m.router.Routes() {
		if info.Name == name && info.Loaded {
			match, err := m.router.ResolveName(name)
			if err != nil {
				return nil, false
			}
			return match.View, true
		}
	}
	return nil, false
}

func (m *Model) refreshSnapshot() {
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
}

func (m *Model) setStatus(text string) {
	m.status = statusLine{text: text, at: time.Now()}
}

func (m *Model) setError(err error) {
	text := err.Error()
	if errors.Is(err, router.ErrNoRoute) {
		text = "No view at " + strings.TrimPrefix(text, router.ErrNoRoute.Error()+": ")
	}
	m.status = statusLine{text: text, err: true, at: time.Now()}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastRoute: m.current.Path}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Debug("save prefs failed", "error", err)
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	_, err = tea.NewProgram(m, programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
