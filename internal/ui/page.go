package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hslu-pren/ufosure/internal/router"
)

// Route names.
const (
	routeHome     = "home"
	routeScripts  = "script-runner"
	routeLogger   = "logger"
	routeSettings = "settings"
)

// page is one routed view. Pages are built lazily by the router on first
// visit and keep their state across visits.
type page interface {
	// enter runs each time the page becomes current.
	enter(m *Model) tea.Cmd
	// update handles keys not consumed globally.
	update(m *Model, msg tea.KeyMsg) tea.Cmd
	// receive handles asynchronous results addressed to the page.
	receive(m *Model, msg tea.Msg) tea.Cmd
	// resize refreshes layout-dependent state.
	resize(m *Model)
	view(m *Model, width, height int) string
	hints(m *Model) []hint
	// capturing reports whether the page is reading text input.
	capturing() bool
}

type hint struct{ key, desc string }

func newRouter(base string) (*router.Router[page], error) {
	return router.New(base,
		router.Route[page]{Path: "/", Name: routeHome, Load: func() (page, error) {
			return &homePage{}, nil
		}},
		router.Route[page]{Path: "/script", Name: routeScripts, Load: func() (page, error) {
			return newScriptPage(), nil
		}},
		router.Route[page]{Path: "/logger", Name: routeLogger, Load: func() (page, error) {
			return newLoggerPage(), nil
		}},
		router.Route[page]{Path: "/settings", Name: routeSettings, Load: func() (page, error) {
			return &settingsPage{}, nil
		}},
	)
}

// basePage supplies no-op defaults.
type basePage struct{}

func (basePage) enter(*Model) tea.Cmd              { return nil }
func (basePage) update(*Model, tea.KeyMsg) tea.Cmd { return nil }
func (basePage) receive(*Model, tea.Msg) tea.Cmd   { return nil }
func (basePage) resize(*Model)                     {}
func (basePage) capturing() bool                   { return false }
func (basePage) hints(*Model) []hint               { return nil }
