package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hslu-pren/ufosure/internal/api"
	"github.com/hslu-pren/ufosure/internal/monitor"
	"github.com/hslu-pren/ufosure/internal/script"
	"github.com/hslu-pren/ufosure/internal/state"
)

// Messages

type loadResultMsg struct{ err error }

type actionMsg struct {
	text string
	err  error
}

type monitorMsg struct{}

type algorithmsMsg struct {
	names []string
	err   error
}

type scriptsMsg struct {
	list []script.Summary
	err  error
}

type scriptEventMsg script.Event

type scriptDoneMsg struct {
	result script.Result
	err    error
}

// Commands

func waitLoadCmd(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return loadResultMsg{}
		}
		return loadResultMsg{err: err}
	}
}

func reloadCmd(ctx context.Context, store *state.System) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return loadResultMsg{err: store.Reload(ctx)}
	}
}

func setAlgorithmCmd(ctx context.Context, store *state.System, name *string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		if err := store.SetAlgorithm(ctx, name); err != nil {
			return actionMsg{err: err}
		}
		if name == nil {
			return actionMsg{text: "Algorithm cleared"}
		}
		return actionMsg{text: "Algorithm set to " + *name}
	}
}

func resetAlgorithmCmd(ctx context.Context, store *state.System) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		out, err := store.ResetAlgorithm(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		if out == "" {
			out = "Algorithm reset"
		}
		return actionMsg{text: out}
	}
}

func fetchAlgorithmsCmd(ctx context.Context, client api.SystemAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		names, err := client.AlgorithmList(ctx)
		return algorithmsMsg{names: names, err: err}
	}
}

// waitMonitorCmd blocks until the stream reports a change.
func waitMonitorCmd(ctx context.Context, stream *monitor.Stream) tea.Cmd {
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-stream.Updates():
			return monitorMsg{}
		}
	}
}

func refreshScriptsCmd(ctx context.Context, loader *script.Loader) tea.Cmd {
	return func() tea.Msg {
		if err := loader.Refresh(ctx); err != nil {
			return scriptsMsg{list: loader.List(), err: err}
		}
		return scriptsMsg{list: loader.List()}
	}
}

// runScriptCmd runs name and closes events when the run ends.
func runScriptCmd(ctx, appCtx context.Context, runner *script.Runner, name string, events chan<- script.Event) tea.Cmd {
	return func() tea.Msg {
		defer close(events)
		res, err := runner.Run(ctx, name, func(ev script.Event) {
			select {
			case events <- ev:
			case <-appCtx.Done():
			}
		})
		return scriptDoneMsg{result: res, err: err}
	}
}

func waitScriptEventCmd(events <-chan script.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return scriptEventMsg(ev)
	}
}
