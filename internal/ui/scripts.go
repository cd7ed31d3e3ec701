package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hslu-pren/ufosure/internal/script"
)

// scriptPage lists scripts and runs one at a time.
type scriptPage struct {
	basePage

	scanned  bool
	scanning bool
	scanErr  error
	items    []script.Summary
	selected int

	running bool
	runName string
	cancel  context.CancelFunc
	events  <-chan script.Event
	output  []script.Event
	last    *scriptDoneMsg
}

func newScriptPage() *scriptPage {
	return &scriptPage{}
}

func (p *scriptPage) enter(m *Model) tea.Cmd {
	if m.runner == nil || p.scanned || p.scanning {
		return nil
	}
	p.scanning = true
	return refreshScriptsCmd(m.ctx, m.runner.Loader())
}

func (p *scriptPage) hints(*Model) []hint {
	if p.running {
		return []hint{{"s", "Stop"}}
	}
	return []hint{{"j/k", "Select"}, {"enter", "Run"}, {"R", "Rescan"}}
}

func (p *scriptPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if p.selected < len(p.items)-1 {
			p.selected++
		}
	case key.Matches(msg, m.keys.Top):
		p.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		p.selected = max(len(p.items)-1, 0)
	case key.Matches(msg, m.keys.Refresh):
		if m.runner == nil || p.scanning {
			return nil
		}
		p.scanning = true
		return refreshScriptsCmd(m.ctx, m.runner.Loader())
	case key.Matches(msg, m.keys.Confirm):
		return p.start(m)
	case key.Matches(msg, m.keys.Stop), key.Matches(msg, m.keys.Escape):
		if p.running && p.cancel != nil {
			p.cancel()
			m.setStatus("Stopping " + p.runName + "…")
		}
	}
	return nil
}

func (p *scriptPage) start(m *Model) tea.Cmd {
	if m.runner == nil || p.running || len(p.items) == 0 {
		return nil
	}
	name := p.items[p.selected].Name
	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan script.Event, 64)

	p.running = true
	p.runName = name
	p.cancel = cancel
	p.events = events
	p.output = nil
	p.last = nil
	m.setStatus("Running " + name)

	return tea.Batch(
		runScriptCmd(ctx, m.ctx, m.runner, name, events),
		waitScriptEventCmd(events),
	)
}

func (p *scriptPage) receive(m *Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case scriptsMsg:
		p.scanning = false
		p.scanned = true
		p.scanErr = msg.err
		p.items = msg.list
		if p.selected >= len(p.items) {
			p.selected = max(len(p.items)-1, 0)
		}
		if msg.err != nil {
			m.setError(msg.err)
		}
		return nil

	case scriptEventMsg:
		p.output = append(p.output, script.Event(msg))
		if len(p.output) > scriptOutputLimit {
			p.output = p.output[len(p.output)-scriptOutputLimit:]
		}
		return p.nextEvent()

	case scriptDoneMsg:
		p.running = false
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		done := msg
		p.last = &done
		if msg.err != nil {
			m.setError(fmt.Errorf("%s: %w", p.runName, msg.err))
		} else {
			m.setStatus(fmt.Sprintf("%s finished: %d commands in %s",
				p.runName, msg.result.Commands, msg.result.Duration().Round(time.Millisecond)))
		}
	}
	return nil
}

// nextEvent re-arms the listener; it stops once the run closes the channel.
func (p *scriptPage) nextEvent() tea.Cmd {
	if p.events == nil {
		return nil
	}
	return waitScriptEventCmd(p.events)
}

func (p *scriptPage) view(m *Model, width, height int) string {
	styles := m.theme.Styles()
	listWidth := min(max(width/3, 24), 40)
	outWidth := max(width-listWidth, 20)

	var list strings.Builder
	switch {
	case m.runner == nil:
		list.WriteString(styles.FaintText.Render("Scripts disabled"))
	case p.scanning && !p.scanned:
		list.WriteString(styles.FaintText.Render("Scanning…"))
	case len(p.items) == 0:
		list.WriteString(styles.FaintText.Render("No scripts in " + truncateMiddle(m.runner.Loader().Root(), listWidth-16)))
	default:
		for i, item := range p.items {
			line := fmt.Sprintf("%-4s %s", item.Kind, item.Name)
			line = truncate(line, listWidth-4)
			if i == p.selected {
				list.WriteString(styles.Selected.Width(listWidth - 4).Render(line))
			} else {
				list.WriteString(styles.Text.Render(line))
			}
			list.WriteString("\n")
		}
		if sel := p.items[p.selected]; sel.Description != "" {
			list.WriteString("\n")
			list.WriteString(styles.MutedText.Width(listWidth - 4).Render(sel.Description))
		}
	}

	title := "Output"
	if p.running {
		title = "Running " + p.runName
	} else if p.last != nil {
		title = "Last run " + p.last.result.Script
	}
	outLines := max(height-3, 1)
	start := max(len(p.output)-outLines, 0)
	var out strings.Builder
	for _, ev := range p.output[start:] {
		out.WriteString(renderScriptEvent(ev, styles, outWidth-4))
		out.WriteString("\n")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderBox("Scripts", list.String(), listWidth, height),
		m.renderBox(title, strings.TrimRight(out.String(), "\n"), outWidth, height),
	)
}

func renderScriptEvent(ev script.Event, styles Styles, width int) string {
	stamp := styles.FaintText.Render(ev.Time.Format("15:04:05") + " ")
	text := truncate(ev.Text, max(width-9, 1))
	switch ev.Kind {
	case script.EventCommand:
		return stamp + styles.AccentText.Render("→ "+text)
	case script.EventError:
		return stamp + styles.DangerText.Render(text)
	case script.EventStart, script.EventDone:
		return stamp + styles.MutedText.Render(text)
	default:
		return stamp + styles.Text.Render(text)
	}
}
