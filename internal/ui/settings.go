package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// settingsPage selects the robot's algorithm.
type settingsPage struct {
	basePage

	fetched  bool
	loading  bool
	err      error
	names    []string
	selected int
}

func (p *settingsPage) enter(m *Model) tea.Cmd {
	if m.api == nil || p.loading || p.fetched {
		return nil
	}
	p.loading = true
	return fetchAlgorithmsCmd(m.ctx, m.api)
}

func (p *settingsPage) hints(*Model) []hint {
	return []hint{{"enter", "Activate"}, {"c", "Clear"}, {"x", "Reset"}, {"R", "Refresh list"}}
}

func (p *settingsPage) receive(m *Model, msg tea.Msg) tea.Cmd {
	res, ok := msg.(algorithmsMsg)
	if !ok {
		return nil
	}
	p.loading = false
	p.fetched = true
	p.err = res.err
	if res.err != nil {
		m.setError(res.err)
		return nil
	}
	p.names = res.names
	p.selected = 0
	current := m.snapshot.AlgorithmName()
	for i, name := range p.names {
		if name == current {
			p.selected = i
		}
	}
	return nil
}

func (p *settingsPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if p.selected < len(p.names)-1 {
			p.selected++
		}
	case key.Matches(msg, m.keys.Refresh):
		p.fetched = false
		return p.enter(m)
	case key.Matches(msg, m.keys.Confirm):
		if m.store == nil || len(p.names) == 0 {
			return nil
		}
		name := p.names[p.selected]
		m.setStatus("Activating " + name + "…")
		return setAlgorithmCmd(m.ctx, m.store, &name)
	case key.Matches(msg, m.keys.ClearAlgorithm):
		if m.store == nil {
			return nil
		}
		m.setStatus("Clearing algorithm…")
		return setAlgorithmCmd(m.ctx, m.store, nil)
	case key.Matches(msg, m.keys.ResetAlgorithm):
		if m.store == nil {
			return nil
		}
		m.setStatus("Resetting algorithm…")
		return resetAlgorithmCmd(m.ctx, m.store)
	}
	return nil
}

func (p *settingsPage) view(m *Model, width, height int) string {
	styles := m.theme.Styles()
	current := m.snapshot.AlgorithmName()

	var b strings.Builder
	switch {
	case p.loading:
		b.WriteString(styles.FaintText.Render("Loading algorithms…"))
	case p.err != nil:
		b.WriteString(styles.DangerText.Render(p.err.Error()))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("R to retry"))
	case len(p.names) == 0:
		b.WriteString(styles.FaintText.Render("The robot reports no algorithms"))
	default:
		for i, name := range p.names {
			marker := "  "
			if name == current {
				marker = "● "
			}
			line := marker + name
			if i == p.selected {
				b.WriteString(styles.Selected.Width(max(width-4, 1)).Render(line))
			} else if name == current {
				b.WriteString(styles.AccentText.Render(line))
			} else {
				b.WriteString(styles.Text.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	active := "none"
	if current != "" {
		active = current
	}
	b.WriteString(styles.MutedText.Render("Active algorithm: ") + styles.Text.Render(active))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Theme: ") + styles.Text.Render(m.theme.Name) +
		styles.FaintText.Render("  (T to cycle: "+strings.Join(ThemeNames(), ", ")+")"))

	return m.renderBox("Settings", b.String(), width, height)
}
