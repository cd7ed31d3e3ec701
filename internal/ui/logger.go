package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hslu-pren/ufosure/internal/monitor"
)

// loggerPage follows the robot's monitoring stream.
type loggerPage struct {
	basePage

	viewport viewport.Model
	messages []monitor.Message
	follow   bool

	renderedTotal uint64
	renderedLen   int
	dirty         bool

	searchActive   bool
	searchInput    textinput.Model
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchMatches  []int
	searchMatchIdx int
}

func newLoggerPage() *loggerPage {
	ti := textinput.New()
	ti.Placeholder = "Search messages..."
	ti.CharLimit = 100
	return &loggerPage{
		viewport:    viewport.New(0, 0),
		follow:      true,
		searchInput: ti,
		dirty:       true,
	}
}

func (p *loggerPage) enter(m *Model) tea.Cmd {
	p.resize(m)
	return nil
}

func (p *loggerPage) capturing() bool {
	return p.searchActive
}

func (p *loggerPage) hints(*Model) []hint {
	if p.searchActive {
		return []hint{{"enter", "Apply"}, {"esc", "Cancel"}}
	}
	followLabel := "Pause"
	if !p.follow {
		followLabel = "Follow"
	}
	hints := []hint{{"Space", followLabel}, {"/", "Search"}, {"n/N", "Next/Prev"}, {"C", "Clear"}}
	if p.searchQuery != "" {
		hints = append(hints, hint{"/", truncate(p.searchQuery, 18)})
	}
	return hints
}

// resize syncs the viewport with the window and the stream.
func (p *loggerPage) resize(m *Model) {
	p.viewport.Width = max(m.width-4, 1)
	p.viewport.Height = max(m.contentHeight()-4, 1)
	p.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.stream != nil {
		total, msgs := m.stream.Total(), m.stream.Messages()
		if total != p.renderedTotal || len(msgs) != p.renderedLen {
			p.messages = msgs
			p.renderedTotal = total
			p.renderedLen = len(msgs)
			if p.searchRegex != nil {
				p.findMatches()
			}
		}
	}
	p.dirty = true
	p.render(m)
}

func (p *loggerPage) render(m *Model) {
	if !p.dirty {
		return
	}
	p.viewport.SetContent(p.renderContent(m))
	p.dirty = false
	if p.follow {
		p.viewport.GotoBottom()
	}
}

func (p *loggerPage) renderContent(m *Model) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := p.viewport.Width

	if m.stream == nil {
		return bg.FillLine(bg.Render("Monitoring disabled", styles.MutedText), width)
	}
	if len(p.messages) == 0 {
		text := "Waiting for events from " + m.stream.URL()
		if err := m.stream.LastError(); err != nil {
			text = err.Error()
		}
		return bg.FillLine(bg.Render(text, styles.MutedText), width)
	}

	matchSet := make(map[int]bool, len(p.searchMatches))
	for _, idx := range p.searchMatches {
		matchSet[idx] = true
	}
	active := -1
	if p.searchMatchIdx < len(p.searchMatches) {
		active = p.searchMatches[p.searchMatchIdx]
	}

	var b strings.Builder
	for i, msg := range p.messages {
		var line string
		switch {
		case i == active:
			hl := NewBgStyle(m.theme.Warning)
			line = hl.Render(formatMessage(msg), lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Background)))
		case matchSet[i]:
			line = bg.Render(formatMessage(msg), styles.AccentText)
		default:
			line = colorizeMessage(msg, styles, bg)
		}
		b.WriteString(bg.FillLine(line, width))
		if i < len(p.messages)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatMessage renders a message as plain text.
func formatMessage(msg monitor.Message) string {
	if !msg.HasTime() {
		return msg.Text
	}
	return fmt.Sprintf("%s %-8s %s", msg.Time.Format("15:04:05.000"), msg.Level, msg.Text)
}

func colorizeMessage(msg monitor.Message, styles Styles, bg BgStyle) string {
	if !msg.HasTime() {
		return bg.Render(msg.Text, styles.Text)
	}
	return bg.Render(msg.Time.Format("15:04:05.000"), styles.FaintText) + bg.Space() +
		bg.Render(fmt.Sprintf("%-8s", msg.Level), styles.LevelStyle(msg.Level)) + bg.Space() +
		bg.Render(msg.Text, styles.Text)
}

func (p *loggerPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if p.searchActive {
		return p.handleSearchInput(m, msg)
	}

	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		p.follow = !p.follow
		if p.follow {
			p.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Search):
		p.searchActive = true
		p.searchInput.SetValue("")
		return p.searchInput.Focus()
	case key.Matches(msg, m.keys.NextMatch):
		p.stepMatch(m, 1)
	case key.Matches(msg, m.keys.PrevMatch):
		p.stepMatch(m, -1)
	case key.Matches(msg, m.keys.Clear):
		if m.stream != nil {
			m.stream.Clear()
		}
		p.messages = nil
		p.renderedLen = 0
		p.clearSearch()
		p.dirty = true
		p.render(m)
	case key.Matches(msg, m.keys.Escape):
		if p.searchRegex != nil {
			p.clearSearch()
			p.dirty = true
			p.render(m)
		}
	case key.Matches(msg, m.keys.Top):
		p.viewport.GotoTop()
		p.follow = false
	case key.Matches(msg, m.keys.Bottom):
		p.viewport.GotoBottom()
		p.follow = true
	case key.Matches(msg, m.keys.Down):
		p.viewport.ScrollDown(1)
		p.follow = false
	case key.Matches(msg, m.keys.Up):
		p.viewport.ScrollUp(1)
		p.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		p.viewport.HalfPageDown()
		p.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		p.viewport.HalfPageUp()
		p.follow = false
	case key.Matches(msg, m.keys.PageDown):
		p.viewport.PageDown()
		p.follow = false
	case key.Matches(msg, m.keys.PageUp):
		p.viewport.PageUp()
		p.follow = false
	}
	return nil
}

func (p *loggerPage) handleSearchInput(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := p.searchInput.Value()
		if query == "" {
			p.searchActive = false
			p.searchInput.Blur()
			return nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			m.setError(fmt.Errorf("invalid search: %w", err))
			return nil
		}
		p.searchRegex = re
		p.searchQuery = query
		p.searchActive = false
		p.searchInput.Blur()
		p.findMatches()
		if len(p.searchMatches) > 0 {
			p.searchMatchIdx = 0
			p.scrollToMatch()
		} else {
			m.setStatus("No matches for " + query)
		}
		p.dirty = true
		p.render(m)
		return nil

	case key.Matches(msg, m.keys.Escape):
		p.searchActive = false
		p.searchInput.Blur()
		p.searchInput.SetValue("")
		return nil
	}

	var cmd tea.Cmd
	p.searchInput, cmd = p.searchInput.Update(msg)
	return cmd
}

func (p *loggerPage) clearSearch() {
	p.searchRegex = nil
	p.searchQuery = ""
	p.searchMatches = nil
	p.searchMatchIdx = 0
}

func (p *loggerPage) findMatches() {
	p.searchMatches = nil
	if p.searchRegex == nil {
		return
	}
	for i, msg := range p.messages {
		if p.searchRegex.MatchString(msg.Raw) {
			p.searchMatches = append(p.searchMatches, i)
		}
	}
	if p.searchMatchIdx >= len(p.searchMatches) {
		p.searchMatchIdx = 0
	}
}

func (p *loggerPage) stepMatch(m *Model, delta int) {
	n := len(p.searchMatches)
	if n == 0 {
		return
	}
	p.searchMatchIdx = ((p.searchMatchIdx+delta)%n + n) % n
	p.scrollToMatch()
	p.dirty = true
	p.render(m)
}

func (p *loggerPage) scrollToMatch() {
	if p.searchMatchIdx >= len(p.searchMatches) {
		return
	}
	p.follow = false
	target := p.searchMatches[p.searchMatchIdx]
	p.viewport.SetYOffset(max(target-p.viewport.Height/2, 0))
}

func (p *loggerPage) view(m *Model, width, height int) string {
	title := "Monitoring"
	if m.stream != nil {
		title = fmt.Sprintf("Monitoring (%d)", len(p.messages))
	}
	if !p.follow {
		title += " paused"
	}
	body := p.viewport.View()
	if p.searchActive {
		body = p.searchInput.View() + "\n" + body
	}
	return m.renderBox(title, body, width, height)
}
