package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hslu-pren/ufosure/internal/api"
)

// renderHeader renders the status bar: versions, algorithm and connection.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	snap := m.snapshot

	parts := []string{
		bg.Render("ufosure", styles.Logo),
		bg.Render(snap.UIVersion, styles.MutedText),
	}

	switch {
	case snap.LastError != nil && !snap.Loaded:
		parts = append(parts,
			bg.Render("API "+classifyConnectionError(snap.LastError), styles.DangerText.Bold(true)),
			bg.Render("r to retry", styles.WarningText),
		)
	case snap.Loading && !snap.Loaded:
		parts = append(parts, bg.Render("Connecting…", styles.WarningText.Bold(true)))
	default:
		apiVersion := snap.APIVersion
		if apiVersion == "" {
			apiVersion = "unknown"
		}
		parts = append(parts,
			bg.Render("API", styles.MutedText)+bg.Space()+bg.Render(apiVersion, styles.Text),
			bg.Render("Algorithm", styles.MutedText)+bg.Space()+m.renderAlgorithm(styles, bg),
		)
		if snap.LastError != nil {
			parts = append(parts, bg.Render("● "+classifyConnectionError(snap.LastError), styles.DangerText))
		}
	}

	if m.stream != nil {
		if m.stream.Connected() {
			parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
		} else {
			parts = append(parts, bg.Render("● NO STREAM", styles.FaintText))
		}
	}

	if m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(m.Location(), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderAlgorithm(styles Styles, bg BgStyle) string {
	name := m.snapshot.AlgorithmName()
	if name == "" {
		return bg.Render("none", styles.FaintText)
	}
	return bg.Render(name, styles.AccentText)
}

// classifyConnectionError returns a short description of the failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Status != 0 {
		return "ERROR " + itoa(reqErr.Status)
	}
	detail := err.Error()
	if errors.As(err, &reqErr) {
		detail = reqErr.Detail()
	}
	switch {
	case strings.Contains(detail, "connection refused"):
		return "OFFLINE"
	case strings.Contains(detail, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(detail, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view and the
// latest status message.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	colon := bg.Sep(":")

	hints := append([]hint{{"1-4", m.viewLabel()}}, m.current.View.hints(&m)...)
	hints = append(hints, hint{"?", "More"})

	segments := make([]string, 0, len(hints)+2)
	for _, h := range hints {
		segments = append(segments,
			bg.Render(h.key, styles.AccentText)+colon+bg.Render(h.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	if m.status.text != "" {
		style := styles.InfoText
		if m.status.err {
			style = styles.DangerText
		}
		segments = append(segments, bg.Render(truncate(m.status.text, 60), style))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

func (m Model) viewLabel() string {
	switch m.current.Name {
	case routeHome:
		return "Home"
	case routeScripts:
		return "Scripts"
	case routeLogger:
		return "Logger"
	case routeSettings:
		return "Settings"
	default:
		return m.current.Name
	}
}

// renderBox draws a titled, bordered panel of the given outer size.
func (m Model) renderBox(title, content string, width, height int) string {
	styles := m.theme.Styles()
	inner := max(width-2, 1)
	body := styles.AccentText.Bold(true).Render(truncate(title, inner)) + "\n" + content
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(inner).
		Height(max(height-2, 1)).
		MaxHeight(height).
		Render(body)
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps the start and the (longer) end of s.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
