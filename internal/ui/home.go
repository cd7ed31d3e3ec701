package ui

import "strings"

// homePage shows versions, the active algorithm and connection state.
type homePage struct {
	basePage
}

func (p *homePage) hints(*Model) []hint {
	return []hint{{"r", "Reload"}, {"tab", "Next view"}}
}

func (p *homePage) view(m *Model, width, height int) string {
	styles := m.theme.Styles()
	snap := m.snapshot
	labelWidth := 14

	row := func(label, value string, valueStyle func(string) string) string {
		return styles.MutedText.Width(labelWidth).Render(label) + valueStyle(value)
	}
	text := func(s string) string { return styles.Text.Render(s) }
	faint := func(s string) string { return styles.FaintText.Render(s) }

	var rows []string
	rows = append(rows, row("UI version", snap.UIVersion, text))

	switch {
	case snap.APIVersion != "":
		rows = append(rows, row("API version", snap.APIVersion, text))
	case snap.Loading:
		rows = append(rows, row("API version", "loading…", faint))
	default:
		rows = append(rows, row("API version", "unknown", faint))
	}

	if name := snap.AlgorithmName(); name != "" {
		rows = append(rows, row("Algorithm", name, func(s string) string { return styles.AccentText.Render(s) }))
	} else {
		rows = append(rows, row("Algorithm", "none", faint))
	}

	if m.apiBase != "" {
		rows = append(rows, row("API", truncateMiddle(m.apiBase, max(width-labelWidth-4, 8)), text))
	}

	if !snap.LastUpdated.IsZero() {
		rows = append(rows, row("Updated", snap.LastUpdated.Format("15:04:05"), text))
	}
	if snap.LastError != nil {
		rows = append(rows, row("Last error", snap.LastError.Error(), func(s string) string {
			return styles.DangerText.Render(s)
		}))
		if snap.IsOffline() {
			rows = append(rows, row("", "API unreachable for "+itoa(snap.ConsecutiveFailures)+" loads", faint))
		}
	}

	if m.stream != nil {
		switch {
		case m.stream.Connected():
			rows = append(rows, row("Monitoring", "connected", func(s string) string { return styles.SuccessText.Render(s) }))
		case m.stream.LastError() != nil:
			rows = append(rows, row("Monitoring", truncate(m.stream.LastError().Error(), max(width-labelWidth-4, 8)), func(s string) string {
				return styles.WarningText.Render(s)
			}))
		default:
			rows = append(rows, row("Monitoring", "connecting…", faint))
		}
	}

	if m.runner != nil {
		rows = append(rows, row("Scripts", m.runner.Loader().Root(), text))
	}
	rows = append(rows, row("Location", m.Location(), faint))

	return m.renderBox("Home", strings.Join(rows, "\n"), width, height)
}
