package monitor

import (
	"strconv"
	"strings"
	"time"
)

// Message is one event from the robot's monitoring stream.
type Message struct {
	Time  time.Time
	Level string
	Text  string
	Raw   string
}

// HasTime reports whether the line carried a parseable timestamp.
func (m Message) HasTime() bool {
	return !m.Time.IsZero()
}

// String renders the message in a compact single-line form.
func (m Message) String() string {
	if !m.HasTime() {
		return m.Text
	}
	level := m.Level
	if level == "" {
		level = "INFO"
	}
	return m.Time.Format("15:04:05") + " " + level + " " + m.Text
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

var numericLevels = map[int]string{
	10: "DEBUG",
	20: "INFO",
	30: "WARNING",
	40: "ERROR",
	50: "CRITICAL",
}

// ParseLine splits "<timestamp> <level>: <message>". The level may be a name
// or a numeric severity padded to seven columns. Lines that do not follow the
// format keep their full content in Text.
func ParseLine(line string) Message {
	raw := strings.TrimRight(line, "\r\n")
	msg := Message{Text: raw, Raw: raw}

	stamp, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return msg
	}
	ts, ok := parseTime(stamp)
	if !ok {
		return msg
	}
	level, text, ok := strings.Cut(rest, ":")
	if !ok {
		return msg
	}
	level = strings.TrimSpace(level)
	if level == "" || strings.ContainsAny(level, " \t") {
		return msg
	}

	msg.Time = ts
	msg.Level = normalizeLevel(level)
	msg.Text = strings.TrimPrefix(text, " ")
	return msg
}

func parseTime(value string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func normalizeLevel(level string) string {
	if n, err := strconv.Atoi(level); err == nil {
		if name, ok := numericLevels[n]; ok {
			return name
		}
		return "LEVEL " + level
	}
	upper := strings.ToUpper(level)
	if upper == "WARN" {
		return "WARNING"
	}
	return upper
}
