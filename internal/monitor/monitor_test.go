package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferKeepsNewest(t *testing.T) {
	buf := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Add(Message{Text: fmt.Sprintf("line %d", i)})
	}

	msgs := buf.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "line 3", msgs[0].Text)
	assert.Equal(t, "line 5", msgs[2].Text)
	assert.EqualValues(t, 5, buf.Total())
	assert.Equal(t, 3, buf.Cap())

	buf.Reset()
	assert.Zero(t, buf.Len())
	assert.Empty(t, buf.Messages())
}

func TestBufferPartial(t *testing.T) {
	buf := NewBuffer(0)
	assert.Equal(t, DefaultBufferLines, buf.Cap())

	buf.Add(Message{Text: "a"})
	buf.Add(Message{Text: "b"})
	msgs := buf.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Text)
	assert.Equal(t, "b", msgs[1].Text)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		level string
		text  string
		timed bool
	}{
		{"numeric level", "2025-05-01T12:00:00.123456      20: Start to A", "INFO", "Start to A", true},
		{"warning level", "2025-05-01T12:00:01      30: Obstacle: cone", "WARNING", "Obstacle: cone", true},
		{"named level", "2025-05-01T12:00:01Z ERROR: lost line", "ERROR", "lost line", true},
		{"unknown numeric", "2025-05-01T12:00:01      25: odd", "LEVEL 25", "odd", true},
		{"no timestamp", "hello world", "", "hello world", false},
		{"no level", "2025-05-01T12:00:01 just text", "", "2025-05-01T12:00:01 just text", false},
		{"trailing newline", "2025-05-01T12:00:02 info: ok\n", "INFO", "ok", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ParseLine(tt.line)
			assert.Equal(t, tt.level, msg.Level)
			assert.Equal(t, tt.text, msg.Text)
			assert.Equal(t, tt.timed, msg.HasTime())
			assert.Equal(t, strings.TrimRight(tt.line, "\n"), msg.Raw)
		})
	}
}

func TestStreamURL(t *testing.T) {
	tests := map[string]string{
		"":                       "ws://127.0.0.1:8080/api/monitoring",
		"robot.local:8080":       "ws://robot.local:8080/api/monitoring",
		"http://robot:1/ignored": "ws://robot:1/api/monitoring",
		"https://robot.example":  "wss://robot.example/api/monitoring",
	}
	for in, want := range tests {
		got, err := StreamURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := StreamURL("ftp://robot")
	assert.Error(t, err)
}

func newMonitoringServer(t *testing.T, lines []string, connects *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/monitoring" {
			http.NotFound(w, r)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := connects.Add(1)
		ctx := r.Context()
		for _, line := range lines {
			if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				return
			}
		}
		if n == 1 {
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
			return
		}
		<-ctx.Done()
		_ = conn.Close(websocket.StatusGoingAway, "")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamReceivesAndReconnects(t *testing.T) {
	var connects atomic.Int32
	srv := newMonitoringServer(t, []string{
		"2025-05-01T12:00:00      20: Start to A",
		"2025-05-01T12:00:01      20: Point reached",
	}, &connects)

	s, err := New(srv.URL,
		WithBufferLines(3),
		WithInitialReconnectInterval(10*time.Millisecond),
		WithMaxReconnectInterval(20*time.Millisecond),
	)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.URL(), "ws://"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return connects.Load() >= 2 && s.Connected() && s.buf.Total() == 4
	}, 5*time.Second, 10*time.Millisecond)

	msgs := s.Messages()
	assert.Equal(t, "Point reached", msgs[0].Text)
	assert.Equal(t, "Start to A", msgs[1].Text)
	assert.Equal(t, "INFO", msgs[2].Level)
	assert.Len(t, s.Lines(), 3)

	select {
	case <-s.Updates():
	default:
		t.Fatal("expected a pending update notification")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, s.Connected())
}

func TestStreamRecordsDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	s, err := New(srv.URL, WithInitialReconnectInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.LastError() != nil }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, s.Connected())
	assert.Contains(t, s.LastError().Error(), "dial")
}
