// Package monitor follows the robot's WebSocket event stream.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"

	"github.com/hslu-pren/ufosure/internal/api"
)

const (
	defaultMaxReconnectInterval = 30 * time.Second
	readLimit                   = 1 << 20
)

// Option configures a Stream.
type Option func(*Stream)

// WithBufferLines sets the history size.
func WithBufferLines(n int) Option {
	return func(s *Stream) {
		s.buf = NewBuffer(n)
	}
}

// WithLogger routes connection diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxReconnectInterval caps the reconnect delay.
func WithMaxReconnectInterval(d time.Duration) Option {
	return func(s *Stream) {
		if d > 0 {
			s.maxInterval = d
		}
	}
}

// WithInitialReconnectInterval sets the first reconnect delay.
func WithInitialReconnectInterval(d time.Duration) Option {
	return func(s *Stream) {
		if d > 0 {
			s.initialInterval = d
		}
	}
}

// Stream keeps a bounded history of monitoring events and reconnects until
// its context ends.
type Stream struct {
	url             string
	buf             *Buffer
	logger          *slog.Logger
	initialInterval time.Duration
	maxInterval     time.Duration

	connected atomic.Bool
	updates   chan struct{}

	mu      sync.RWMutex
	lastErr error
}

// New builds a stream for the API at apiBase. No connection is made until Run.
func New(apiBase string, opts ...Option) (*Stream, error) {
	u, err := StreamURL(apiBase)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		url:         u,
		buf:         NewBuffer(DefaultBufferLines),
		logger:      slog.Default(),
		maxInterval: defaultMaxReconnectInterval,
		updates:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StreamURL derives the WebSocket endpoint from an API base address.
func StreamURL(apiBase string) (string, error) {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = api.DefaultAPIBase
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse api base: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse api base: missing host in %q", apiBase)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("parse api base: unsupported scheme %q", u.Scheme)
	}
	u.Path = api.MonitoringPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// URL returns the endpoint the stream dials.
func (s *Stream) URL() string { return s.url }

// Messages returns the buffered history oldest first.
func (s *Stream) Messages() []Message { return s.buf.Messages() }

// Lines returns the buffered history rendered as text.
func (s *Stream) Lines() []string {
	msgs := s.buf.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Raw
	}
	return out
}

// Clear drops the buffered history.
func (s *Stream) Clear() {
	s.buf.Reset()
	s.notify()
}

// Total counts every message received, including evicted ones.
func (s *Stream) Total() uint64 { return s.buf.Total() }

// Connected reports whether a session is currently open.
func (s *Stream) Connected() bool { return s.connected.Load() }

// Updates signals, coalesced, whenever history or connection state changes.
func (s *Stream) Updates() <-chan struct{} { return s.updates }

// LastError returns the most recent connection failure, if any.
func (s *Stream) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Run dials the endpoint and keeps a session alive until ctx ends. It always
// returns ctx.Err().
func (s *Stream) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	if s.initialInterval > 0 {
		bo.InitialInterval = s.initialInterval
	}
	bo.MaxInterval = s.maxInterval

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.Dial(ctx, s.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			connectsTotal.WithLabelValues("error").Inc()
			s.fail(fmt.Errorf("dial %s: %w", s.url, err))
		} else {
			connectsTotal.WithLabelValues("ok").Inc()
			bo.Reset()
			conn.SetReadLimit(readLimit)
			s.setConnected(true)
			s.setError(nil)
			s.logger.Info("monitoring connected", "url", s.url)

			err = s.readLoop(ctx, conn)
			_ = conn.Close(websocket.StatusNormalClosure, "")
			s.setConnected(false)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				s.fail(fmt.Errorf("monitoring session: %w", err))
			} else {
				s.logger.Info("monitoring closed by server", "url", s.url)
			}
		}

		sleep := bo.NextBackOff()
		if sleep == backoff.Stop {
			sleep = s.maxInterval
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// readLoop returns nil when the server closes normally.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if status := websocket.CloseStatus(err); status != -1 {
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					return nil
				}
				return fmt.Errorf("remote closed with status %d", status)
			}
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.MessageText {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			s.buf.Add(ParseLine(line))
			messagesTotal.Inc()
		}
		s.notify()
	}
}

func (s *Stream) fail(err error) {
	s.setError(err)
	s.logger.Warn("monitoring unavailable", "url", s.url, "error", err)
}

func (s *Stream) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Stream) setConnected(v bool) {
	s.connected.Store(v)
	if v {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
	s.notify()
}

func (s *Stream) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
