package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hslu-pren/ufosure/internal/api"
	"github.com/hslu-pren/ufosure/internal/buildinfo"
)

// Snapshot represents the latest system data available to views.
type Snapshot struct {
	APIVersion          string  // "" until the first successful fetch
	Algorithm           *string // nil when unset or not yet fetched
	UIVersion           string
	Loaded              bool // a load has completed without error
	Loading             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed loads
}

// AlgorithmName returns the active algorithm or "" when none is set.
func (s Snapshot) AlgorithmName() string {
	if s.Algorithm == nil {
		return ""
	}
	return *s.Algorithm
}

// IsOffline returns true when the API has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// System holds the system-level display fields shared by all views. It is
// constructed explicitly and performs no I/O until Start or Load is called.
type System struct {
	api   api.SystemAPI
	build buildinfo.Info

	loadMu sync.Mutex // serialises loads and algorithm writes

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewSystem returns a store with placeholder values.
func NewSystem(client api.SystemAPI, build buildinfo.Info) *System {
	return &System{
		api:      client,
		build:    build,
		snapshot: Snapshot{UIVersion: build.DisplayVersion()},
	}
}

// UIVersion returns the application version with a " (dev)" suffix in development builds.
func (s *System) UIVersion() string {
	return s.build.DisplayVersion()
}

// Start runs the initial Load on its own goroutine and returns immediately.
// The channel receives the load result once and is then closed.
func (s *System) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Load(ctx)
	}()
	return done
}

// Load fetches the API version and active algorithm concurrently. Each field is
// assigned only when its own request succeeds; the returned error joins both
// failures. Load is idempotent and safe to call again to refresh.
func (s *System) Load(ctx context.Context) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("system store: api client required")
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.snapshot.Loading = true
	s.mu.Unlock()

	var (
		version, algorithm  string
		versionErr, algoErr error
		g                   errgroup.Group
	)
	g.Go(func() error {
		version, versionErr = s.api.Version(ctx)
		return versionErr
	})
	g.Go(func() error {
		algorithm, algoErr = s.api.Algorithm(ctx)
		return algoErr
	})
	_ = g.Wait()

	err := errors.Join(versionErr, algoErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	if versionErr == nil {
		s.snapshot.APIVersion = version
	}
	if algoErr == nil {
		s.snapshot.Algorithm = normalizeAlgorithm(algorithm)
	}
	s.snapshot.Loading = false
	s.recordLocked(err)
	return err
}

// Reload is Load under the name views use for an explicit refresh.
func (s *System) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// SetAlgorithm activates name on the robot and records it once the server
// accepted it. nil clears the algorithm.
func (s *System) SetAlgorithm(ctx context.Context, name *string) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("system store: api client required")
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if _, err := s.api.SetAlgorithm(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshot.Algorithm = cloneName(name)
	s.snapshot.LastUpdated = time.Now()
	s.mu.Unlock()
	return nil
}

// ResetAlgorithm resets the robot's algorithm and re-reads the active one so
// the store reflects what the server reports. It returns the reset response text.
func (s *System) ResetAlgorithm(ctx context.Context) (string, error) {
	if s == nil || s.api == nil {
		return "", fmt.Errorf("system store: api client required")
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	text, err := s.api.Reset(ctx)
	if err != nil {
		return "", err
	}
	algorithm, err := s.api.Algorithm(ctx)
	if err != nil {
		return text, err
	}

	s.mu.Lock()
	s.snapshot.Algorithm = normalizeAlgorithm(algorithm)
	s.snapshot.LastUpdated = time.Now()
	s.mu.Unlock()
	return text, nil
}

// Snapshot returns a copy of the current snapshot.
func (s *System) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Algorithm = cloneName(s.snapshot.Algorithm)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *System) recordLocked(err error) {
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.Loaded = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// normalizeAlgorithm maps the server's text form onto *string. The server
// renders an unset algorithm as "null" (or nothing).
func normalizeAlgorithm(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" || trimmed == "None" {
		return nil
	}
	return &trimmed
}

func cloneName(name *string) *string {
	if name == nil {
		return nil
	}
	dup := *name
	return &dup
}
