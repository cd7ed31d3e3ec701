package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultCommandRate is the number of robot commands allowed per second.
const DefaultCommandRate = 5.0

// Robot is the command surface scripts drive. *api.Client satisfies it.
type Robot interface {
	SetSpeed(ctx context.Context, speed int) error
	SetLogging(ctx context.Context, enabled bool) error
	DestinationReached(ctx context.Context) error
	FollowLine(ctx context.Context) error
	Turn(ctx context.Context, angle int, snap bool) error
	Reset(ctx context.Context) (string, error)
	SetAlgorithm(ctx context.Context, name *string) (json.RawMessage, error)
}

// EventKind classifies run output.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventCommand EventKind = "command"
	EventOutput  EventKind = "output"
	EventError   EventKind = "error"
	EventDone    EventKind = "done"
)

// Event is one line of run output.
type Event struct {
	RunID  string
	Script string
	Kind   EventKind
	Time   time.Time
	Text   string
}

// Sink receives run events on the running goroutine.
type Sink func(Event)

// Result summarises a finished run.
type Result struct {
	RunID    string
	Script   string
	Commands int
	Started  time.Time
	Finished time.Time
}

// Duration returns how long the run took.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCommandRate sets commands per second. Zero or less keeps the default.
func WithCommandRate(perSecond float64) RunnerOption {
	return func(r *Runner) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRunnerLogger sets the diagnostics logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes scripts against a robot.
type Runner struct {
	loader  *Loader
	robot   Robot
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRunner returns a runner for scripts from loader.
func NewRunner(loader *Loader, robot Robot, opts ...RunnerOption) *Runner {
	r := &Runner{
		loader:  loader,
		robot:   robot,
		limiter: rate.NewLimiter(rate.Limit(DefaultCommandRate), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loader returns the script catalog.
func (r *Runner) Loader() *Loader {
	return r.loader
}

// Run executes the named script on the calling goroutine. The first failing
// command aborts the run and is returned.
func (r *Runner) Run(ctx context.Context, name string, sink Sink) (Result, error) {
	s, err := r.loader.Get(name)
	if err != nil {
		return Result{}, err
	}
	exec := &execution{
		runner: r,
		sink:   sink,
		res: Result{
			RunID:   uuid.NewString(),
			Script:  s.Name,
			Started: time.Now(),
		},
	}
	logger := r.logger.With("script", s.Name, "run_id", exec.res.RunID)
	logger.Info("script run started", "kind", s.Kind)
	exec.emit(EventStart, "run "+s.Name)

	switch s.Kind {
	case KindJS:
		err = exec.runJS(ctx, s)
	case KindYAML:
		err = exec.runSteps(ctx, s.steps)
	default:
		err = fmt.Errorf("unsupported script kind %q", s.Kind)
	}
	exec.res.Finished = time.Now()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "canceled"
		}
		exec.emit(EventError, err.Error())
		logger.Warn("script run failed", "error", err, "commands", exec.res.Commands)
	} else {
		logger.Info("script run finished", "commands", exec.res.Commands, "duration", exec.res.Duration())
	}
	runsTotal.WithLabelValues(string(s.Kind), outcome).Inc()
	exec.emit(EventDone, outcome)
	return exec.res, err
}

type execution struct {
	runner *Runner
	sink   Sink
	res    Result

	mu      sync.Mutex
	failure error
}

func (e *execution) emit(kind EventKind, text string) {
	if e.sink == nil {
		return
	}
	e.sink(Event{RunID: e.res.RunID, Script: e.res.Script, Kind: kind, Time: time.Now(), Text: text})
}

func (e *execution) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure == nil {
		e.failure = err
	}
}

func (e *execution) failed() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}

// command waits for the limiter then performs one robot call.
func (e *execution) command(ctx context.Context, step Step) error {
	if err := e.runner.limiter.Wait(ctx); err != nil {
		return err
	}
	e.emit(EventCommand, step.String())
	e.res.Commands++

	robot := e.runner.robot
	var err error
	switch step.Action {
	case ActionSpeed:
		err = robot.SetSpeed(ctx, step.Speed)
	case ActionTurn:
		err = robot.Turn(ctx, step.Angle, step.Snap)
	case ActionFollow:
		err = robot.FollowLine(ctx)
	case ActionDestinationReached:
		err = robot.DestinationReached(ctx)
	case ActionLogging:
		err = robot.SetLogging(ctx, step.Enabled)
	case ActionReset:
		var out string
		out, err = robot.Reset(ctx)
		if err == nil && strings.TrimSpace(out) != "" {
			e.emit(EventOutput, strings.TrimSpace(out))
		}
	case ActionAlgorithm:
		_, err = robot.SetAlgorithm(ctx, step.Algorithm)
	default:
		err = fmt.Errorf("unknown command %q", step.Action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", step.String(), err)
	}
	return nil
}

func (e *execution) runSteps(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch step.Action {
		case ActionSleep:
			if err := sleep(ctx, step.Duration); err != nil {
				return err
			}
		case ActionLog:
			e.emit(EventOutput, step.Message)
		default:
			if err := e.command(ctx, step); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
