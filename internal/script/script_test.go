package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hslu-pren/ufosure/internal/api"
)

type fakeRobot struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (f *fakeRobot) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failOn != "" && f.failOn == call {
		return &api.RequestError{Op: "test", Message: "Failed to " + call}
	}
	return nil
}

func (f *fakeRobot) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRobot) SetSpeed(_ context.Context, speed int) error {
	if speed < api.MinSpeed || speed > api.MaxSpeed {
		return api.ErrInvalidArgument
	}
	return f.record("speed " + itoa(speed))
}

func (f *fakeRobot) SetLogging(_ context.Context, enabled bool) error {
	if enabled {
		return f.record("logging on")
	}
	return f.record("logging off")
}

func (f *fakeRobot) DestinationReached(context.Context) error { return f.record("destination") }
func (f *fakeRobot) FollowLine(context.Context) error         { return f.record("follow") }

func (f *fakeRobot) Turn(_ context.Context, angle int, snap bool) error {
	if snap {
		return f.record("turn " + itoa(angle) + " snap")
	}
	return f.record("turn " + itoa(angle))
}

func (f *fakeRobot) Reset(context.Context) (string, error) {
	return "reset done", f.record("reset")
}

func (f *fakeRobot) SetAlgorithm(_ context.Context, name *string) (json.RawMessage, error) {
	if name == nil {
		return json.RawMessage(`null`), f.record("algorithm null")
	}
	return json.RawMessage(`{}`), f.record("algorithm " + *name)
}

func itoa(n int) string { return strconv.Itoa(n) }

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func newRunner(t *testing.T, files map[string]string, robot Robot) *Runner {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		writeScript(t, dir, name, body)
	}
	loader, err := NewLoader(dir)
	require.NoError(t, err)
	require.NoError(t, loader.Refresh(context.Background()))
	return NewRunner(loader, robot, WithCommandRate(1000))
}

func collect() (Sink, func() []Event) {
	var mu sync.Mutex
	var events []Event
	return func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}, func() []Event {
			mu.Lock()
			defer mu.Unlock()
			return append([]Event(nil), events...)
		}
}

func TestLoaderCatalog(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "Square.js", "// drive a square\nufo.speed(40);\n")
	writeScript(t, dir, "park.yaml", "description: park the ufo\nsteps:\n  - speed: 0\n  - destination-reached\n")
	writeScript(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.js"), 0o750))

	loader, err := NewLoader(dir)
	require.NoError(t, err)
	require.NoError(t, loader.Refresh(context.Background()))

	list := loader.List()
	require.Len(t, list, 2)
	assert.Equal(t, "park", list[0].Name)
	assert.Equal(t, KindYAML, list[0].Kind)
	assert.Equal(t, 2, list[0].Steps)
	assert.Equal(t, "park the ufo", list[0].Description)
	assert.Equal(t, "square", list[1].Name)
	assert.Equal(t, "drive a square", list[1].Description)
	assert.Len(t, list[1].Hash, 64)

	s, err := loader.Get(" SQUARE ")
	require.NoError(t, err)
	assert.Equal(t, "Square.js", s.File)

	_, err = loader.Get("missing")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestLoaderRejectsBrokenScripts(t *testing.T) {
	tests := map[string]string{
		"bad.js":     "ufo.speed(",
		"bad.yaml":   "steps:\n  - fly: 3\n",
		"range.yaml": "steps:\n  - speed: 101\n",
		"turn.yaml":  "steps:\n  - turn: {angle: 200}\n",
		"empty.yaml": "description: nothing\n",
		"two.yaml":   "steps:\n  - {speed: 1, turn: 2}\n",
	}
	for file, body := range tests {
		t.Run(file, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, file, body)
			loader, err := NewLoader(dir)
			require.NoError(t, err)
			assert.Error(t, loader.Refresh(context.Background()))
			assert.Empty(t, loader.List())
		})
	}
}

func TestLoaderRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "drive.js", "ufo.follow();")
	writeScript(t, dir, "drive.yml", "steps: [follow]\n")
	loader, err := NewLoader(dir)
	require.NoError(t, err)
	err = loader.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestStepDecoding(t *testing.T) {
	var doc stepsFile
	src := `
steps:
  - speed: -40
  - turn: 90
  - turn: {angle: -45, snap: true}
  - follow
  - logging: true
  - algorithm: RoadSenseAlgorithm
  - algorithm: null
  - sleep: 250ms
  - sleep: 20
  - log: hello
  - reset
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.Len(t, doc.Steps, 11)

	assert.Equal(t, Step{Action: ActionSpeed, Speed: -40}, doc.Steps[0])
	assert.Equal(t, 90, doc.Steps[1].Angle)
	assert.Equal(t, Step{Action: ActionTurn, Angle: -45, Snap: true}, doc.Steps[2])
	assert.Equal(t, ActionFollow, doc.Steps[3].Action)
	assert.True(t, doc.Steps[4].Enabled)
	require.NotNil(t, doc.Steps[5].Algorithm)
	assert.Equal(t, "RoadSenseAlgorithm", *doc.Steps[5].Algorithm)
	assert.Nil(t, doc.Steps[6].Algorithm)
	assert.Equal(t, 250*time.Millisecond, doc.Steps[7].Duration)
	assert.Equal(t, 20*time.Millisecond, doc.Steps[8].Duration)
	assert.Equal(t, "hello", doc.Steps[9].Message)
	assert.False(t, doc.Steps[9].Action.IsCommand())
	assert.True(t, doc.Steps[10].Action.IsCommand())
	assert.Equal(t, "turn -45 snap", doc.Steps[2].String())
}

func TestRunYAML(t *testing.T) {
	robot := &fakeRobot{}
	r := newRunner(t, map[string]string{
		"tour.yaml": "steps:\n  - speed: 50\n  - log: going\n  - turn: {angle: 90, snap: true}\n  - sleep: 1ms\n  - algorithm: null\n  - reset\n",
	}, robot)

	sink, events := collect()
	res, err := r.Run(context.Background(), "tour", sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"speed 50", "turn 90 snap", "algorithm null", "reset"}, robot.Calls())
	assert.Equal(t, 4, res.Commands)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Finished.Before(res.Started))

	evs := events()
	require.NotEmpty(t, evs)
	assert.Equal(t, EventStart, evs[0].Kind)
	assert.Equal(t, EventDone, evs[len(evs)-1].Kind)
	assert.Equal(t, "ok", evs[len(evs)-1].Text)
	for _, ev := range evs {
		assert.Equal(t, res.RunID, ev.RunID)
	}
	var outputs []string
	for _, ev := range evs {
		if ev.Kind == EventOutput {
			outputs = append(outputs, ev.Text)
		}
	}
	assert.Equal(t, []string{"going", "reset done"}, outputs)
}

func TestRunJS(t *testing.T) {
	robot := &fakeRobot{}
	r := newRunner(t, map[string]string{
		"square.js": `
for (var i = 0; i < 2; i++) {
  ufo.speed(30);
  ufo.turn(90, true);
}
ufo.setAlgorithm("OverSightAlgorithm");
ufo.setAlgorithm(null);
ufo.logging(false);
ufo.follow();
ufo.destinationReached();
sleep(1);
log("done", 2);
`,
	}, robot)

	sink, events := collect()
	res, err := r.Run(context.Background(), "square", sink)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"speed 30", "turn 90 snap", "speed 30", "turn 90 snap",
		"algorithm OverSightAlgorithm", "algorithm null",
		"logging off", "follow", "destination",
	}, robot.Calls())
	assert.Equal(t, 9, res.Commands)

	found := false
	for _, ev := range events() {
		if ev.Kind == EventOutput && ev.Text == "done 2" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	robot := &fakeRobot{failOn: "follow"}
	r := newRunner(t, map[string]string{
		"caught.js":  "try { ufo.follow(); } catch (e) {}\nufo.speed(10);\n",
		"steps.yaml": "steps:\n  - follow\n  - speed: 10\n",
	}, robot)

	for _, name := range []string{"caught", "steps"} {
		t.Run(name, func(t *testing.T) {
			robot.mu.Lock()
			robot.calls = nil
			robot.mu.Unlock()

			_, err := r.Run(context.Background(), name, nil)
			require.Error(t, err)
			var reqErr *api.RequestError
			assert.True(t, errors.As(err, &reqErr))
			assert.Equal(t, []string{"follow"}, robot.Calls())
		})
	}
}

func TestRunRejectsOutOfRangeJSArguments(t *testing.T) {
	robot := &fakeRobot{}
	r := newRunner(t, map[string]string{"fast.js": "ufo.speed(500);"}, robot)

	_, err := r.Run(context.Background(), "fast", nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Empty(t, robot.Calls())
}

func TestRunCancelInterruptsVM(t *testing.T) {
	r := newRunner(t, map[string]string{"spin.js": "while (true) {}"}, &fakeRobot{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Run(ctx, "spin", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunPacesCommands(t *testing.T) {
	robot := &fakeRobot{}
	dir := t.TempDir()
	writeScript(t, dir, "burst.yaml", "steps:\n  - follow\n  - follow\n  - follow\n")
	loader, err := NewLoader(dir)
	require.NoError(t, err)
	require.NoError(t, loader.Refresh(context.Background()))
	r := NewRunner(loader, robot, WithCommandRate(20))

	start := time.Now()
	_, err = r.Run(context.Background(), "burst", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Len(t, robot.Calls(), 3)
}

func TestRunUnknownScript(t *testing.T) {
	r := newRunner(t, nil, &fakeRobot{})
	_, err := r.Run(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrScriptNotFound)
}
