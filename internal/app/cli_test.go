package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hslu-pren/ufosure/internal/logging"
)

// robotServer is a minimal stand-in for the robot API.
type robotServer struct {
	mu        sync.Mutex
	algorithm string
	commands  []string
}

func (r *robotServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ufo-real 1.0.5")
	})
	mux.HandleFunc("GET /api/system/algorithm", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, _ = io.WriteString(w, r.algorithm)
	})
	mux.HandleFunc("GET /api/system/algorithms", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `["RoadSenseAlgorithm","OverSightAlgorithm"]`)
	})
	mux.HandleFunc("PUT /api/system/algorithm", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.algorithm = req.URL.Query().Get("name")
		r.commands = append(r.commands, "algorithm "+r.algorithm)
		_, _ = fmt.Fprintf(w, `{"algorithm":%q}`, r.algorithm)
	})
	mux.HandleFunc("POST /api/system/algorithm/reset", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.algorithm = "null"
		_, _ = io.WriteString(w, "Algorithm reset")
	})
	mux.HandleFunc("POST /api/command/{name}", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.commands = append(r.commands, strings.TrimSpace(req.PathValue("name")+" "+string(body)))
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (r *robotServer) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

type cliFixture struct {
	robot      *robotServer
	url        string
	configPath string
	scriptDir  string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	t.Setenv("UFOSURE_MODE", "production")
	t.Setenv("LOG_LEVEL", "")

	robot := &robotServer{algorithm: "RoadSenseAlgorithm"}
	srv := httptest.NewServer(robot.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	scriptDir := filepath.Join(dir, "scripts")
	configPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("api_base = %q\nscript_dir = %q\nlog_file = %q\ncommand_rate = 100\n",
		srv.URL, scriptDir, filepath.Join(dir, "ufosure.log"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	return &cliFixture{robot: robot, url: srv.URL, configPath: configPath, scriptDir: scriptDir}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	full := append([]string{"ufosure", "--config", f.configPath, "--prefs", filepath.Join(t.TempDir(), "prefs.toml")}, args...)
	err := cmd.Run(ctx, full)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ufosure 0.0.0\n")
	assert.Contains(t, out, "api     ufo-real 1.0.5\n")
}

func TestAlgorithmCommands(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "algorithm", "get")
	require.NoError(t, err)
	assert.Equal(t, "RoadSenseAlgorithm\n", out)

	out, err = f.run(t, "algorithm", "set", "OverSightAlgorithm")
	require.NoError(t, err)
	assert.Equal(t, "Algorithm set to OverSightAlgorithm\n", out)

	out, err = f.run(t, "algorithm", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Algorithm cleared\n", out)

	out, err = f.run(t, "algorithm", "get")
	require.NoError(t, err)
	assert.Equal(t, "none\n", out)

	assert.Equal(t, []string{"algorithm OverSightAlgorithm", "algorithm null"}, f.robot.recorded())
}

func TestAlgorithmReset(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "algorithm", "reset")
	require.NoError(t, err)
	assert.Equal(t, "Algorithm reset\n", out)
}

func TestAlgorithmSetRequiresName(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "algorithm", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "algorithm name is required")
	assert.Empty(t, f.robot.recorded())
}

func TestAlgorithmListFormats(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "algorithm", "list")
	require.NoError(t, err)
	assert.Equal(t, "RoadSenseAlgorithm\nOverSightAlgorithm\n", out)

	out, err = f.run(t, "algorithm", "list", "--format", "json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"RoadSenseAlgorithm", "OverSightAlgorithm"}, names)

	_, err = f.run(t, "algorithm", "list", "--format", "xml")
	require.Error(t, err)
}

func TestAPIFailureReturnsFixedMessage(t *testing.T) {
	f := newCLIFixture(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer down.Close()

	_, err := f.run(t, "--api", down.URL, "algorithm", "list")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch algorithm list", err.Error())
}

func TestScriptListAndRun(t *testing.T) {
	f := newCLIFixture(t)
	require.NoError(t, os.MkdirAll(f.scriptDir, 0o750))
	yaml := "description: Drive a square corner\nsteps:\n  - speed: 40\n  - turn: {angle: 90, snap: true}\n  - log: corner done\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.scriptDir, "corner.yaml"), []byte(yaml), 0o600))

	out, err := f.run(t, "script", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "corner")
	assert.Contains(t, out, "Drive a square corner")

	out, err = f.run(t, "script", "run", "corner")
	require.NoError(t, err)
	assert.Contains(t, out, "corner done")
	assert.Contains(t, out, "2 commands in")

	assert.Equal(t, []string{
		`speed {"speed":40}`,
		`turn {"angle":90,"snap":true}`,
	}, f.robot.recorded())
}

func TestScriptRunUnknown(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "script", "run", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestSetupAppliesOverrides(t *testing.T) {
	f := newCLIFixture(t)
	var logs bytes.Buffer

	env, err := Setup(Options{ConfigPath: f.configPath, APIBase: "10.0.0.7:9000", LogWriter: &logs})
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "10.0.0.7:9000", env.Config.APIBase)
	assert.Equal(t, "http://10.0.0.7:9000", env.Client.BaseURL().String())
	assert.Equal(t, "0.0.0", env.Store.UIVersion())
	assert.Equal(t, f.scriptDir, env.Scripts.Loader().Root())

	env.Logger.Info("hello")
	assert.Contains(t, logs.String(), `"module":"ufosure"`)
}

func TestServeMetricsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeMetrics(ctx, "127.0.0.1:0", logging.Discard())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeMetrics did not stop after cancel")
	}
}
