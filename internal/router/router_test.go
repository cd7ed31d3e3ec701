package router

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls atomic.Int32
	view  string
	err   error
}

func (c *countingLoader) load() (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return c.view, nil
}

func defaultTable(t *testing.T) (*Router[string], map[string]*countingLoader) {
	t.Helper()
	loaders := map[string]*countingLoader{
		"home":          {view: "home-view"},
		"script-runner": {view: "script-view"},
		"logger":        {view: "logger-view"},
		"settings":      {view: "settings-view"},
	}
	r, err := New("/",
		Route[string]{Path: "/", Name: "home", Load: loaders["home"].load},
		Route[string]{Path: "/script", Name: "script-runner", Load: loaders["script-runner"].load},
		Route[string]{Path: "/logger", Name: "logger", Load: loaders["logger"].load},
		Route[string]{Path: "/settings", Name: "settings", Load: loaders["settings"].load},
	)
	require.NoError(t, err)
	return r, loaders
}

func TestResolveKnownPaths(t *testing.T) {
	r, _ := defaultTable(t)

	tests := []struct {
		path string
		name string
		view string
	}{
		{"/", "home", "home-view"},
		{"/script", "script-runner", "script-view"},
		{"/logger", "logger", "logger-view"},
		{"/settings", "settings", "settings-view"},
		{"/logger/", "logger", "logger-view"},
		{"script", "script-runner", "script-view"},
		{"/settings?tab=theme", "settings", "settings-view"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := r.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.name, m.Name)
			assert.Equal(t, tt.view, m.View)
		})
	}
}

func TestResolveUnknownPath(t *testing.T) {
	r, _ := defaultTable(t)

	_, err := r.Resolve("/unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRoute))
	assert.False(t, r.Has("/unknown"))

	_, err = r.ResolveName("missing")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestLoaderIsLazyAndMemoised(t *testing.T) {
	r, loaders := defaultTable(t)

	for name, l := range loaders {
		assert.Zero(t, l.calls.Load(), "loader %s ran before resolution", name)
	}

	for i := 0; i < 3; i++ {
		_, err := r.Resolve("/script")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, loaders["script-runner"].calls.Load())
	assert.Zero(t, loaders["logger"].calls.Load())

	infos := r.Routes()
	require.Len(t, infos, 4)
	assert.True(t, infos[1].Loaded)
	assert.False(t, infos[2].Loaded)
}

func TestLoaderConcurrentResolution(t *testing.T) {
	r, loaders := defaultTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve("/logger")
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, loaders["logger"].calls.Load())
}

func TestLoaderFailureIsRetried(t *testing.T) {
	l := &countingLoader{err: errors.New("boom")}
	r, err := New("/", Route[string]{Path: "/", Name: "home", Load: l.load})
	require.NoError(t, err)

	_, err = r.Resolve("/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	l.err = nil
	l.view = "ok"
	m, err := r.Resolve("/")
	require.NoError(t, err)
	assert.Equal(t, "ok", m.View)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestNewRejectsMalformedTables(t *testing.T) {
	load := func() (string, error) { return "", nil }

	tests := []struct {
		name   string
		routes []Route[string]
	}{
		{"empty table", nil},
		{"empty slot", []Route[string]{{Path: "/", Name: "home", Load: load}, {}}},
		{"missing name", []Route[string]{{Path: "/x", Load: load}}},
		{"missing loader", []Route[string]{{Path: "/x", Name: "x"}}},
		{"duplicate path", []Route[string]{{Path: "/x", Name: "a", Load: load}, {Path: "/x/", Name: "b", Load: load}}},
		{"duplicate name", []Route[string]{{Path: "/a", Name: "x", Load: load}, {Path: "/b", Name: "x", Load: load}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("/", tt.routes...)
			assert.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestNextPrevCycle(t *testing.T) {
	r, _ := defaultTable(t)

	assert.Equal(t, "/script", r.Next("/"))
	assert.Equal(t, "/", r.Next("/settings"))
	assert.Equal(t, "/settings", r.Prev("/"))
	assert.Equal(t, "/script", r.Prev("/logger"))
	assert.Equal(t, "/", r.Next("/nowhere"))
	assert.Equal(t, "/", r.Home())
}

func TestHrefAndLocation(t *testing.T) {
	r, _ := defaultTable(t)
	assert.Equal(t, "/#/script", r.Href("/script"))

	app, err := New("app", Route[string]{Path: "/", Name: "home", Load: func() (string, error) { return "", nil }})
	require.NoError(t, err)
	assert.Equal(t, "/app/", app.Base())
	assert.Equal(t, "/app/#/", app.Href(""))

	tests := map[string]string{
		"#/script":            "/script",
		"/#/logger":           "/logger",
		"/app/#/settings?x=1": "/settings",
		"":                    "/",
		"#":                   "/",
		"/logger":             "/logger",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLocation(in), "ParseLocation(%q)", in)
	}

	m, err := r.ResolveLocation("/#/logger")
	require.NoError(t, err)
	assert.Equal(t, "logger", m.Name)
}
