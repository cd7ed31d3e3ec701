package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hslu-pren/ufosure/internal/api"
	"github.com/hslu-pren/ufosure/internal/buildinfo"
	"github.com/hslu-pren/ufosure/internal/config"
	"github.com/hslu-pren/ufosure/internal/logging"
	"github.com/hslu-pren/ufosure/internal/monitor"
	"github.com/hslu-pren/ufosure/internal/prefs"
	"github.com/hslu-pren/ufosure/internal/script"
	"github.com/hslu-pren/ufosure/internal/state"
	"github.com/hslu-pren/ufosure/internal/ui"
)

const moduleName = "ufosure"

// Options configure the ufosure application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/ufosure/prefs.toml
	APIBase    string // overrides api_base from the config file
	Location   string // initial view, e.g. "#/logger"; empty restores the last one
	LogWriter  io.Writer
}

// Env holds the wired components shared by the TUI and the CLI commands.
type Env struct {
	Config  config.Config
	Build   buildinfo.Info
	Logger  *slog.Logger
	Client  *api.Client
	Store   *state.System
	Scripts *script.Runner

	closer io.Closer
}

// Setup loads configuration and builds the API client, store and script
// runner. It performs no network I/O. Callers must Close the returned Env.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if base := strings.TrimSpace(opts.APIBase); base != "" {
		cfg.APIBase = base
	}

	env := &Env{Config: cfg, Build: buildinfo.Resolve(cfg.Mode)}

	if opts.LogWriter != nil {
		env.Logger = logging.New(opts.LogWriter, moduleName, env.Build.Version, cfg.LogLevel)
	} else {
		logger, closer, err := logging.OpenFile(cfg.LogFile, moduleName, env.Build.Version, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
		env.Logger, env.closer = logger, closer
	}

	client, err := api.NewClient(cfg.APIBase, api.WithUserAgent(moduleName+"/"+env.Build.Version))
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	env.Client = client
	env.Store = state.NewSystem(client, env.Build)

	loader, err := script.NewLoader(cfg.ScriptDir)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init scripts: %w", err)
	}
	env.Scripts = script.NewRunner(loader, client,
		script.WithCommandRate(cfg.CommandRate),
		script.WithRunnerLogger(env.Logger),
	)
	return env, nil
}

// Close releases the log file.
func (e *Env) Close() {
	if e == nil || e.closer == nil {
		return
	}
	_ = e.closer.Close()
	e.closer = nil
}

// Run boots the ufosure TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	logger := env.Logger
	logger.Info("starting", "api_base", env.Config.APIBase, "mode", env.Build.Mode)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := monitor.New(env.Config.APIBase,
		monitor.WithBufferLines(env.Config.BufferLines),
		monitor.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("init monitor: %w", err)
	}
	go func() {
		if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("monitor stopped", "error", err)
		}
	}()

	if env.Config.MetricsAddr != "" {
		go func() {
			if err := ServeMetrics(ctx, env.Config.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", "addr", env.Config.MetricsAddr, "error", err)
			}
		}()
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Debug("load prefs failed", "error", err)
	}
	location := opts.Location
	if location == "" {
		location = "#" + userPrefs.LastRoute
	}

	// Start the initial load now; the UI renders a loading header until it resolves.
	loadResult := env.Store.Start(ctx)

	err = ui.Run(ui.Options{
		Context:    ctx,
		API:        env.Client,
		APIBase:    env.Config.APIBase,
		Store:      env.Store,
		Monitor:    stream,
		Scripts:    env.Scripts,
		Logger:     logger,
		BasePath:   env.Config.BasePath,
		Location:   location,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		LoadResult: loadResult,
	})
	logger.Info("stopped", "error", err)
	return err
}
