package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/hslu-pren/ufosure/internal/script"
)

const (
	formatText = "text"
	formatJSON = "json"

	defaultRequestTimeout = 10 * time.Second
)

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Usage: "Output format (text, json)",
	Value: formatText,
}

// NewCommand returns the ufosure root command. Without a subcommand it starts
// the terminal UI.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:                  moduleName,
		Usage:                 "Terminal console for the UFO robot API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Config file (default is ~/.config/ufosure/config.toml)",
			},
			&cli.StringFlag{
				Name:  "prefs",
				Usage: "Preferences file (default is ~/.config/ufosure/prefs.toml)",
			},
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Robot API address, overrides api_base",
				Sources: cli.EnvVars("UFOSURE_API"),
			},
			&cli.StringFlag{
				Name:  "route",
				Usage: "Initial view of the terminal UI (/, /script, /logger, /settings)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for each API request of non-interactive commands",
				Value: defaultRequestTimeout,
			},
		},
		Action: tuiAction,
		Commands: []*cli.Command{
			tuiCmd(),
			versionCmd(),
			algorithmCmd(),
			scriptCmd(),
		},
	}
}

func tuiCmd() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Start the terminal UI (default)",
		Action: tuiAction,
	}
}

func tuiAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	if route := cmd.Root().String("route"); route != "" {
		opts.Location = "#" + route
	}
	return Run(ctx, opts)
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the console and robot API versions",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
				fmt.Fprintf(w, "ufosure %s\n", env.Store.UIVersion())
				version, err := env.Client.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "api     %s\n", strings.TrimSpace(version))
				return nil
			})
		},
	}
}

func algorithmCmd() *cli.Command {
	return &cli.Command{
		Name:  "algorithm",
		Usage: "Inspect or change the robot's active algorithm",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the active algorithm",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						if err := env.Store.Load(ctx); err != nil {
							return err
						}
						name := env.Store.Snapshot().AlgorithmName()
						if name == "" {
							name = "none"
						}
						fmt.Fprintln(w, name)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List the algorithms the robot offers",
				Flags: []cli.Flag{formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := parseFormat(cmd.String("format"))
					if err != nil {
						return err
					}
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						names, err := env.Client.AlgorithmList(ctx)
						if err != nil {
							return err
						}
						if format == formatJSON {
							return writeJSON(w, names)
						}
						for _, name := range names {
							fmt.Fprintln(w, name)
						}
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Activate an algorithm",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := strings.TrimSpace(cmd.Args().First())
					if name == "" {
						return errors.New("algorithm name is required")
					}
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						if err := env.Store.SetAlgorithm(ctx, &name); err != nil {
							return err
						}
						fmt.Fprintf(w, "Algorithm set to %s\n", name)
						return nil
					})
				},
			},
			{
				Name:  "clear",
				Usage: "Unset the active algorithm",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						if err := env.Store.SetAlgorithm(ctx, nil); err != nil {
							return err
						}
						fmt.Fprintln(w, "Algorithm cleared")
						return nil
					})
				},
			},
			{
				Name:  "reset",
				Usage: "Reset the active algorithm",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						text, err := env.Store.ResetAlgorithm(ctx)
						if err != nil {
							return err
						}
						fmt.Fprintln(w, strings.TrimSpace(text))
						return nil
					})
				},
			},
		},
	}
}

func scriptCmd() *cli.Command {
	return &cli.Command{
		Name:  "script",
		Usage: "List or run robot scripts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List scripts in the script directory",
				Flags: []cli.Flag{formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := parseFormat(cmd.String("format"))
					if err != nil {
						return err
					}
					return withEnv(ctx, cmd, func(ctx context.Context, env *Env, w io.Writer) error {
						loader := env.Scripts.Loader()
						refreshErr := loader.Refresh(ctx)
						list := loader.List()
						if format == formatJSON {
							if err := writeJSON(w, list); err != nil {
								return err
							}
							return refreshErr
						}
						if err := writeScriptTable(w, list); err != nil {
							return err
						}
						return refreshErr
					})
				},
			},
			{
				Name:      "run",
				Usage:     "Run a script against the robot",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := strings.TrimSpace(cmd.Args().First())
					if name == "" {
						return errors.New("script name is required")
					}
					// Scripts run until they finish; --timeout does not apply.
					env, err := Setup(optionsFrom(cmd))
					if err != nil {
						return err
					}
					defer env.Close()

					w := cmd.Root().Writer
					if err := env.Scripts.Loader().Refresh(ctx); err != nil {
						env.Logger.Warn("some scripts failed to load", "error", err)
					}
					res, err := env.Scripts.Run(ctx, name, func(ev script.Event) {
						fmt.Fprintf(w, "%s %-7s %s\n", ev.Time.Format("15:04:05.000"), ev.Kind, ev.Text)
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%d commands in %s\n", res.Commands, res.Duration().Round(time.Millisecond))
					return nil
				},
			},
		},
	}
}

// optionsFrom reads the root flags.
func optionsFrom(cmd *cli.Command) Options {
	root := cmd.Root()
	return Options{
		ConfigPath: root.String("config"),
		PrefsPath:  root.String("prefs"),
		APIBase:    root.String("api"),
	}
}

// withEnv wires an Env for one non-interactive command and bounds fn by the
// request timeout.
func withEnv(ctx context.Context, cmd *cli.Command, fn func(context.Context, *Env, io.Writer) error) error {
	env, err := Setup(optionsFrom(cmd))
	if err != nil {
		return err
	}
	defer env.Close()

	if timeout := cmd.Root().Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := fn(ctx, env, cmd.Root().Writer); err != nil {
		env.Logger.Error("command failed", "command", cmd.FullName(), "error", err)
		return err
	}
	return nil
}

func parseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatText, "":
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeScriptTable(w io.Writer, list []script.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Kind, s.Description)
	}
	return tw.Flush()
}
