// Package app is the composition root of ufosure.
//
// # Overview
//
// Setup loads the TOML configuration, resolves the build mode, opens the log
// file and builds the API client, the system store and the script runner.
// Nothing in Setup touches the network. Run adds the monitoring stream, the
// optional Prometheus endpoint and the Bubble Tea UI on top of that Env.
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> Setup()               config, logging, client, store, scripts
//	       ├─────> monitor.Stream.Run()  websocket reader (goroutine)
//	       ├─────> ServeMetrics()        only when metrics_addr is set
//	       ├─────> state.System.Start()  initial load, result on a channel
//	       └─────> ui.Run()              TUI (blocks)
//
// The store is loaded exactly once at startup and afterwards only on request
// (the r key or a CLI command). There is no background polling.
//
// # Command line
//
// NewCommand builds the urfave/cli root command. Without a subcommand it
// starts the TUI. The non-interactive subcommands share Setup:
//
//	ufosure version
//	ufosure algorithm get|list|set <name>|clear|reset
//	ufosure script list|run <name>
//
// Each API request of a subcommand is bounded by --timeout. Script runs are
// bounded only by the process context.
//
// # Error Handling
//
// Configuration, logging and client construction errors are fatal and
// returned from Setup. Network failures inside the TUI are shown in the
// header and never end the program. Subcommands return the API's
// *api.RequestError unchanged so the fixed failure message reaches the user.
package app
