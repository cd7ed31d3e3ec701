// Package ui implements the ufosure terminal console with Bubble Tea.
//
// # Architecture
//
// Model is the single Bubble Tea model. It owns the window size, the theme,
// the latest system snapshot and a route table of pages. Each page (home,
// script runner, logger, settings) is built by the router the first time its
// path resolves and keeps its state across visits.
//
// All blocking work runs in tea.Cmds: store loads and algorithm writes, the
// algorithm list, script runs, and waits on the monitoring stream. Results come
// back as messages and are folded into the model in Update.
//
// # Navigation
//
//   - 1-4 select views by their position in the route table
//   - tab / shift+tab cycle views in declaration order
//   - an unknown path keeps the current view and reports the error in the
//     command bar
//
// The header shows the hash location of the current view under the
// configured base path, e.g. "/#/logger".
//
// # Errors
//
// Failures never end the program. They are rendered in the header (system
// load failures) or the command bar (actions, navigation, scripts).
package ui
