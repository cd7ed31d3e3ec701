// Package state holds the system-level display fields shared by the views.
//
// # Overview
//
// System is an explicitly constructed context object. NewSystem performs no
// I/O: the API version is "" and the algorithm is nil until a load resolves.
// The owning shell decides when to populate it:
//
//	store := state.NewSystem(client, buildinfo.Current())
//	done := store.Start(ctx)   // returns immediately
//	...
//	if err := <-done; err != nil {
//		// render an error state; store.Reload(ctx) retries on demand
//	}
//
// Load fetches /api/version and /api/system/algorithm concurrently. Each field
// is assigned only when its own request succeeds, so a failing algorithm fetch
// never hides a freshly fetched version.
//
// # Write Paths
//
// The algorithm is changed only through SetAlgorithm and ResetAlgorithm, and
// only after the server accepted the change. ResetAlgorithm re-reads the active
// algorithm afterwards because the server decides what "reset" means. Loads and
// writes are serialised so a reload cannot interleave with a set.
//
// # Concurrency Model
//
// Snapshot takes a read lock and returns a copy (algorithm pointer and error
// included); writers take the write lock only to assign fields, never while
// waiting on the network. Views call Snapshot on every tick.
//
// # Derived Values
//
// UIVersion combines the link-time application version with " (dev)" for
// development builds (see package buildinfo).
//
// # Error Propagation
//
//   - LastError: error of the latest load (nil on success)
//   - ConsecutiveFailures: failed loads in a row; IsOffline after two
//   - Loaded: at least one load completed without error
//
// Setter failures are returned to the caller and leave the snapshot untouched.
package state
