// Package logging provides a minimal logging interface, the env-filter
// grammar, and the one-time process logger.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) used by the engine, the registry and the cgo surface. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - Filter / ParseFilter for "warn,engine=debug" style level selection
//   - Singleton, whose first Init wins and whose later calls are no-ops
//
// Usage:
//
//	if err := logging.Init("info,registry=debug"); err != nil {
//	    return err
//	}
//	log := logging.Component("registry")
//	log.Debug("chain added", "chain_id", id)
package logging
