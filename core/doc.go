// Package core provides the foundational domain types and interfaces shared by
// the light-client bridge. It defines:
//
//   - ChainID, the opaque handle identifying one registered chain
//   - Engine, the narrow contract consumed from the light-client engine
//   - AddChainConfig / AddChainSuccess, the registration request and result
//   - Sentinel errors an Engine reports when it rejects a chain or request
//
// Implementation concerns (the engine itself, the handle registry, the cgo
// boundary) live in other packages and depend on these contracts only.
package core
