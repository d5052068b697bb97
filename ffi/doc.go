// Package ffi implements the C calling convention of the bridge on top of a
// smolder.Client. The exported C symbols live in cmd/libsmoldot and forward
// every argument to a Surface method unchanged.
//
// Methods take and return raw pointers as unsafe.Pointer because cgo types
// cannot cross package boundaries. Inbound text is borrowed for the duration
// of the call. Outbound text is allocated with malloc, recorded in an
// ownership table and must be handed back exactly once through FreeText.
//
// Recoverable failures are reported as Status codes. Misuse of the interface
// (NULL where a pointer is required, text that is not UTF-8, releasing a
// pointer twice) is a PreconditionViolation: it is logged and then raised as
// a panic, which terminates the host process.
package ffi
