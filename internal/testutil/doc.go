// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing chain specifications and JSON-RPC
// requests, and a scriptable core.Engine for exercising the registry and the
// C surface without the reference engine. They are not intended for
// production usage.
package testutil
