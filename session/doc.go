// Package session turns a chain's asynchronous response channel into a
// blocking, one-at-a-time read.
//
// A Session is created when a chain is registered and is shared by every
// foreign thread that waits on that chain. Waiters take turns: exactly one is
// parked on the channel at any moment, and the rest queue behind it. The
// stream ends when the engine closes the channel, which it does when the chain
// is removed, so a waiter blocked during removal is released with the end
// marker instead of hanging.
package session
