// Package session implements the concurrent registry mapping session
// identifiers to their memory window and per-session turn lock.
package session
