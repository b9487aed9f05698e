// Package memory implements the bounded per-session message window replayed
// to the model on each turn.
package memory
