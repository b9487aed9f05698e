// Package orchestrator drives conversation turns: it assembles model input
// from session memory, runs the bounded tool loop, commits completed
// exchanges back into memory and feeds them to the history index.
package orchestrator
