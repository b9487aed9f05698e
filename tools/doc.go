// Package tools provides the built-in assistant tools: live weather, place
// search, directions, city events and the two retrieval-backed lookups. Each
// constructor returns a tool.Tool ready for registration.
package tools
