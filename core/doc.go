// Package core provides the foundational domain types shared across the
// assistant runtime:
//
//   - Messages (immutable conversation entries with user/assistant/tool roles)
//   - ToolCalls (transient model-issued invocation requests)
//   - ID generation
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration, concrete tools) out of scope so every other package can
// depend on it without cycles.
package core
