// Package model defines the abstract generation contract the orchestrator
// depends on: a normalized Request (system prompt, message history, tool
// declarations) and a channel of partial/final Responses. Provider adapters
// live in subpackages (openai, anthropic); a scriptable MockModel supports
// tests.
package model
