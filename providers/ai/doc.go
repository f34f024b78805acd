// Package ai defines the provider-agnostic request and response types used to
// talk to language models. Each backend (see the anthropic subpackage) maps
// [ChatRequest] and [ChatResponse] to its own wire format so the rest of radar
// never depends on provider details.
package ai
