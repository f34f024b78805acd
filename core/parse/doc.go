// Package parse converts raw model output into Go values. Models wrap JSON in
// prose or markdown fences, emit trailing commas, or echo schema envelopes, so
// [ParseStringAs] applies candidate extraction, jsonrepair, and envelope
// unwrapping before reporting an error.
package parse
