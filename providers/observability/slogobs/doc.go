// Package slogobs provides an observability.Provider implementation backed by
// Go's standard library log/slog package.
// Spans are rendered as debug log lines, metrics are kept in memory and logged
// on every update, and log calls map one-to-one onto slog levels (with an extra
// TRACE level below DEBUG).
// The main entry point is [New]; output format and log level can be tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger], or through the
// RADAR_LOG_FORMAT and RADAR_LOG_LEVEL environment variables.
package slogobs
