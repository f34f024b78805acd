// Package utils provides shared low-level helpers for the radar adapters:
// JSON-over-HTTP round trips with span events ([Do], [DoJSON], [DoPostSync])
// and small string helpers used in logs and configuration.
package utils
