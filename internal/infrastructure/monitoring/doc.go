// Package monitoring provides Prometheus metrics for the desktop backend.
//
// Metrics cover the HTTP surface, the window manager (open count,
// lifecycle commands), the conduct state machine (warning level,
// incidents), ending sequences, the narrative scheduler, and WebSocket
// fan-out. Exposed at GET /metrics in Prometheus text format.
package monitoring
