// Package types provides shared data structures for the agency desktop backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Window: Open application instance with geometry and stacking state
//   - Notification: Transient desktop toast
//   - ChatMessage, Email: Narrative content deliveries
//   - Event: State-change broadcast for connected clients
//
// Geometry:
//   - Position, Size, Bounds, Viewport: Window geometry primitives
//   - SizeTier: Default-size bucket for an app type
package types
