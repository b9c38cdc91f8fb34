// Package main is the entry point for the agency backend server.
//
// The server hosts the in-browser agency desktop: window management,
// notifications, chat and mail delivery, the conduct ladder, and the
// ending orchestrator, with state snapshotted to disk between runs.
//
// The frontend talks to it over REST for commands and a WebSocket for
// state pushes:
//
//	Frontend (browser) → REST commands → domain managers
//	                   ← WebSocket events ← hub
//
// Configuration comes from environment variables (a .env file is read
// if present); defaults suit local development.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
