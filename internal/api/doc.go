// Package api implements the HTTP REST API and WebSocket server for the
// audio control service.
//
// This package provides:
//   - REST endpoints to add, inspect and remove devices
//   - Read access to each device's command namespace, buttons, UI pages,
//     capability snapshot and sources
//   - Command dispatch with outcome-to-status mapping
//   - WebSocket hub broadcasting device.state events
//   - API-key to JWT exchange and role-based permission checks
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Security
//
// POST /api/v1/auth/token exchanges a configured API key for a bearer
// token. Every other route except /health requires the token. WebSocket
// clients pass it as the token query parameter because browsers cannot set
// headers on the upgrade request.
package api
