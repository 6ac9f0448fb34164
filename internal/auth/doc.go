// Package auth provides authentication and authorisation for the audio
// control service.
//
// Clients exchange a static API key for a short-lived JWT access token.
// API keys are stored in configuration only as Argon2id PHC hashes; the raw
// key is shown once when it is generated. Access tokens are validated by
// signature alone, so no database lookup is needed per request.
//
// Three roles map statically to permissions:
//
//   - viewer: read device records, commands and capabilities
//   - operator: viewer plus sending commands and refreshing settings
//   - admin: operator plus adding and removing devices
package auth
