// Package audit records who changed or commanded which receiver, and when.
//
// Entries are written to the audit_log table by the REST API, the MQTT
// bridge and the MCP server, and read back through GET /api/v1/audit.
// Recording never fails the operation being audited: write errors are
// logged and dropped by Recorder.
package audit
