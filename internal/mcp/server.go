package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
)

// ServerName is the name reported to MCP clients.
const ServerName = "graylogic-audio"

// Devices looks up running receivers. *sony.Registry satisfies it.
type Devices interface {
	Get(id string) (*sony.Device, error)
	List() []*sony.Device
}

// Server exposes receiver control as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	devices   Devices
	audit     *audit.Recorder
}

// NewServer creates an MCP server backed by devices.
func NewServer(devices Devices, version string) *Server {
	s := &Server{devices: devices}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// SetAuditor records commands and refreshes issued through the tools.
func (s *Server) SetAuditor(a *audit.Recorder) {
	s.audit = a
}

// ServeStdio serves MCP over stdin and stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
