package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List configured receivers with their power, volume and mute state"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_commands",
			mcp.WithDescription("List every command a receiver accepts, derived from its sources and settings"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device ID, e.g. sony_1234567"),
			),
		),
		s.handleGetCommands,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_capabilities",
			mcp.WithDescription("Get the cached sound settings, speaker settings and zones of a receiver"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device ID, e.g. sony_1234567"),
			),
		),
		s.handleGetCapabilities,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("send_command",
			mcp.WithDescription("Send a command such as POWER_ON, VOLUME_UP, SOUND_FIELD_STANDARD or INPUT_HDMI1 to a receiver"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device ID, e.g. sony_1234567"),
			),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Command name from get_commands"),
			),
			mcp.WithNumber("repeat",
				mcp.Description("Repeat count for VOLUME_UP and VOLUME_DOWN (default 1)"),
			),
		),
		s.handleSendCommand,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_settings",
			mcp.WithDescription("Reload a receiver's capabilities and sources and recompile its commands"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device ID, e.g. sony_1234567"),
			),
		),
		s.handleRefreshSettings,
	)
}
