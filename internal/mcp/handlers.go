package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
)

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices := s.devices.List()

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, DeviceToInfo(d))
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := s.device(request)
	if errResult != nil {
		return errResult, nil
	}

	commands := d.Namespace().Commands
	out := GetCommandsOutput{
		DeviceID: d.ID(),
		Commands: commands,
		Count:    len(commands),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := s.device(request)
	if errResult != nil {
		return errResult, nil
	}

	snap := d.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError(fmt.Sprintf("capabilities of %s not loaded yet; call refresh_settings", d.ID())), nil
	}

	out := GetCapabilitiesOutput{
		DeviceID:     d.ID(),
		Capabilities: snap,
		SoundFields:  snap.AvailableSoundFieldOptions(),
		Toggles:      snap.AvailableToggleSettings(),
		Speakers:     snap.AvailableSpeakerControls(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := s.device(request)
	if errResult != nil {
		return errResult, nil
	}

	command, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var params map[string]any
	if raw, ok := request.GetArguments()["repeat"]; ok && raw != nil {
		params = map[string]any{sony.ParamRepeat: raw}
	}

	res := d.Dispatch(ctx, command, params)
	details := map[string]any{"command": res.Command}
	if res.Err != nil {
		details["error"] = res.Error()
	}
	s.audit.Record(ctx, audit.Entry{
		Action:   audit.ActionDeviceCommand,
		DeviceID: d.ID(),
		Source:   audit.SourceMCP,
		Outcome:  string(res.Outcome),
		Details:  details,
	})

	if res.Outcome != sony.OutcomeOK {
		return mcp.NewToolResultError(fmt.Sprintf("%s %s: %s", res.Command, res.Outcome, res.Error())), nil
	}

	out := SendCommandOutput{
		DeviceID: d.ID(),
		Command:  res.Command,
		Outcome:  res.Outcome,
		State:    d.State(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRefreshSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := s.device(request)
	if errResult != nil {
		return errResult, nil
	}

	err := d.Refresh(ctx)
	entry := audit.Entry{Action: audit.ActionDeviceRefresh, DeviceID: d.ID(), Source: audit.SourceMCP, Outcome: "ok"}
	if err != nil {
		entry.Outcome = "failed"
		entry.Details = map[string]any{"error": err.Error()}
	}
	s.audit.Record(ctx, entry)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh %s: %s", d.ID(), err)), nil
	}

	out := RefreshSettingsOutput{
		DeviceID: d.ID(),
		Commands: len(d.Namespace().Commands),
		Sources:  len(d.Sources()),
		Zones:    d.Cache().Zones(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// device resolves the "id" argument. A non-nil result is the error to
// return to the client.
func (s *Server) device(request mcp.CallToolRequest) (*sony.Device, *mcp.CallToolResult) {
	id, err := requiredString(request, "id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	d, err := s.devices.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err))
	}
	return d, nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
