package mcp

import "github.com/nerrad567/gray-logic-audio/internal/bridges/sony"

// DeviceInfo describes one receiver in tool output.
type DeviceInfo struct {
	sony.Record
	State sony.State `json:"state"`
	Ready bool       `json:"ready"`
}

// ListDevicesOutput is the output of list_devices.
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices"`
	Count   int          `json:"count"`
}

// GetCommandsOutput is the output of get_commands.
type GetCommandsOutput struct {
	DeviceID string   `json:"device_id"`
	Commands []string `json:"commands"`
	Count    int      `json:"count"`
}

// GetCapabilitiesOutput is the output of get_capabilities.
type GetCapabilitiesOutput struct {
	DeviceID     string                  `json:"device_id"`
	Capabilities *sony.Snapshot          `json:"capabilities"`
	SoundFields  []sony.SoundFieldOption `json:"sound_fields"`
	Toggles      []sony.ToggleSetting    `json:"toggles"`
	Speakers     []sony.SpeakerControl   `json:"speakers"`
}

// SendCommandOutput is the output of send_command.
type SendCommandOutput struct {
	DeviceID string       `json:"device_id"`
	Command  string       `json:"command"`
	Outcome  sony.Outcome `json:"outcome"`
	State    sony.State   `json:"state"`
}

// RefreshSettingsOutput is the output of refresh_settings.
type RefreshSettingsOutput struct {
	DeviceID string `json:"device_id"`
	Commands int    `json:"commands"`
	Sources  int    `json:"sources"`
	Zones    []int  `json:"zones"`
}

// DeviceToInfo converts a running device to its tool representation.
func DeviceToInfo(d *sony.Device) DeviceInfo {
	return DeviceInfo{
		Record: d.Record(),
		State:  d.State(),
		Ready:  d.Cache().Ready(),
	}
}
