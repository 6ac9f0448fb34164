package sony

import (
	"context"
	"fmt"
)

// Zone numbers the protocol defines.
const (
	MainZone = 1
	MaxZone  = 3
)

// Relative volume steps, passed to the device verbatim.
const (
	VolumeStepUp   = "+1"
	VolumeStepDown = "-1"
)

// ZoneURI translates a zone number into the output URI the audio and
// avContent services address zones by.
func ZoneURI(zone int) string {
	return fmt.Sprintf("extOutput:zone?zone=%d", zone)
}

// VolumeInfo is one element of getVolumeInformation.
type VolumeInfo struct {
	Output    string `json:"output"`
	Volume    int    `json:"volume"`
	Mute      string `json:"mute"`
	MinVolume int    `json:"minVolume"`
	MaxVolume int    `json:"maxVolume"`
	Step      int    `json:"step"`
}

// Muted reports whether the output is muted.
func (v VolumeInfo) Muted() bool {
	return v.Mute == "on"
}

func outputParams(output string) []any {
	if output == "" {
		return []any{map[string]any{}}
	}
	return []any{map[string]any{"output": output}}
}

// VolumeInfo returns volume information. An empty output asks for every
// output the device reports.
func (c *Client) VolumeInfo(ctx context.Context, output string, opts ...CallOption) ([]VolumeInfo, error) {
	raw, err := c.Call(ctx, ServiceAudio, "getVolumeInformation", outputParams(output), "1.1", opts...)
	if err != nil {
		return nil, err
	}
	var info []VolumeInfo
	if err := decodeResult("getVolumeInformation", raw, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// SetVolume sets an absolute ("25") or relative ("+1", "-2") volume.
// An empty output targets the main zone.
func (c *Client) SetVolume(ctx context.Context, output, volume string) error {
	params := []any{map[string]any{"output": output, "volume": volume}}
	_, err := c.Call(ctx, ServiceAudio, "setAudioVolume", params, "1.1")
	return err
}

// SetMute mutes or unmutes an output. An empty output targets the main zone.
func (c *Client) SetMute(ctx context.Context, output string, mute bool) error {
	state := "off"
	if mute {
		state = "on"
	}
	params := []any{map[string]any{"output": output, "mute": state}}
	_, err := c.Call(ctx, ServiceAudio, "setAudioMute", params, "1.1")
	return err
}

func (c *Client) settings(ctx context.Context, method, version, target string) ([]Setting, error) {
	raw, err := c.Call(ctx, ServiceAudio, method, []any{map[string]any{"target": target}}, version)
	if err != nil {
		return nil, err
	}
	var entries []settingEntry
	if err := decodeResult(method, raw, &entries); err != nil {
		return nil, err
	}
	return normalizeSettings(entries), nil
}

func (c *Client) setSetting(ctx context.Context, method, version, target, value string) error {
	params := []any{map[string]any{
		"settings": []map[string]string{{"target": target, "value": value}},
	}}
	_, err := c.Call(ctx, ServiceAudio, method, params, version)
	return err
}

// SoundSettings returns sound settings. An empty target returns all of them.
func (c *Client) SoundSettings(ctx context.Context, target string) ([]Setting, error) {
	return c.settings(ctx, "getSoundSettings", "1.1", target)
}

// SetSoundSetting changes one sound setting.
func (c *Client) SetSoundSetting(ctx context.Context, target, value string) error {
	return c.setSetting(ctx, "setSoundSettings", "1.1", target, value)
}

// SpeakerSettings returns speaker settings. An empty target returns all of them.
func (c *Client) SpeakerSettings(ctx context.Context, target string) ([]Setting, error) {
	return c.settings(ctx, "getSpeakerSettings", "1.0", target)
}

// SetSpeakerSetting changes one speaker setting.
func (c *Client) SetSpeakerSetting(ctx context.Context, target, value string) error {
	return c.setSetting(ctx, "setSpeakerSettings", "1.0", target, value)
}

// EqualizerSettings returns the custom equalizer settings.
func (c *Client) EqualizerSettings(ctx context.Context, target string) ([]Setting, error) {
	return c.settings(ctx, "getCustomEqualizerSettings", "1.0", target)
}
