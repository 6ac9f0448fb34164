package sony

import (
	"context"
)

// SchemeExtInput is the URI scheme of external inputs.
const SchemeExtInput = "extInput"

// SourceEntry is one element of getSourceList.
type SourceEntry struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Meta        string `json:"meta"`
	IconURL     string `json:"iconUrl"`
	IsPlayable  bool   `json:"isPlayable"`
	IsBrowsable bool   `json:"isBrowsable"`
}

// Terminal is one element of getCurrentExternalTerminalsStatus.
type Terminal struct {
	URI        string   `json:"uri"`
	Title      string   `json:"title"`
	Meta       string   `json:"meta"`
	IconURL    string   `json:"iconUrl"`
	Connection string   `json:"connection"`
	Active     string   `json:"active"`
	Outputs    []string `json:"outputs"`
}

// PlayingContent is one element of getPlayingContentInfo.
type PlayingContent struct {
	URI    string `json:"uri"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Output string `json:"output"`
	Kind   string `json:"kind"`
}

// SchemeList returns the URI schemes the device supports.
func (c *Client) SchemeList(ctx context.Context) ([]string, error) {
	raw, err := c.Call(ctx, ServiceAVContent, "getSchemeList", nil, "1.0")
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Scheme string `json:"scheme"`
	}
	if err := decodeResult("getSchemeList", raw, &entries); err != nil {
		return nil, err
	}
	schemes := make([]string, 0, len(entries))
	for _, e := range entries {
		schemes = append(schemes, e.Scheme)
	}
	return schemes, nil
}

// SourceList returns the sources of a URI scheme.
func (c *Client) SourceList(ctx context.Context, scheme string) ([]SourceEntry, error) {
	if scheme == "" {
		scheme = SchemeExtInput
	}
	raw, err := c.Call(ctx, ServiceAVContent, "getSourceList", []any{map[string]any{"scheme": scheme}}, "1.2")
	if err != nil {
		return nil, err
	}
	var entries []SourceEntry
	if err := decodeResult("getSourceList", raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExternalTerminals returns the status of every external terminal.
func (c *Client) ExternalTerminals(ctx context.Context) ([]Terminal, error) {
	raw, err := c.Call(ctx, ServiceAVContent, "getCurrentExternalTerminalsStatus", nil, "1.2")
	if err != nil {
		return nil, err
	}
	var terminals []Terminal
	if err := decodeResult("getCurrentExternalTerminalsStatus", raw, &terminals); err != nil {
		return nil, err
	}
	return terminals, nil
}

// PlayingContent returns what an output is currently playing.
func (c *Client) PlayingContent(ctx context.Context, output string) ([]PlayingContent, error) {
	raw, err := c.Call(ctx, ServiceAVContent, "getPlayingContentInfo", outputParams(output), "1.2")
	if err != nil {
		return nil, err
	}
	var content []PlayingContent
	if err := decodeResult("getPlayingContentInfo", raw, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// SetPlayContent switches an output to the source uri.
// An empty output targets the main zone.
func (c *Client) SetPlayContent(ctx context.Context, output, uri string) error {
	params := []any{map[string]any{"output": output, "uri": uri}}
	_, err := c.Call(ctx, ServiceAVContent, "setPlayContent", params, "1.2")
	return err
}

// SetActiveTerminal powers a zone output on or off.
func (c *Client) SetActiveTerminal(ctx context.Context, uri string, active bool) error {
	state := "inactive"
	if active {
		state = "active"
	}
	params := []any{map[string]any{"active": state, "uri": uri}}
	_, err := c.Call(ctx, ServiceAVContent, "setActiveTerminal", params, "1.0")
	return err
}
