package sony

import (
	"context"
	"fmt"
)

// PowerStatus is the device power state as reported by getPowerStatus.
type PowerStatus string

// Power states.
const (
	PowerActive  PowerStatus = "active"
	PowerStandby PowerStatus = "standby"
)

// SystemInfo is the result of getSystemInformation.
type SystemInfo struct {
	Product         string `json:"product"`
	Region          string `json:"region"`
	Language        string `json:"language"`
	Model           string `json:"model"`
	Serial          string `json:"serialNumber"`
	MACAddr         string `json:"macAddr"`
	Name            string `json:"name"`
	Generation      string `json:"generation"`
	Version         string `json:"version"`
	DeviceID        string `json:"deviceID"`
	WirelessMACAddr string `json:"wirelessMacAddr"`
	BDAddr          string `json:"bdAddr"`
}

// InterfaceInfo is the result of getInterfaceInformation.
type InterfaceInfo struct {
	ProductCategory  string `json:"productCategory"`
	ProductName      string `json:"productName"`
	ModelName        string `json:"modelName"`
	ServerName       string `json:"serverName"`
	InterfaceVersion string `json:"interfaceVersion"`
}

// Connect checks reachability by fetching the system information.
// Any successful answer counts as connected.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.DeviceInfo(ctx); err != nil {
		c.logger.Error("failed to connect to device", "base_url", c.baseURL, "error", err)
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	return nil
}

// DeviceInfo returns the system information, fetching it on first use and
// caching it for the lifetime of the client.
func (c *Client) DeviceInfo(ctx context.Context) (SystemInfo, error) {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()
	if c.info != nil {
		return *c.info, nil
	}

	raw, err := c.Call(ctx, ServiceSystem, "getSystemInformation", nil, "1.4")
	if err != nil {
		return SystemInfo{}, err
	}
	var info SystemInfo
	if err := decodeResult("getSystemInformation", raw, &info); err != nil {
		return SystemInfo{}, err
	}
	c.info = &info
	return info, nil
}

// InterfaceInfo returns getInterfaceInformation. Not cached.
func (c *Client) InterfaceInfo(ctx context.Context) (InterfaceInfo, error) {
	raw, err := c.Call(ctx, ServiceSystem, "getInterfaceInformation", nil, "1.0")
	if err != nil {
		return InterfaceInfo{}, err
	}
	var info InterfaceInfo
	if err := decodeResult("getInterfaceInformation", raw, &info); err != nil {
		return InterfaceInfo{}, err
	}
	return info, nil
}

// Versions returns the API versions a service supports.
func (c *Client) Versions(ctx context.Context, service Endpoint) ([]string, error) {
	raw, err := c.Call(ctx, service, "getVersions", nil, "1.0")
	if err != nil {
		return nil, err
	}
	var versions []string
	if err := decodeResult("getVersions", raw, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// PowerStatus returns the current power state.
func (c *Client) PowerStatus(ctx context.Context) (PowerStatus, error) {
	raw, err := c.Call(ctx, ServiceSystem, "getPowerStatus", nil, "1.1")
	if err != nil {
		return "", err
	}
	var result struct {
		Status PowerStatus `json:"status"`
	}
	if err := decodeResult("getPowerStatus", raw, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// SetPowerStatus switches the device to active or standby.
func (c *Client) SetPowerStatus(ctx context.Context, status PowerStatus) error {
	_, err := c.Call(ctx, ServiceSystem, "setPowerStatus", []any{map[string]any{"status": status}}, "1.1")
	return err
}
