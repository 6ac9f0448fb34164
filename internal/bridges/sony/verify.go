package sony

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DeviceIDPrefix prefixes every device id.
const DeviceIDPrefix = "sony_"

// DeviceInfo describes a device that answered Verify.
type DeviceInfo struct {
	Model   string `json:"model"`
	Version string `json:"version"`
	Serial  string `json:"serial"`
	MAC     string `json:"mac"`
	IP      string `json:"ip"`
	BaseURL string `json:"base_url"`
}

// ID returns the stable device id derived from the serial number, or from
// the IP address when the device reports no serial.
func (i DeviceInfo) ID() string {
	return DeviceIDFor(i.Serial, i.IP)
}

// Record builds a device record named name, falling back to the model.
func (i DeviceInfo) Record(name string) Record {
	if strings.TrimSpace(name) == "" {
		name = i.Model
	}
	if name == "" {
		name = i.IP
	}
	return Record{
		ID:       i.ID(),
		Name:     strings.TrimSpace(name),
		IP:       i.IP,
		BaseURL:  i.BaseURL,
		Model:    i.Model,
		Serial:   i.Serial,
		Firmware: i.Version,
		MAC:      i.MAC,
	}
}

// DeviceIDFor returns "sony_<serial>" or, without a serial,
// "sony_<ip with dots replaced by underscores>".
func DeviceIDFor(serial, ip string) string {
	if s := strings.TrimSpace(serial); s != "" {
		return DeviceIDPrefix + s
	}
	return DeviceIDPrefix + strings.ReplaceAll(ip, ".", "_")
}

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Port is the API port. Default: 10000.
	Port int

	// Path is the API path. Default: "/sony".
	Path string

	// Timeout bounds the verification call. Default: 3s.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client

	// Logger is optional.
	Logger Logger
}

// Verify checks that a device answers at ip and returns its identity. A
// temporary client is used and closed before returning.
func Verify(ctx context.Context, ip string, opts VerifyOptions) (DeviceInfo, error) {
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	base := BaseURL(ip, port, opts.Path)

	client, err := NewClient(ClientOptions{
		BaseURL:    base,
		Timeout:    opts.Timeout,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	if err != nil {
		return DeviceInfo{}, err
	}
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return DeviceInfo{}, err
	}
	info, err := client.DeviceInfo(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	return DeviceInfo{
		Model:   info.Model,
		Version: info.Version,
		Serial:  info.Serial,
		MAC:     info.MACAddr,
		IP:      ip,
		BaseURL: base,
	}, nil
}

// Discoverer finds devices on the network, for example over SSDP. The
// service accepts any implementation; candidates are still confirmed with
// Verify before they are added.
type Discoverer interface {
	Discover(ctx context.Context) ([]DeviceInfo, error)
}
