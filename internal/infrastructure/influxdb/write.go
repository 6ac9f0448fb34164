package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement and field names for audio device telemetry.
const (
	MeasurementDeviceMetrics = "device_metrics"

	FieldPower  = "power"
	FieldVolume = "volume"
	FieldMute   = "mute"
)

// AudioState is one observed power/volume/mute reading. Nil fields were
// not read and are omitted from the point.
type AudioState struct {
	DeviceID string
	PowerOn  *bool
	Volume   *int
	Muted    *bool
	At       time.Time
}

// AudioStatePoint builds the device_metrics point for s, or nil when s
// carries no fields.
//
// Booleans are stored as 1/0 so they can be graphed next to volume.
func AudioStatePoint(s AudioState) *write.Point {
	fields := make(map[string]interface{}, 3)
	if s.PowerOn != nil {
		fields[FieldPower] = boolToInt(*s.PowerOn)
	}
	if s.Volume != nil {
		fields[FieldVolume] = *s.Volume
	}
	if s.Muted != nil {
		fields[FieldMute] = boolToInt(*s.Muted)
	}
	if len(fields) == 0 {
		return nil
	}

	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		MeasurementDeviceMetrics,
		map[string]string{"device_id": s.DeviceID},
		fields,
		at,
	)
}

// WriteAudioState records a device's power, volume and mute state.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	on, vol := true, 32
//	client.WriteAudioState(influxdb.AudioState{DeviceID: "sony_1234567", PowerOn: &on, Volume: &vol})
func (c *Client) WriteAudioState(s AudioState) {
	if !c.IsConnected() {
		return
	}
	if point := AudioStatePoint(s); point != nil {
		c.writeAPI.WritePoint(point)
	}
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
