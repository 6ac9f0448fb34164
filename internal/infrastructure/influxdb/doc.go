// Package influxdb provides InfluxDB connectivity for Gray Logic Audio.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// # Purpose
//
// Device state observed by the audio bridge (power, volume, mute) is written
// as device_metrics points tagged by device_id.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteAudioState(influxdb.AudioState{DeviceID: "sony_1234567", Volume: &vol})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
