package device

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
)

// RecordStore adapts a Registry to sony.RecordStore so the device service
// persists the records it sets up.
type RecordStore struct {
	registry *Registry
}

// NewRecordStore returns a RecordStore over registry.
func NewRecordStore(registry *Registry) *RecordStore {
	return &RecordStore{registry: registry}
}

// ListRecords implements sony.RecordStore.
func (s *RecordStore) ListRecords(ctx context.Context) ([]sony.Record, error) {
	devices, err := s.registry.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sony.Record, 0, len(devices))
	for i := range devices {
		out = append(out, devices[i].Record())
	}
	return out, nil
}

// SaveRecord implements sony.RecordStore.
func (s *RecordStore) SaveRecord(ctx context.Context, rec sony.Record) error {
	d := FromRecord(rec)
	return s.registry.SaveDevice(ctx, &d)
}

// DeleteRecord implements sony.RecordStore. A record that is already gone
// is not an error.
func (s *RecordStore) DeleteRecord(ctx context.Context, id string) error {
	err := s.registry.DeleteDevice(ctx, id)
	if errors.Is(err, ErrDeviceNotFound) {
		return nil
	}
	return err
}

// Record returns the device identity used by the sony package.
func (d *Device) Record() sony.Record {
	return sony.Record{
		ID:       d.ID,
		Name:     d.Name,
		IP:       d.IP,
		BaseURL:  d.BaseURL,
		Model:    d.Model,
		Serial:   d.Serial,
		Firmware: d.Firmware,
		MAC:      d.MAC,
	}
}

// FromRecord converts a sony record to a device. Timestamps are left for
// the registry to fill.
func FromRecord(rec sony.Record) Device {
	return Device{
		ID:       rec.ID,
		Name:     rec.Name,
		IP:       rec.IP,
		BaseURL:  rec.BaseURL,
		Model:    rec.Model,
		Serial:   rec.Serial,
		Firmware: rec.Firmware,
		MAC:      rec.MAC,
	}
}
