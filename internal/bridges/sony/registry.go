package sony

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds the running devices keyed by device id.
//
// Thread Safety: All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Add registers dev. Returns ErrDeviceExists if the id is taken.
func (r *Registry) Add(dev *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[dev.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDeviceExists, dev.ID())
	}
	r.devices[dev.ID()] = dev
	return nil
}

// Get returns the device with id.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return dev, nil
}

// FindByIP returns the device configured at ip, if any.
func (r *Registry) FindByIP(ip string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, dev := range r.devices {
		if dev.record.IP == ip {
			return dev, true
		}
	}
	return nil, false
}

// Remove unregisters and closes the device with id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	dev, ok := r.devices[id]
	delete(r.devices, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	dev.Close()
	return nil
}

// List returns the registered devices ordered by id.
func (r *Registry) List() []*Device {
	r.mu.RLock()
	out := make([]*Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Device) int { return strings.Compare(a.ID(), b.ID()) })
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Close closes and unregisters every device.
func (r *Registry) Close() {
	r.mu.Lock()
	devices := r.devices
	r.devices = make(map[string]*Device)
	r.mu.Unlock()
	for _, dev := range devices {
		dev.Close()
	}
}
