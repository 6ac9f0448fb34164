package device

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides device record management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the write operations below.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]Device
	cacheMu sync.RWMutex
	loaded  bool
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]Device, len(devices))
	for _, d := range devices {
		r.cache[d.ID] = d
	}
	r.loaded = true

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return &cached, nil
	}

	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = *d
	r.cacheMu.Unlock()

	return d, nil
}

// GetDeviceByIP returns the device configured at ip.
// Returns ErrDeviceNotFound if no device uses that address.
func (r *Registry) GetDeviceByIP(ctx context.Context, ip string) (*Device, error) {
	devices, err := r.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].IP == ip {
			return &devices[i], nil
		}
	}
	return nil, ErrDeviceNotFound
}

// ListDevices retrieves all devices sorted by name, then ID.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	loaded := r.loaded
	devices := make([]Device, 0, len(r.cache))
	for _, d := range r.cache {
		devices = append(devices, d)
	}
	r.cacheMu.RUnlock()

	if !loaded {
		if err := r.RefreshCache(ctx); err != nil {
			return nil, err
		}
		return r.ListDevices(ctx)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].ID < devices[j].ID
	})
	return devices, nil
}

// CreateDevice validates and persists a new device.
func (r *Registry) CreateDevice(ctx context.Context, d *Device) error {
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = *d
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", d.ID, "ip", d.IP)
	return nil
}

// UpdateDevice validates and persists changes to an existing device.
func (r *Registry) UpdateDevice(ctx context.Context, d *Device) error {
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if prev, ok := r.cache[d.ID]; ok && d.CreatedAt.IsZero() {
		d.CreatedAt = prev.CreatedAt
	}
	r.cache[d.ID] = *d
	r.cacheMu.Unlock()

	r.logger.Debug("device updated", "id", d.ID)
	return nil
}

// SaveDevice creates d, or updates it when a device with the same ID
// already exists. The original creation time is preserved.
func (r *Registry) SaveDevice(ctx context.Context, d *Device) error {
	existing, err := r.GetDevice(ctx, d.ID)
	switch {
	case err == nil:
		d.CreatedAt = existing.CreatedAt
		return r.UpdateDevice(ctx, d)
	case errors.Is(err, ErrDeviceNotFound):
		return r.CreateDevice(ctx, d)
	default:
		return err
	}
}

// DeleteDevice removes a device by ID.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "id", id)
	return nil
}

// GetDeviceCount returns the number of cached devices.
func (r *Registry) GetDeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// GetStats returns registry statistics for monitoring.
func (r *Registry) GetStats() Stats {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.cache),
		ByModel:      make(map[string]int),
	}
	for _, d := range r.cache {
		model := d.Model
		if model == "" {
			model = "unknown"
		}
		stats.ByModel[model]++
	}
	return stats
}
