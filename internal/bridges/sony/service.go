package sony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// RecordStore persists device records. device.RecordStore implements it
// over SQLite.
type RecordStore interface {
	ListRecords(ctx context.Context) ([]Record, error)
	SaveRecord(ctx context.Context, rec Record) error
	DeleteRecord(ctx context.Context, id string) error
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Store persists records. Required.
	Store RecordStore

	// Registry receives running devices. Default: a new registry.
	Registry *Registry

	// Port and Path locate the control API on each device.
	Port int
	Path string

	// Timeout is the per-call timeout for every device.
	Timeout time.Duration

	// ProbeZones overrides the zones probed besides zone 1.
	ProbeZones []int

	// PollInterval is the state poll interval.
	PollInterval time.Duration

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client

	// Logger is optional.
	Logger Logger
}

// Service sets up, restores and removes devices, keeping the record store
// and the registry in step.
type Service struct {
	store    RecordStore
	registry *Registry
	opts     ServiceOptions
	logger   Logger

	mu        sync.Mutex
	runCtx    context.Context
	listeners []StateListener
}

// NewService creates a service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("sony: service requires a record store")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	return &Service{
		store:    opts.Store,
		registry: reg,
		opts:     opts,
		logger:   loggerOrNoop(opts.Logger),
	}, nil
}

// Registry returns the registry of running devices.
func (s *Service) Registry() *Registry { return s.registry }

// AddStateListener registers fn on every current and future device.
func (s *Service) AddStateListener(fn StateListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
	for _, dev := range s.registry.List() {
		dev.AddStateListener(fn)
	}
}

// Start begins polling every registered device and every device added
// later, until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()
	for _, dev := range s.registry.List() {
		dev.Start(ctx)
	}
}

// Setup verifies the device at ip, persists its record and registers it.
//
// Parameters:
//   - ctx: Bounds verification and setup calls
//   - ip: Device address
//   - name: Display name; defaults to the model
//
// Returns:
//   - *Device: The running device
//   - error: ErrConnectFailed if the device does not answer, ErrDeviceExists
//     if it is already configured
func (s *Service) Setup(ctx context.Context, ip, name string) (*Device, error) {
	info, err := Verify(ctx, ip, VerifyOptions{
		Port:       s.opts.Port,
		Path:       s.opts.Path,
		Timeout:    s.opts.Timeout,
		HTTPClient: s.opts.HTTPClient,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}

	rec := info.Record(name)
	if _, err := s.registry.Get(rec.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceExists, rec.ID)
	}

	dev, err := s.newDevice(rec)
	if err != nil {
		return nil, err
	}
	if err := dev.Setup(ctx); err != nil {
		dev.Close()
		return nil, err
	}
	if err := s.store.SaveRecord(ctx, rec); err != nil {
		dev.Close()
		return nil, fmt.Errorf("saving device record: %w", err)
	}
	if err := s.register(dev); err != nil {
		return nil, err
	}

	s.logger.Info("device added", "device_id", rec.ID, "name", rec.Name, "model", rec.Model)
	return dev, nil
}

// Restore registers every persisted device. A device that cannot be
// reached is registered anyway; its poll loop keeps retrying.
func (s *Service) Restore(ctx context.Context) error {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("loading device records: %w", err)
	}
	for _, rec := range records {
		if _, err := s.registry.Get(rec.ID); err == nil {
			continue
		}
		dev, err := s.newDevice(rec)
		if err != nil {
			s.logger.Error("invalid device record", "device_id", rec.ID, "error", err)
			continue
		}
		if err := dev.Setup(ctx); err != nil {
			s.logger.Warn("device not ready", "device_id", rec.ID, "error", err)
		}
		if err := s.register(dev); err != nil {
			s.logger.Error("failed to register device", "device_id", rec.ID, "error", err)
		}
	}
	s.logger.Info("devices restored", "count", s.registry.Len())
	return nil
}

// Ensure sets up the device at ip unless one is already registered there.
// Used for devices seeded from configuration.
func (s *Service) Ensure(ctx context.Context, ip, name string) (*Device, error) {
	if dev, ok := s.registry.FindByIP(ip); ok {
		return dev, nil
	}
	return s.Setup(ctx, ip, name)
}

// Remove unregisters the device and deletes its record.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("deleting device record: %w", err)
	}
	s.logger.Info("device removed", "device_id", id)
	return nil
}

// Close stops every device.
func (s *Service) Close() {
	s.registry.Close()
}

func (s *Service) newDevice(rec Record) (*Device, error) {
	if rec.BaseURL == "" {
		rec.BaseURL = BaseURL(rec.IP, s.opts.Port, s.opts.Path)
	}
	return NewDevice(DeviceConfig{
		Record:       rec,
		Timeout:      s.opts.Timeout,
		ProbeZones:   s.opts.ProbeZones,
		PollInterval: s.opts.PollInterval,
		HTTPClient:   s.opts.HTTPClient,
		Logger:       s.logger,
	})
}

// register attaches listeners, adds dev to the registry and starts it when
// the service is running.
func (s *Service) register(dev *Device) error {
	s.mu.Lock()
	listeners := append([]StateListener(nil), s.listeners...)
	runCtx := s.runCtx
	s.mu.Unlock()

	for _, fn := range listeners {
		dev.AddStateListener(fn)
	}
	if err := s.registry.Add(dev); err != nil {
		dev.Close()
		return err
	}
	if runCtx != nil {
		dev.Start(runCtx)
	}
	// Publish the state read during setup.
	state := dev.State()
	for _, fn := range listeners {
		fn(state)
	}
	return nil
}
