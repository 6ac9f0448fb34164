package sony

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"
)

// DefaultPollInterval is how often a running device re-reads power and
// volume state.
const DefaultPollInterval = 30 * time.Second

// Record is the persisted identity of a configured device.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IP       string `json:"ip"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model,omitempty"`
	Serial   string `json:"serial,omitempty"`
	Firmware string `json:"firmware,omitempty"`
	MAC      string `json:"mac,omitempty"`
}

// State is the observable entity state of a device.
type State struct {
	DeviceID  string     `json:"device_id"`
	Power     PowerState `json:"power"`
	Volume    *int       `json:"volume,omitempty"`
	Muted     *bool      `json:"muted,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s State) equal(o State) bool {
	return s.Power == o.Power && equalPtr(s.Volume, o.Volume) && equalPtr(s.Muted, o.Muted)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StateListener is called after a device's state changes. Listeners run on
// the goroutine that observed the change and must not block.
type StateListener func(State)

// DeviceConfig configures a Device.
type DeviceConfig struct {
	// Record identifies the device. ID and BaseURL are required.
	Record Record

	// Timeout is the per-call timeout. Default: 3s.
	Timeout time.Duration

	// ProbeZones overrides the zones probed besides zone 1.
	ProbeZones []int

	// PollInterval is the state poll interval used by Start.
	// Default: 30 seconds.
	PollInterval time.Duration

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client

	// Logger is optional.
	Logger Logger
}

// Device binds one configured device to its client, capability cache,
// discovered sources, and dispatcher.
//
// Thread Safety: All methods are safe for concurrent use. Capability
// refreshes are serialized per device.
type Device struct {
	record       Record
	client       *Client
	cache        *CapabilityCache
	dispatcher   *Dispatcher
	pollInterval time.Duration
	logger       Logger

	refreshMu sync.Mutex

	sourcesMu sync.RWMutex
	sources   []Source

	stateMu sync.Mutex
	state   State

	listenersMu sync.RWMutex
	listeners   []StateListener

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewDevice builds a device; no network I/O is performed until Setup.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Record.ID == "" {
		return nil, errors.New("sony: device id is required")
	}
	logger := loggerOrNoop(cfg.Logger)

	client, err := NewClient(ClientOptions{
		BaseURL:    cfg.Record.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	d := &Device{
		record:       cfg.Record,
		client:       client,
		cache:        NewCapabilityCache(client, CacheOptions{ProbeZones: cfg.ProbeZones, Logger: logger}),
		pollInterval: interval,
		logger:       logger,
		state:        State{DeviceID: cfg.Record.ID, Power: PowerUnknown},
		done:         make(chan struct{}),
	}

	d.dispatcher, err = NewDispatcher(DispatcherOptions{
		Control: client,
		Cache:   d.cache,
		Refresh: d.refreshCapabilities,
		Reload:  d.Refresh,
		Sources: d.Sources,
		Power:   d,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ID returns the device id.
func (d *Device) ID() string { return d.record.ID }

// Name returns the display name.
func (d *Device) Name() string { return d.record.Name }

// Record returns the device record.
func (d *Device) Record() Record { return d.record }

// Client returns the underlying RPC client.
func (d *Device) Client() *Client { return d.client }

// Cache returns the capability cache.
func (d *Device) Cache() *CapabilityCache { return d.cache }

// Setup connects to the device, then loads capabilities, sources and the
// initial state. Only the connection is mandatory; later failures are
// logged and repaired by the next Refresh or poll.
func (d *Device) Setup(ctx context.Context) error {
	if err := d.client.Connect(ctx); err != nil {
		return err
	}
	if err := d.refreshCapabilities(ctx); err != nil {
		d.logger.Warn("initial capability refresh failed", "device_id", d.record.ID, "error", err)
	}
	d.discoverSources(ctx)
	if err := d.RefreshState(ctx); err != nil {
		d.logger.Warn("initial state read failed", "device_id", d.record.ID, "error", err)
	}
	d.logger.Info("device ready",
		"device_id", d.record.ID,
		"sources", len(d.Sources()),
		"zones", d.cache.Zones())
	return nil
}

// Refresh reloads capabilities and rediscovers sources. The capability
// error, if any, is returned; a source discovery failure keeps the previous
// source list.
func (d *Device) Refresh(ctx context.Context) error {
	err := d.refreshCapabilities(ctx)
	d.discoverSources(ctx)
	return err
}

// refreshCapabilities is the serialized cache refresh used by the
// dispatcher.
func (d *Device) refreshCapabilities(ctx context.Context) error {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()
	return d.cache.Refresh(ctx)
}

func (d *Device) discoverSources(ctx context.Context) {
	sources, err := DiscoverSources(ctx, d.client, d.logger)
	if err != nil {
		d.logger.Warn("source discovery failed", "device_id", d.record.ID, "error", err)
		return
	}
	d.sourcesMu.Lock()
	d.sources = sources
	d.sourcesMu.Unlock()
}

// Sources returns the last discovered sources.
func (d *Device) Sources() []Source {
	d.sourcesMu.RLock()
	defer d.sourcesMu.RUnlock()
	return slices.Clone(d.sources)
}

// Snapshot returns the current capability snapshot, or nil before the
// first successful refresh.
func (d *Device) Snapshot() *Snapshot { return d.cache.Snapshot() }

// Namespace compiles the command namespace from current capabilities.
func (d *Device) Namespace() Namespace {
	return CompileNamespace(d.record.Name, d.Sources(), d.cache.Snapshot())
}

// Dispatch executes one command.
func (d *Device) Dispatch(ctx context.Context, command string, params map[string]any) Result {
	return d.dispatcher.Dispatch(ctx, command, params)
}

// HandleEntityCommand executes an entity-level command.
func (d *Device) HandleEntityCommand(ctx context.Context, cmdID string, params map[string]any) Result {
	return d.dispatcher.HandleEntityCommand(ctx, cmdID, params)
}

// PowerState returns the last known entity power state.
func (d *Device) PowerState() PowerState {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.state.Power
}

// SetPowerState records a power change made through the dispatcher.
func (d *Device) SetPowerState(state PowerState) {
	d.updateState(func(s *State) { s.Power = state })
}

// State returns a copy of the current entity state.
func (d *Device) State() State {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.state
}

// AddStateListener registers fn for state changes.
func (d *Device) AddStateListener(fn StateListener) {
	if fn == nil {
		return
	}
	d.listenersMu.Lock()
	d.listeners = append(d.listeners, fn)
	d.listenersMu.Unlock()
}

// updateState applies mutate and notifies listeners when something changed.
func (d *Device) updateState(mutate func(*State)) {
	d.stateMu.Lock()
	next := d.state
	mutate(&next)
	if next.equal(d.state) {
		d.stateMu.Unlock()
		return
	}
	next.UpdatedAt = time.Now().UTC()
	d.state = next
	d.stateMu.Unlock()

	d.listenersMu.RLock()
	listeners := slices.Clone(d.listeners)
	d.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
}

// RefreshState reads power status and main-zone volume. A failed power read
// marks the power state unknown.
func (d *Device) RefreshState(ctx context.Context) error {
	status, err := d.client.PowerStatus(ctx)
	if err != nil {
		d.updateState(func(s *State) { s.Power = PowerUnknown })
		return err
	}
	power := PowerStateFor(status)

	info, err := d.client.VolumeInfo(ctx, "")
	if err != nil || len(info) == 0 {
		d.updateState(func(s *State) { s.Power = power })
		if err == nil {
			return nil
		}
		return err
	}
	volume, muted := info[0].Volume, info[0].Muted()
	d.updateState(func(s *State) {
		s.Power = power
		s.Volume = &volume
		s.Muted = &muted
	})
	return nil
}

// Start launches the state poll loop. Capabilities that failed to load
// during Setup are retried on each tick until they succeed.
func (d *Device) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.pollLoop(ctx)
	})
}

func (d *Device) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Device) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, d.pollInterval)
	defer cancel()

	if !d.cache.Ready() {
		if err := d.Refresh(ctx); err != nil {
			d.logger.Debug("capability retry failed", "device_id", d.record.ID, "error", err)
		}
	}
	if err := d.RefreshState(ctx); err != nil {
		d.logger.Debug("state poll failed", "device_id", d.record.ID, "error", err)
	}
}

// Close stops polling and releases idle connections. Safe to call more
// than once.
func (d *Device) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.client.Close()
	})
}
