package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockRepository is an in-memory Repository for registry tests.
type MockRepository struct {
	mu        sync.Mutex
	devices   map[string]Device
	listCalls int
	listErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{devices: make(map[string]Device)}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return &d, nil
}

func (m *MockRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out, nil
}

func (m *MockRepository) Create(_ context.Context, d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[d.ID]; ok {
		return ErrDeviceExists
	}
	for _, other := range m.devices {
		if other.IP == d.IP {
			return ErrAddressInUse
		}
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	m.devices[d.ID] = *d
	return nil
}

func (m *MockRepository) Update(_ context.Context, d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[d.ID]; !ok {
		return ErrDeviceNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	m.devices[d.ID] = *d
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *MockRepository) addDevice(d *Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = *d
}

func testDevice(id, name, ip string) *Device {
	return &Device{
		ID:      id,
		Name:    name,
		IP:      ip,
		BaseURL: "http://" + ip + ":10000/sony",
		Model:   "STR-DN1080",
	}
}

func TestRegistry_RefreshCache(t *testing.T) {
	repo := NewMockRepository()
	repo.addDevice(testDevice("sony_1", "Living Room", "192.168.1.40"))
	repo.addDevice(testDevice("sony_2", "Kitchen", "192.168.1.41"))

	registry := NewRegistry(repo)
	if err := registry.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if got := registry.GetDeviceCount(); got != 2 {
		t.Errorf("GetDeviceCount() = %d, want 2", got)
	}

	repo.listErr = errors.New("disk gone")
	if err := registry.RefreshCache(context.Background()); err == nil {
		t.Error("RefreshCache() should propagate repository errors")
	}
}

func TestRegistry_GetDevice(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	// Added behind the registry's back: found via repository fallback.
	repo.addDevice(testDevice("sony_1", "Living Room", "192.168.1.40"))

	got, err := registry.GetDevice(ctx, "sony_1")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	got.Name = "mutated"

	again, _ := registry.GetDevice(ctx, "sony_1")
	if again.Name != "Living Room" {
		t.Errorf("cache was mutated through returned pointer: %q", again.Name)
	}

	if _, err := registry.GetDevice(ctx, "missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetDevice(missing) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_ListDevicesLoadsAndSorts(t *testing.T) {
	repo := NewMockRepository()
	repo.addDevice(testDevice("sony_b", "Kitchen", "192.168.1.41"))
	repo.addDevice(testDevice("sony_a", "Bedroom", "192.168.1.42"))
	repo.addDevice(testDevice("sony_c", "Bedroom", "192.168.1.43"))
	registry := NewRegistry(repo)

	devices, err := registry.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	want := []string{"sony_a", "sony_c", "sony_b"}
	if len(devices) != len(want) {
		t.Fatalf("ListDevices() len = %d, want %d", len(devices), len(want))
	}
	for i, id := range want {
		if devices[i].ID != id {
			t.Errorf("devices[%d] = %s, want %s", i, devices[i].ID, id)
		}
	}

	if _, err := registry.ListDevices(context.Background()); err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("repository List called %d times, want 1", repo.listCalls)
	}
}

func TestRegistry_CreateDevice(t *testing.T) {
	tests := []struct {
		name    string
		dev     *Device
		wantErr error
	}{
		{"valid", testDevice("sony_2", "Kitchen", "192.168.1.41"), nil},
		{"invalid ip", testDevice("sony_2", "Kitchen", "kitchen"), ErrInvalidAddress},
		{"duplicate id", testDevice("sony_1", "Kitchen", "192.168.1.41"), ErrDeviceExists},
		{"duplicate ip", testDevice("sony_2", "Kitchen", "192.168.1.40"), ErrAddressInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			repo.addDevice(testDevice("sony_1", "Living Room", "192.168.1.40"))
			registry := NewRegistry(repo)

			err := registry.CreateDevice(context.Background(), tt.dev)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateDevice() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && registry.GetDeviceCount() != 1 {
				t.Errorf("GetDeviceCount() = %d, want 1 cached", registry.GetDeviceCount())
			}
		})
	}
}

func TestRegistry_SaveDevicePreservesCreatedAt(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	first := testDevice("sony_1", "Living Room", "192.168.1.40")
	if err := registry.SaveDevice(ctx, first); err != nil {
		t.Fatalf("SaveDevice() create error = %v", err)
	}
	created := first.CreatedAt

	second := testDevice("sony_1", "Lounge", "192.168.1.50")
	if err := registry.SaveDevice(ctx, second); err != nil {
		t.Fatalf("SaveDevice() update error = %v", err)
	}

	got, err := registry.GetDevice(ctx, "sony_1")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if got.Name != "Lounge" || got.IP != "192.168.1.50" {
		t.Errorf("SaveDevice() did not update: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	byIP, err := registry.GetDeviceByIP(ctx, "192.168.1.50")
	if err != nil || byIP.ID != "sony_1" {
		t.Errorf("GetDeviceByIP() = %v, %v", byIP, err)
	}
	if _, err := registry.GetDeviceByIP(ctx, "192.168.1.40"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetDeviceByIP(old ip) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_DeleteDevice(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	if err := registry.CreateDevice(ctx, testDevice("sony_1", "Living Room", "192.168.1.40")); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if err := registry.DeleteDevice(ctx, "sony_1"); err != nil {
		t.Fatalf("DeleteDevice() error = %v", err)
	}
	if registry.GetDeviceCount() != 0 {
		t.Errorf("GetDeviceCount() = %d after delete", registry.GetDeviceCount())
	}
	if err := registry.DeleteDevice(ctx, "sony_1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("DeleteDevice() twice error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_GetStats(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	noModel := testDevice("sony_3", "Office", "192.168.1.43")
	noModel.Model = ""
	for _, d := range []*Device{
		testDevice("sony_1", "Living Room", "192.168.1.40"),
		testDevice("sony_2", "Kitchen", "192.168.1.41"),
		noModel,
	} {
		if err := registry.CreateDevice(ctx, d); err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
	}

	stats := registry.GetStats()
	if stats.TotalDevices != 3 {
		t.Errorf("TotalDevices = %d, want 3", stats.TotalDevices)
	}
	if stats.ByModel["STR-DN1080"] != 2 || stats.ByModel["unknown"] != 1 {
		t.Errorf("ByModel = %v", stats.ByModel)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	if err := registry.CreateDevice(ctx, testDevice("concurrent", "Concurrent", "192.168.1.40")); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.GetDevice(ctx, "concurrent") //nolint:errcheck // exercising locks only
		}()
		go func() {
			defer wg.Done()
			registry.SaveDevice(ctx, testDevice("concurrent", "Concurrent", "192.168.1.40")) //nolint:errcheck // exercising locks only
		}()
	}
	wg.Wait()

	if _, err := registry.GetDevice(ctx, "concurrent"); err != nil {
		t.Errorf("GetDevice() after concurrent access error = %v", err)
	}
}
