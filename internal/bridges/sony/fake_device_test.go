package sony

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeCall is one JSON-RPC request received by fakeDevice.
type fakeCall struct {
	Service string
	Method  string
	Version string
	Params  []map[string]any
}

// fakeHandler answers one call with a result array or an error pair.
type fakeHandler func(call fakeCall) (result []any, rpcErr []any)

// fakeDevice is an httptest server speaking the device JSON-RPC dialect.
// Unconfigured methods answer {"result":[]}.
type fakeDevice struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	calls       []fakeCall
	handlers    map[string]fakeHandler
	httpStatus  map[string]int
	contentType string
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	f := &fakeDevice{
		t:           t,
		handlers:    make(map[string]fakeHandler),
		httpStatus:  make(map[string]int),
		contentType: "application/json",
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func fakeKey(service Endpoint, method string) string {
	return string(service) + "/" + method
}

func (f *fakeDevice) serve(w http.ResponseWriter, r *http.Request) {
	service := strings.TrimPrefix(r.URL.Path, DefaultPath+"/")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Method  string           `json:"method"`
		ID      int64            `json:"id"`
		Params  []map[string]any `json:"params"`
		Version string           `json:"version"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := fakeCall{Service: service, Method: req.Method, Version: req.Version, Params: req.Params}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	key := service + "/" + req.Method
	handler := f.handlers[key]
	status := f.httpStatus[key]
	contentType := f.contentType
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	resp := map[string]any{"id": req.ID}
	result, rpcErr := []any{}, []any(nil)
	if handler != nil {
		result, rpcErr = handler(call)
	}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		if result == nil {
			result = []any{}
		}
		resp["result"] = result
	}
	w.Header().Set("Content-Type", contentType)
	//nolint:errcheck // Test server
	json.NewEncoder(w).Encode(resp)
}

// baseURL is the device API root.
func (f *fakeDevice) baseURL() string {
	return f.srv.URL + DefaultPath
}

// hostPort splits the server address for Verify.
func (f *fakeDevice) hostPort() (string, int) {
	f.t.Helper()
	host, port, err := net.SplitHostPort(f.srv.Listener.Addr().String())
	if err != nil {
		f.t.Fatalf("SplitHostPort() error = %v", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		f.t.Fatalf("Atoi(%q) error = %v", port, err)
	}
	return host, n
}

func (f *fakeDevice) handle(service Endpoint, method string, h fakeHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[fakeKey(service, method)] = h
}

// respond makes method answer with the given result elements.
func (f *fakeDevice) respond(service Endpoint, method string, result ...any) {
	f.handle(service, method, func(fakeCall) ([]any, []any) { return result, nil })
}

// fail makes method answer with a device error.
func (f *fakeDevice) fail(service Endpoint, method string, code int, msg string) {
	f.handle(service, method, func(fakeCall) ([]any, []any) { return nil, []any{code, msg} })
}

// failHTTP makes method answer with an HTTP status and no body.
func (f *fakeDevice) failHTTP(service Endpoint, method string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.httpStatus[fakeKey(service, method)] = status
}

func (f *fakeDevice) setContentType(ct string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentType = ct
}

func (f *fakeDevice) allCalls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func (f *fakeDevice) callsTo(method string) []fakeCall {
	var out []fakeCall
	for _, c := range f.allCalls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeDevice) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeDevice) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{BaseURL: f.baseURL(), Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// Fixture payloads modelled on an STR-series receiver.

func soundSettingsFixture() []any {
	return []any{
		map[string]any{
			"target": "soundField", "type": "enumTarget", "title": "Sound Field", "currentValue": "music",
			"candidate": []any{
				map[string]any{"value": "cinemaStudio", "title": "Cinema Studio", "isAvailable": true},
				map[string]any{"value": "music", "title": "Music", "isAvailable": true},
				map[string]any{"value": "2chStereo", "title": "2ch Stereo", "isAvailable": false},
			},
		},
		map[string]any{
			"target": "nightMode", "type": "booleanTarget", "title": "Night Mode", "currentValue": "off",
			"candidate": []any{
				map[string]any{"value": "on", "title": "On"},
				map[string]any{"value": "off", "title": "Off"},
			},
		},
		map[string]any{
			"target": "dimmer", "type": "enumTarget", "title": "Dimmer", "currentValue": "bright",
			"candidate": []any{
				map[string]any{"value": "bright"},
				map[string]any{"value": "dark"},
				map[string]any{"value": "off"},
			},
		},
		map[string]any{
			"target": "hdmiOutput", "type": "enumTarget", "title": "HDMI Output", "currentValue": "hdmi_A",
			"candidate": []any{
				map[string]any{"value": "hdmi_A"},
				map[string]any{"value": "hdim_B"},
				map[string]any{"value": "hdmi_AB"},
				map[string]any{"value": "off"},
			},
		},
	}
}

func speakerSettingsFixture(frontLevel string) []any {
	return []any{
		map[string]any{
			"target": "frontLLevel", "type": "doubleNumberTarget", "title": "Front Left", "currentValue": frontLevel,
			"candidate": []any{map[string]any{"min": -10.0, "max": 10.0, "step": 0.5}},
		},
		map[string]any{
			"target": "subwooferLevel", "type": "doubleNumberTarget", "title": "Subwoofer", "currentValue": "0.0",
			"candidate": []any{map[string]any{"min": -10.0, "max": 10.0, "step": 0.5}},
		},
	}
}

func volumeFixture(volume int, mute string) map[string]any {
	return map[string]any{"output": "", "volume": volume, "mute": mute, "minVolume": 0, "maxVolume": 74, "step": 1}
}

// loadFixture configures a receiver with the main zone and zone 2.
func (f *fakeDevice) loadFixture() {
	f.respond(ServiceSystem, "getSystemInformation", map[string]any{
		"model": "STR-DN1080", "version": "M41.R.0377", "serialNumber": "1234567", "macAddr": "aa:bb:cc:dd:ee:ff",
	})
	f.respond(ServiceSystem, "getPowerStatus", map[string]any{"status": "active"})
	f.respond(ServiceAudio, "getSoundSettings", soundSettingsFixture())
	f.respond(ServiceAudio, "getSpeakerSettings", speakerSettingsFixture("9.7"))
	f.handle(ServiceAudio, "getVolumeInformation", func(c fakeCall) ([]any, []any) {
		output := ""
		if len(c.Params) > 0 {
			output, _ = c.Params[0]["output"].(string)
		}
		switch output {
		case "":
			return []any{[]any{volumeFixture(30, "off")}}, nil
		case ZoneURI(2):
			return []any{[]any{volumeFixture(20, "on")}}, nil
		default:
			return []any{[]any{}}, nil
		}
	})
	f.respond(ServiceAVContent, "getSourceList", []any{
		map[string]any{"source": "extInput:hdmi?port=1", "title": "HDMI 1"},
		map[string]any{"source": "extInput:hdmi?port=2", "title": "HDMI 2"},
		map[string]any{"source": "extInput:tv", "title": "TV"},
		map[string]any{"source": "extInput:btAudio", "title": "Bluetooth"},
	})
	f.respond(ServiceAVContent, "getCurrentExternalTerminalsStatus", []any{
		map[string]any{"uri": "extInput:hdmi?port=1", "title": "HDMI 1"},
		map[string]any{"uri": "extInput:sat-catv", "title": "SAT/CATV"},
		map[string]any{"uri": "extOutput:zone?zone=2", "title": "Zone 2"},
	})
}

// newTestDevice builds a Device against f with its fixture loaded and
// Setup complete.
func newTestDevice(t *testing.T, f *fakeDevice) *Device {
	t.Helper()
	f.loadFixture()
	dev, err := NewDevice(DeviceConfig{
		Record:  Record{ID: "sony_1234567", Name: "Living Room", BaseURL: f.baseURL()},
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	t.Cleanup(dev.Close)
	if err := dev.Setup(context.Background()); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	f.resetCalls()
	return dev
}
