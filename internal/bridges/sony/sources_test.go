package sony

import (
	"context"
	"testing"
)

func TestClassifySource(t *testing.T) {
	tests := []struct {
		uri       string
		wantKind  SourceKind
		wantToken string
		wantPort  int
	}{
		{"extInput:hdmi?port=1", SourceHDMI, "HDMI1", 1},
		{"extInput:hdmi?port=12", SourceHDMI, "HDMI12", 12},
		{"extInput:tv", SourceFixed, "TV", 0},
		{"extInput:btAudio", SourceFixed, "BLUETOOTH", 0},
		{"extInput:line", SourceFixed, "ANALOG", 0},
		{"extInput:airPlay", SourceFixed, "AIRPLAY", 0},
		{"extInput:usb", SourceFixed, "USB", 0},
		{"extInput:sat-catv", SourceLabeled, "SAT_CATV", 0},
		{"extInput:bd-dvd", SourceLabeled, "BD_DVD", 0},
		{"extInput:hdmi", SourceLabeled, "HDMI", 0},
		{"extOutput:zone?zone=2", SourceZoneOutput, "", 0},
		{"dlna:music", SourceUnknown, "", 0},
		{"garbage", SourceUnknown, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got := ClassifySource(tt.uri, "")
			if got.Kind != tt.wantKind || got.Token != tt.wantToken || got.Port != tt.wantPort {
				t.Errorf("ClassifySource(%q) = %+v, want kind=%s token=%q port=%d",
					tt.uri, got, tt.wantKind, tt.wantToken, tt.wantPort)
			}
		})
	}
}

func TestSourceCommand(t *testing.T) {
	if got := ClassifySource("extInput:hdmi?port=3", "").Command(); got != "INPUT_HDMI3" {
		t.Errorf("Command() = %q, want INPUT_HDMI3", got)
	}
	if got := ClassifySource("extOutput:zone?zone=2", "").Command(); got != "" {
		t.Errorf("zone output Command() = %q, want empty", got)
	}
}

func TestDecodeSource_RoundTrip(t *testing.T) {
	uris := []string{
		"extInput:hdmi?port=1",
		"extInput:hdmi?port=4",
		"extInput:tv",
		"extInput:btAudio",
		"extInput:line",
		"extInput:airPlay",
		"extInput:usb",
		"extInput:sat-catv",
		"extInput:mediaBox",
		"extInput:video 2",
	}
	var sources []Source
	for _, u := range uris {
		sources = append(sources, ClassifySource(u, ""))
	}

	for _, u := range uris {
		token, ok := EncodeSource(u)
		if !ok {
			t.Fatalf("EncodeSource(%q) not encodable", u)
		}
		got, ok := DecodeSource(token, sources)
		if !ok || got != u {
			t.Errorf("DecodeSource(%q) = %q, %v; want %q", token, got, ok, u)
		}
	}
}

func TestDecodeSource(t *testing.T) {
	sources := []Source{
		ClassifySource("extInput:hdmi?port=1", ""),
		ClassifySource("extInput:sat-catv", ""),
	}
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"HDMI1", "extInput:hdmi?port=1", true},
		{"input_hdmi1", "extInput:hdmi?port=1", true},
		{"SAT_CATV", "extInput:sat-catv", true},
		{"HDMI2", "", false},
		{"TV", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := DecodeSource(tt.token, sources)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DecodeSource(%q) = %q, %v; want %q, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDiscoverSources_MergesAndDeduplicates(t *testing.T) {
	f := newFakeDevice(t)
	f.loadFixture()

	sources, err := DiscoverSources(context.Background(), f.client(t), nil)
	if err != nil {
		t.Fatalf("DiscoverSources() error = %v", err)
	}

	want := []string{
		"extInput:hdmi?port=1",
		"extInput:hdmi?port=2",
		"extInput:tv",
		"extInput:btAudio",
		"extInput:sat-catv",
	}
	if len(sources) != len(want) {
		t.Fatalf("got %d sources, want %d: %+v", len(sources), len(want), sources)
	}
	for i, u := range want {
		if sources[i].URI != u {
			t.Errorf("sources[%d] = %q, want %q", i, sources[i].URI, u)
		}
	}
	if sources[0].Title != "HDMI 1" {
		t.Errorf("source list entry should win, title = %q", sources[0].Title)
	}
	if sources[4].Kind != SourceLabeled {
		t.Errorf("sat-catv kind = %s, want labeled", sources[4].Kind)
	}
}

func TestDiscoverSources_ToleratesOneFailure(t *testing.T) {
	f := newFakeDevice(t)
	f.loadFixture()
	f.fail(ServiceAVContent, "getSourceList", 12, "No Such Method")

	sources, err := DiscoverSources(context.Background(), f.client(t), nil)
	if err != nil {
		t.Fatalf("DiscoverSources() error = %v", err)
	}
	if len(sources) != 2 {
		t.Errorf("got %d sources, want the 2 terminal inputs", len(sources))
	}
}

func TestDiscoverSources_BothFail(t *testing.T) {
	f := newFakeDevice(t)
	f.fail(ServiceAVContent, "getSourceList", 12, "No Such Method")
	f.fail(ServiceAVContent, "getCurrentExternalTerminalsStatus", 12, "No Such Method")

	sources, err := DiscoverSources(context.Background(), f.client(t), nil)
	if err == nil {
		t.Fatal("DiscoverSources() should fail when both calls fail")
	}
	if sources == nil || len(sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil", sources)
	}
}
