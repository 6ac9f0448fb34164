package sony

import (
	"reflect"
	"slices"
	"testing"
	"time"
)

func fixtureSnapshot() *Snapshot {
	sound := []Setting{
		{Target: "soundField", Kind: KindEnum, IsAvailable: true, Candidates: []Candidate{
			{Value: "cinemaStudio", Title: "Cinema Studio", IsAvailable: true},
			{Value: "2chStereo", Title: "2ch Stereo", IsAvailable: false},
		}},
		{Target: "nightMode", Kind: KindBoolean, IsAvailable: true, Candidates: []Candidate{
			{Value: "on", IsAvailable: true}, {Value: "off", IsAvailable: true},
		}},
		{Target: "dimmer", Kind: KindEnum, IsAvailable: true, Candidates: []Candidate{
			{Value: "bright", IsAvailable: true}, {Value: "off", IsAvailable: true},
		}},
		{Target: "hdmiOutput", Kind: KindEnum, IsAvailable: true, Candidates: []Candidate{
			{Value: "hdmi_A", IsAvailable: true}, {Value: "hdim_B", IsAvailable: true},
		}},
	}
	speaker := []Setting{
		{Target: "centerLevel", Kind: KindNumeric, IsAvailable: true, CurrentValue: "0", Min: -10, Max: 10, Step: 0.5},
		{Target: "rearLevel", Kind: KindNumeric, IsAvailable: false, CurrentValue: "0", Min: -10, Max: 10, Step: 0.5},
	}
	return NewSnapshot(sound, speaker, []int{2}, time.Time{})
}

func fixtureSources() []Source {
	return []Source{
		ClassifySource("extInput:hdmi?port=1", "HDMI 1"),
		ClassifySource("extInput:tv", "TV"),
		ClassifySource("extInput:sat-catv", "SAT/CATV"),
	}
}

func TestCompileCommands(t *testing.T) {
	got := CompileCommands(fixtureSources(), fixtureSnapshot())
	want := []string{
		"POWER_ON", "POWER_OFF", "POWER_TOGGLE",
		"VOLUME_UP", "VOLUME_DOWN",
		"MUTE_ON", "MUTE_OFF", "MUTE_TOGGLE",
		"SOUND_FIELD_CINEMASTUDIO",
		"SOUND_SOUNDFIELD_CINEMASTUDIO", "SOUND_SOUNDFIELD_2CHSTEREO",
		"SOUND_NIGHTMODE_ON", "SOUND_NIGHTMODE_OFF",
		"SOUND_DIMMER_BRIGHT", "SOUND_DIMMER_OFF",
		"SOUND_HDMIOUTPUT_HDMI_A", "SOUND_HDMIOUTPUT_HDIM_B",
		"SPEAKER_CENTER_UP", "SPEAKER_CENTER_DOWN",
		"ZONE1_VOLUME_UP", "ZONE1_VOLUME_DOWN", "ZONE1_MUTE_TOGGLE",
		"ZONE2_VOLUME_UP", "ZONE2_VOLUME_DOWN", "ZONE2_MUTE_TOGGLE", "ZONE2_ACTIVATE", "ZONE2_DEACTIVATE",
		"SYSTEM_DIMMER_BRIGHT", "SYSTEM_DIMMER_OFF",
		"SYSTEM_HDMI_OUTPUT_A", "SYSTEM_HDMI_OUTPUT_B",
		"INPUT_HDMI1", "INPUT_TV", "INPUT_SAT_CATV",
		"REFRESH_SETTINGS",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CompileCommands() =\n%v\nwant\n%v", got, want)
	}
}

func TestCompileCommands_NilSnapshot(t *testing.T) {
	got := CompileCommands(nil, nil)
	want := append(slices.Clone(BaseCommands),
		"ZONE1_VOLUME_UP", "ZONE1_VOLUME_DOWN", "ZONE1_MUTE_TOGGLE",
		"REFRESH_SETTINGS")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CompileCommands(nil, nil) = %v, want %v", got, want)
	}
}

func TestCompileCommands_NoDuplicates(t *testing.T) {
	sources := append(fixtureSources(), ClassifySource("extInput:hdmi?port=1", "again"))
	got := CompileCommands(sources, fixtureSnapshot())
	seen := map[string]bool{}
	for _, c := range got {
		if seen[c] {
			t.Errorf("duplicate command %q", c)
		}
		seen[c] = true
	}
}

// Every compiled command must parse to a known command type.
func TestCompileCommands_AllParse(t *testing.T) {
	for _, c := range CompileCommands(fixtureSources(), fixtureSnapshot()) {
		if u, ok := ParseCommand(c).(UnknownCommand); ok {
			t.Errorf("compiled command %q does not parse: %s", c, u.Reason)
		}
	}
}

func TestSpeakerName(t *testing.T) {
	tests := map[string]string{
		"frontLLevel":    "FRONTL",
		"centerlevel":    "CENTER",
		"subwooferLevel": "SUBWOOFER",
		"Level":          "LEVEL",
		"height":         "HEIGHT",
	}
	for in, want := range tests {
		if got := SpeakerName(in); got != want {
			t.Errorf("SpeakerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHDMIOutputValue(t *testing.T) {
	tests := map[string]string{"A": "hdmi_A", "b": "hdim_B", "AB": "hdmi_AB", "OFF": "off"}
	for in, want := range tests {
		if got, ok := HDMIOutputValue(in); !ok || got != want {
			t.Errorf("HDMIOutputValue(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := HDMIOutputValue("C"); ok {
		t.Error(`HDMIOutputValue("C") should fail`)
	}
}

func TestButtonMappings(t *testing.T) {
	sources := []Source{
		ClassifySource("extInput:hdmi?port=1", ""),
		ClassifySource("extInput:hdmi?port=2", ""),
		ClassifySource("extInput:tv", ""),
		ClassifySource("extInput:btAudio", ""),
		ClassifySource("extInput:usb", ""),
		ClassifySource("extInput:sat-catv", ""),
	}
	got := map[Button]string{}
	for _, m := range ButtonMappings(sources) {
		got[m.Button] = m.ShortPress
	}
	want := map[Button]string{
		ButtonPower:       "POWER_TOGGLE",
		ButtonVolumeUp:    "VOLUME_UP",
		ButtonVolumeDown:  "VOLUME_DOWN",
		ButtonMute:        "MUTE_TOGGLE",
		ButtonChannelUp:   "INPUT_HDMI2",
		ButtonChannelDown: "INPUT_HDMI1",
		ButtonHome:        "INPUT_TV",
		ButtonBack:        "INPUT_HDMI1",
		ButtonDPadUp:      "INPUT_TV",
		ButtonDPadLeft:    "INPUT_HDMI1",
		ButtonDPadRight:   "INPUT_HDMI2",
		ButtonDPadDown:    "INPUT_BLUETOOTH",
		ButtonDPadMiddle:  "MUTE_TOGGLE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ButtonMappings() = %v, want %v", got, want)
	}
}

func TestButtonMappings_NoSources(t *testing.T) {
	got := ButtonMappings(nil)
	if len(got) != 4 {
		t.Errorf("ButtonMappings(nil) = %v, want the 4 fixed buttons", got)
	}
}

func TestPages(t *testing.T) {
	pages := Pages("Living Room", fixtureSources(), fixtureSnapshot())
	var ids []string
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	want := []string{"main", "inputs", "sound", "speakers", "zones", "system"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("page ids = %v, want %v", ids, want)
	}
	if pages[0].Items[0].Text != "Living Room" {
		t.Errorf("main page title = %q", pages[0].Items[0].Text)
	}

	compiled := CompileCommands(fixtureSources(), fixtureSnapshot())
	for _, p := range pages {
		if p.ID == "system" {
			continue
		}
		for _, item := range p.Items {
			if item.Command != "" && !slices.Contains(compiled, item.Command) {
				t.Errorf("page %s references %q which is not in the namespace", p.ID, item.Command)
			}
		}
	}
}

func TestPages_WithoutSnapshot(t *testing.T) {
	pages := Pages("Bar", nil, nil)
	if len(pages) != 2 || pages[0].ID != "main" || pages[1].ID != "system" {
		t.Errorf("Pages() without data = %+v", pages)
	}
}

func TestPages_SingleZoneHasNoZonesPage(t *testing.T) {
	snap := NewSnapshot(nil, nil, nil, time.Time{})
	for _, p := range Pages("Bar", nil, snap) {
		if p.ID == "zones" {
			t.Error("zones page shown for a single-zone device")
		}
	}
}

func TestCompileNamespace(t *testing.T) {
	ns := CompileNamespace("Bar", fixtureSources(), fixtureSnapshot())
	if len(ns.Commands) == 0 || len(ns.Buttons) == 0 || len(ns.Pages) == 0 {
		t.Errorf("CompileNamespace() = %+v", ns)
	}
}
