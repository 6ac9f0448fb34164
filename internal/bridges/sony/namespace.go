package sony

import (
	"fmt"
	"strings"
	"time"
)

// Fixed commands.
const (
	CommandPowerOn         = "POWER_ON"
	CommandPowerOff        = "POWER_OFF"
	CommandPowerToggle     = "POWER_TOGGLE"
	CommandVolumeUp        = "VOLUME_UP"
	CommandVolumeDown      = "VOLUME_DOWN"
	CommandMuteOn          = "MUTE_ON"
	CommandMuteOff         = "MUTE_OFF"
	CommandMuteToggle      = "MUTE_TOGGLE"
	CommandRefreshSettings = "REFRESH_SETTINGS"
)

// Command prefixes of the dynamic families.
const (
	CommandSoundFieldPrefix = "SOUND_FIELD_"
	CommandSoundPrefix      = "SOUND_"
	CommandSpeakerPrefix    = "SPEAKER_"
	CommandZonePrefix       = "ZONE"
	CommandDimmerPrefix     = "SYSTEM_DIMMER_"
	CommandHDMIOutputPrefix = "SYSTEM_HDMI_OUTPUT_"
	CommandInputPrefix      = "INPUT_"
)

// BaseCommands are available on every device.
var BaseCommands = []string{
	CommandPowerOn,
	CommandPowerOff,
	CommandPowerToggle,
	CommandVolumeUp,
	CommandVolumeDown,
	CommandMuteOn,
	CommandMuteOff,
	CommandMuteToggle,
}

// hdmiOutputValues maps SYSTEM_HDMI_OUTPUT_ tokens to device values.
// "hdim_B" is the documented device string and is sent unchanged.
var hdmiOutputValues = []struct {
	Token string
	Value string
}{
	{"A", "hdmi_A"},
	{"B", "hdim_B"},
	{"AB", "hdmi_AB"},
	{"OFF", "off"},
}

// HDMIOutputValue returns the device value for an HDMI output token.
func HDMIOutputValue(token string) (string, bool) {
	token = strings.ToUpper(token)
	for _, v := range hdmiOutputValues {
		if v.Token == token {
			return v.Value, true
		}
	}
	return "", false
}

// SpeakerName derives the SPEAKER_ command name from a speaker target by
// dropping a trailing "Level"/"level" and upper-casing the rest.
func SpeakerName(target string) string {
	name := target
	for _, suffix := range []string{"Level", "level"} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return strings.ToUpper(name)
}

// SpeakerCommands returns the UP and DOWN commands of a speaker target.
func SpeakerCommands(target string) (up, down string) {
	base := CommandSpeakerPrefix + SpeakerName(target)
	return base + "_UP", base + "_DOWN"
}

// SoundFieldCommand returns the SOUND_FIELD_ command for a sound field value.
func SoundFieldCommand(value string) string {
	return CommandSoundFieldPrefix + strings.ToUpper(value)
}

// SoundCommandName returns the SOUND_<TARGET>_<VALUE> command.
func SoundCommandName(target, value string) string {
	return CommandSoundPrefix + strings.ToUpper(target) + "_" + strings.ToUpper(value)
}

// ZoneCommandName builds a ZONE<N>_<OP> command.
func ZoneCommandName(zone int, op ZoneOp) string {
	return fmt.Sprintf("%s%d_%s", CommandZonePrefix, zone, op)
}

// Namespace is the compiled command vocabulary of one device.
type Namespace struct {
	Commands []string        `json:"commands"`
	Buttons  []ButtonMapping `json:"buttons"`
	Pages    []Page          `json:"pages"`
}

// CompileNamespace derives commands, button mappings and pages from the
// discovered sources and capabilities. snap may be nil before the first
// refresh, in which case only zone 1 and no settings are assumed.
func CompileNamespace(deviceName string, sources []Source, snap *Snapshot) Namespace {
	return Namespace{
		Commands: CompileCommands(sources, snap),
		Buttons:  ButtonMappings(sources),
		Pages:    Pages(deviceName, sources, snap),
	}
}

// CompileCommands derives the full command list. Order is stable: base
// commands, sound fields, sound settings, speakers, zones, system settings,
// inputs, refresh. Duplicates are dropped.
func CompileCommands(sources []Source, snap *Snapshot) []string {
	if snap == nil {
		snap = NewSnapshot(nil, nil, nil, time.Time{})
	}

	var b commandSet
	b.add(BaseCommands...)

	for _, opt := range snap.AvailableSoundFieldOptions() {
		b.add(SoundFieldCommand(opt.Value))
	}
	for _, t := range snap.AvailableToggleSettings() {
		for _, v := range t.Values {
			b.add(SoundCommandName(t.Target, v))
		}
	}
	for _, sc := range snap.AvailableSpeakerControls() {
		up, down := SpeakerCommands(sc.Target)
		b.add(up, down)
	}
	for _, zone := range snap.Zones() {
		b.add(
			ZoneCommandName(zone, ZoneVolumeUp),
			ZoneCommandName(zone, ZoneVolumeDown),
			ZoneCommandName(zone, ZoneMuteToggle),
		)
		if zone > MainZone {
			b.add(ZoneCommandName(zone, ZoneActivate), ZoneCommandName(zone, ZoneDeactivate))
		}
	}
	b.add(systemCommands(snap)...)
	for _, src := range sources {
		if cmd := src.Command(); cmd != "" {
			b.add(cmd)
		}
	}
	b.add(CommandRefreshSettings)
	return b.list
}

// systemCommands lists SYSTEM_ commands whose value the device accepts.
func systemCommands(snap *Snapshot) []string {
	var out []string
	if dimmer, ok := snap.FindSetting(TargetDimmer); ok && dimmer.IsAvailable {
		for _, c := range dimmer.Candidates {
			if c.IsAvailable {
				out = append(out, CommandDimmerPrefix+strings.ToUpper(c.Value))
			}
		}
	}
	if hdmi, ok := snap.FindSetting(TargetHDMIOutput); ok && hdmi.IsAvailable {
		for _, v := range hdmiOutputValues {
			if hdmi.HasCandidate(v.Value) {
				out = append(out, CommandHDMIOutputPrefix+v.Token)
			}
		}
	}
	return out
}

type commandSet struct {
	list []string
	seen map[string]struct{}
}

func (s *commandSet) add(cmds ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, c := range cmds {
		if _, dup := s.seen[c]; dup {
			continue
		}
		s.seen[c] = struct{}{}
		s.list = append(s.list, c)
	}
}
