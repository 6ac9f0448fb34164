package sony

import (
	"strings"
)

// Command is a parsed command string. The concrete types below form a
// closed set; Dispatcher switches over them.
type Command interface {
	// Name returns the normalized command string.
	Name() string
	command()
}

// PowerAction is the action of a power command.
type PowerAction string

// Power and mute actions.
const (
	ActionOn     PowerAction = "ON"
	ActionOff    PowerAction = "OFF"
	ActionToggle PowerAction = "TOGGLE"
)

// Direction of a relative adjustment.
type Direction string

// Directions.
const (
	Up   Direction = "UP"
	Down Direction = "DOWN"
)

// ZoneOp is the operation of a ZONE<N>_ command.
type ZoneOp string

// Zone operations.
const (
	ZoneVolumeUp   ZoneOp = "VOLUME_UP"
	ZoneVolumeDown ZoneOp = "VOLUME_DOWN"
	ZoneMuteToggle ZoneOp = "MUTE_TOGGLE"
	ZoneActivate   ZoneOp = "ACTIVATE"
	ZoneDeactivate ZoneOp = "DEACTIVATE"
)

var zoneOps = []ZoneOp{ZoneVolumeUp, ZoneVolumeDown, ZoneMuteToggle, ZoneActivate, ZoneDeactivate}

// SystemSetting names the setting a SYSTEM_ command changes.
type SystemSetting string

// System settings.
const (
	SystemDimmer     SystemSetting = TargetDimmer
	SystemHDMIOutput SystemSetting = TargetHDMIOutput
)

// PowerCommand is POWER_ON, POWER_OFF or POWER_TOGGLE.
type PowerCommand struct {
	Action PowerAction
}

// VolumeCommand is VOLUME_UP or VOLUME_DOWN on the main zone.
type VolumeCommand struct {
	Direction Direction
}

// MuteCommand is MUTE_ON, MUTE_OFF or MUTE_TOGGLE on the main zone.
type MuteCommand struct {
	Action PowerAction
}

// SoundSettingCommand is SOUND_FIELD_<VALUE> or SOUND_<TARGET>_<VALUE>.
// Body holds "<TARGET>_<VALUE>" upper-cased; the split point between target
// and value depends on the device's targets and is resolved against the
// capability cache. SOUND_FIELD_ commands have Body "SOUNDFIELD_<VALUE>".
type SoundSettingCommand struct {
	Raw  string
	Body string
}

// SpeakerLevelCommand is SPEAKER_<NAME>_UP or SPEAKER_<NAME>_DOWN.
type SpeakerLevelCommand struct {
	Speaker   string
	Direction Direction
}

// ZoneCommand is ZONE<N>_<OP>.
type ZoneCommand struct {
	Zone int
	Op   ZoneOp
}

// SystemCommand is SYSTEM_DIMMER_<VALUE> or SYSTEM_HDMI_OUTPUT_<VALUE>.
type SystemCommand struct {
	Setting SystemSetting
	Value   string
}

// InputCommand is INPUT_<SOURCE_TOKEN>.
type InputCommand struct {
	Token string
}

// RefreshCommand is REFRESH_SETTINGS.
type RefreshCommand struct{}

// UnknownCommand is anything the grammar does not accept.
type UnknownCommand struct {
	Raw    string
	Reason string
}

func (c PowerCommand) Name() string        { return "POWER_" + string(c.Action) }
func (c VolumeCommand) Name() string       { return "VOLUME_" + string(c.Direction) }
func (c MuteCommand) Name() string         { return "MUTE_" + string(c.Action) }
func (c SoundSettingCommand) Name() string { return c.Raw }
func (c SpeakerLevelCommand) Name() string {
	return CommandSpeakerPrefix + c.Speaker + "_" + string(c.Direction)
}
func (c ZoneCommand) Name() string { return ZoneCommandName(c.Zone, c.Op) }
func (c SystemCommand) Name() string {
	if c.Setting == SystemHDMIOutput {
		return CommandHDMIOutputPrefix + c.Value
	}
	return CommandDimmerPrefix + c.Value
}
func (c InputCommand) Name() string   { return CommandInputPrefix + c.Token }
func (RefreshCommand) Name() string   { return CommandRefreshSettings }
func (c UnknownCommand) Name() string { return c.Raw }

func (PowerCommand) command()        {}
func (VolumeCommand) command()       {}
func (MuteCommand) command()         {}
func (SoundSettingCommand) command() {}
func (SpeakerLevelCommand) command() {}
func (ZoneCommand) command()         {}
func (SystemCommand) command()       {}
func (InputCommand) command()        {}
func (RefreshCommand) command()      {}
func (UnknownCommand) command()      {}

// ParseCommand parses a command string once into its typed form. Matching
// is case-insensitive; the result never is nil.
func ParseCommand(raw string) Command {
	s := strings.ToUpper(strings.TrimSpace(raw))
	unknown := func(reason string) Command { return UnknownCommand{Raw: s, Reason: reason} }

	switch s {
	case "":
		return unknown("empty command")
	case CommandPowerOn:
		return PowerCommand{Action: ActionOn}
	case CommandPowerOff:
		return PowerCommand{Action: ActionOff}
	case CommandPowerToggle:
		return PowerCommand{Action: ActionToggle}
	case CommandVolumeUp:
		return VolumeCommand{Direction: Up}
	case CommandVolumeDown:
		return VolumeCommand{Direction: Down}
	case CommandMuteOn:
		return MuteCommand{Action: ActionOn}
	case CommandMuteOff:
		return MuteCommand{Action: ActionOff}
	case CommandMuteToggle:
		return MuteCommand{Action: ActionToggle}
	case CommandRefreshSettings:
		return RefreshCommand{}
	}

	switch {
	case strings.HasPrefix(s, CommandSoundFieldPrefix):
		value := strings.TrimPrefix(s, CommandSoundFieldPrefix)
		if value == "" {
			return unknown("missing sound field value")
		}
		return SoundSettingCommand{Raw: s, Body: strings.ToUpper(TargetSoundField) + "_" + value}

	case strings.HasPrefix(s, CommandSoundPrefix):
		body := strings.TrimPrefix(s, CommandSoundPrefix)
		target, value, ok := strings.Cut(body, "_")
		if !ok || target == "" || value == "" {
			return unknown("sound command needs a target and a value")
		}
		return SoundSettingCommand{Raw: s, Body: body}

	case strings.HasPrefix(s, CommandSpeakerPrefix):
		return parseSpeaker(s)

	case strings.HasPrefix(s, CommandZonePrefix):
		return parseZone(s)

	case strings.HasPrefix(s, CommandHDMIOutputPrefix):
		value := strings.TrimPrefix(s, CommandHDMIOutputPrefix)
		if value == "" {
			return unknown("missing HDMI output value")
		}
		return SystemCommand{Setting: SystemHDMIOutput, Value: value}

	case strings.HasPrefix(s, CommandDimmerPrefix):
		value := strings.TrimPrefix(s, CommandDimmerPrefix)
		if value == "" {
			return unknown("missing dimmer value")
		}
		return SystemCommand{Setting: SystemDimmer, Value: value}

	case strings.HasPrefix(s, CommandInputPrefix):
		token := strings.TrimPrefix(s, CommandInputPrefix)
		if token == "" {
			return unknown("missing input token")
		}
		return InputCommand{Token: token}
	}

	return unknown("unknown command")
}

func parseSpeaker(s string) Command {
	body := strings.TrimPrefix(s, CommandSpeakerPrefix)
	for _, dir := range []Direction{Up, Down} {
		suffix := "_" + string(dir)
		if name, ok := strings.CutSuffix(body, suffix); ok && name != "" {
			return SpeakerLevelCommand{Speaker: name, Direction: dir}
		}
	}
	return UnknownCommand{Raw: s, Reason: "speaker command must end in _UP or _DOWN"}
}

// parseZone accepts exactly one digit after ZONE followed by an operation.
func parseZone(s string) Command {
	rest := strings.TrimPrefix(s, CommandZonePrefix)
	if len(rest) < 2 || rest[0] < '0' || rest[0] > '9' || rest[1] != '_' {
		return UnknownCommand{Raw: s, Reason: "zone number must be a single digit"}
	}
	zone := int(rest[0] - '0')
	op := ZoneOp(rest[2:])
	for _, known := range zoneOps {
		if op == known {
			return ZoneCommand{Zone: zone, Op: op}
		}
	}
	return UnknownCommand{Raw: s, Reason: "unknown zone operation"}
}
