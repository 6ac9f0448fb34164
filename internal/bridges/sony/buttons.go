package sony

import "slices"

// Button identifies a physical remote button.
type Button string

// Physical buttons that receive default mappings.
const (
	ButtonPower       Button = "POWER"
	ButtonVolumeUp    Button = "VOLUME_UP"
	ButtonVolumeDown  Button = "VOLUME_DOWN"
	ButtonMute        Button = "MUTE"
	ButtonChannelUp   Button = "CHANNEL_UP"
	ButtonChannelDown Button = "CHANNEL_DOWN"
	ButtonHome        Button = "HOME"
	ButtonBack        Button = "BACK"
	ButtonDPadUp      Button = "DPAD_UP"
	ButtonDPadDown    Button = "DPAD_DOWN"
	ButtonDPadLeft    Button = "DPAD_LEFT"
	ButtonDPadRight   Button = "DPAD_RIGHT"
	ButtonDPadMiddle  Button = "DPAD_MIDDLE"
)

// ButtonMapping binds a button's short press to a command.
type ButtonMapping struct {
	Button     Button `json:"button"`
	ShortPress string `json:"short_press"`
}

// cyclableInputs lists the input commands usable for channel and d-pad
// navigation, in source order. Labeled inputs and USB are not cycled.
func cyclableInputs(sources []Source) []string {
	var out []string
	for _, src := range sources {
		switch {
		case src.Kind == SourceHDMI:
		case src.Kind == SourceFixed && src.Token != "USB":
		default:
			continue
		}
		if cmd := src.Command(); !slices.Contains(out, cmd) {
			out = append(out, cmd)
		}
	}
	return out
}

// ButtonMappings derives the default physical button layout from sources.
func ButtonMappings(sources []Source) []ButtonMapping {
	mappings := []ButtonMapping{
		{Button: ButtonPower, ShortPress: CommandPowerToggle},
		{Button: ButtonVolumeUp, ShortPress: CommandVolumeUp},
		{Button: ButtonVolumeDown, ShortPress: CommandVolumeDown},
		{Button: ButtonMute, ShortPress: CommandMuteToggle},
	}

	inputs := cyclableInputs(sources)
	has := func(cmd string) bool { return slices.Contains(inputs, cmd) }

	if len(inputs) >= 2 {
		mappings = append(mappings,
			ButtonMapping{Button: ButtonChannelUp, ShortPress: inputs[1]},
			ButtonMapping{Button: ButtonChannelDown, ShortPress: inputs[0]},
		)
	}
	if has("INPUT_TV") {
		mappings = append(mappings, ButtonMapping{Button: ButtonHome, ShortPress: "INPUT_TV"})
	}
	if has("INPUT_HDMI1") {
		mappings = append(mappings, ButtonMapping{Button: ButtonBack, ShortPress: "INPUT_HDMI1"})
	}

	if len(inputs) == 0 {
		return mappings
	}
	if has("INPUT_TV") {
		mappings = append(mappings, ButtonMapping{Button: ButtonDPadUp, ShortPress: "INPUT_TV"})
	}
	if has("INPUT_HDMI1") {
		mappings = append(mappings, ButtonMapping{Button: ButtonDPadLeft, ShortPress: "INPUT_HDMI1"})
	}
	if has("INPUT_HDMI2") {
		mappings = append(mappings, ButtonMapping{Button: ButtonDPadRight, ShortPress: "INPUT_HDMI2"})
	}
	if has("INPUT_BLUETOOTH") {
		mappings = append(mappings, ButtonMapping{Button: ButtonDPadDown, ShortPress: "INPUT_BLUETOOTH"})
	}
	mappings = append(mappings, ButtonMapping{Button: ButtonDPadMiddle, ShortPress: CommandMuteToggle})
	return mappings
}
